package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name           string
		method         string
		checks         map[string]PingFunc
		expectedStatus int
		wantStatus     string
		wantIssues     []string
	}{
		{
			name:           "all healthy",
			checks:         map[string]PingFunc{"database": ok, "vector_store": ok},
			expectedStatus: http.StatusOK,
			wantStatus:     "healthy",
		},
		{
			name:           "dense store down",
			checks:         map[string]PingFunc{"database": ok, "vector_store": down},
			expectedStatus: http.StatusServiceUnavailable,
			wantStatus:     "unhealthy",
			wantIssues:     []string{"vector_store_unavailable"},
		},
		{
			name:           "no checks",
			checks:         nil,
			expectedStatus: http.StatusOK,
			wantStatus:     "healthy",
		},
		{
			name:           "method not allowed",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			w := httptest.NewRecorder()
			NewHealthHandler(tt.checks).ServeHTTP(w, httptest.NewRequest(method, "/api/health", nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.wantStatus == "" {
				return
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if !reflect.DeepEqual(resp.Issues, tt.wantIssues) {
				t.Errorf("issues = %v, want %v", resp.Issues, tt.wantIssues)
			}
			if len(resp.Checks) != len(tt.checks) {
				t.Errorf("checks = %v, want %d entries", resp.Checks, len(tt.checks))
			}
		})
	}
}
