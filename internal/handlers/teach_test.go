package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"studyqa/internal/rag"
	"studyqa/internal/service"
	"studyqa/internal/service/mocks"
)

func TestTeachHandler(t *testing.T) {
	outline := rag.Outline{
		Sections: []rag.OutlineSection{{ID: "overview", Title: "Chapter 3 overview", Bullets: []string{"Goodwill is an asset."}}},
		Coverage: rag.Coverage{RequiredTopics: []string{"goodwill"}, Covered: []string{"goodwill"}, Gaps: []string{}},
		Depth:    "deep",
	}

	tests := []struct {
		name           string
		method         string
		body           string
		setup          func(*mocks.MockStudyService)
		expectedStatus int
	}{
		{
			name: "outline",
			body: `{"subject":"Economics","chapter":"3","topics":["goodwill"],"depth":"deep","k":12}`,
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Teach(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, req service.TeachRequest) (service.TeachResponse, error) {
						want := service.TeachRequest{Subject: "Economics", Chapter: "3", Topics: []string{"goodwill"}, Depth: "deep", K: 12}
						if !reflect.DeepEqual(req, want) {
							t.Errorf("request = %+v, want %+v", req, want)
						}
						return service.TeachResponse{Namespace: "Economics-ch3", Retriever: "tfidf", Outline: outline}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "validation error",
			body: `{"chapter":"3"}`,
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Teach(gomock.Any(), gomock.Any()).
					Return(service.TeachResponse{}, &service.ValidationError{Field: "subject", Message: "subject cannot be empty"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid body",
			body:           `{"subject":`,
			setup:          func(*mocks.MockStudyService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			setup:          func(*mocks.MockStudyService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockStudyService(ctrl)
			tt.setup(svc)

			method := tt.method
			if method == "" {
				method = http.MethodPost
			}
			w := httptest.NewRecorder()
			NewTeachHandler(svc).ServeHTTP(w, httptest.NewRequest(method, "/teach", strings.NewReader(tt.body)))

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			for _, key := range []string{"namespace", "retriever", "outline", "glossary", "reading_list", "coverage", "depth"} {
				if _, ok := body[key]; !ok {
					t.Errorf("response missing %q: %s", key, w.Body.String())
				}
			}
			if body["depth"] != "deep" {
				t.Errorf("depth = %v, want deep", body["depth"])
			}
		})
	}
}
