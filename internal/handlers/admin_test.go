package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"studyqa/internal/calibration"
	"studyqa/internal/service"
	"studyqa/internal/service/mocks"
	"studyqa/internal/storage"
)

func TestIndexHandler_JSON(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		setup          func(*mocks.MockStudyService)
		expectedStatus int
	}{
		{
			name: "pages",
			body: `{"subject":"History","chapter":"2","pages":[{"page":3,"text":"Weavers"}],"format":"markdown","reset":true}`,
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Index(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, req service.IndexRequest) (service.IndexResponse, error) {
						if req.Subject != "History" || req.Format != "markdown" || !req.Reset || len(req.Pages) != 1 || req.Pages[0].Number != 3 {
							t.Errorf("request = %+v", req)
						}
						return service.IndexResponse{Namespace: "History-ch2", Count: 1, Chunks: 1}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing path",
			body: `{"path":"/nope.pdf"}`,
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Index(gomock.Any(), gomock.Any()).
					Return(service.IndexResponse{}, fmt.Errorf("%w: /nope.pdf", service.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid body",
			body:           `{`,
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
			NewIndexHandler(svc, t.TempDir()).ServeHTTP(w, httptest.NewRequest(method, "/data/index", strings.NewReader(tt.body)))

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestIndexHandler_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockStudyService(ctrl)
	uploadDir := t.TempDir()

	svc.EXPECT().Index(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req service.IndexRequest) (service.IndexResponse, error) {
			if !req.Transient || !strings.HasPrefix(req.Path, uploadDir) {
				t.Errorf("path = %q transient = %v, want temporary upload copy", req.Path, req.Transient)
			}
			if req.Filename != "ch1.pdf" || req.Subject != "Economics" || req.ChunkSize != 800 {
				t.Errorf("request = %+v", req)
			}
			return service.IndexResponse{Namespace: "Economics-ch1", Count: 4, Chunks: 4}, nil
		})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("subject", "Economics")
	_ = mw.WriteField("chapter", "1")
	_ = mw.WriteField("chunk_size", "800")
	part, _ := mw.CreateFormFile("file", "ch1.pdf")
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/data/index", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	NewIndexHandler(svc, uploadDir).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp service.IndexResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Count != 4 {
		t.Errorf("response = %+v, %v", resp, err)
	}
}

func TestIndexHandler_UploadRejectsNonPDF(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockStudyService(ctrl)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("hello"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/data/index", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	NewIndexHandler(svc, t.TempDir()).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAdminHandler(t *testing.T) {
	partial, correct := 40.0, 75.0

	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		call           func(*AdminHandler) http.HandlerFunc
		setup          func(*mocks.MockStudyService)
		expectedStatus int
		wantBody       string
	}{
		{
			name:   "reload curated",
			target: "/admin/reload/curated",
			call:   func(h *AdminHandler) http.HandlerFunc { return h.ReloadCurated },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().ReloadCurated(gomock.Any()).Return(7, nil)
			},
			expectedStatus: http.StatusOK,
			wantBody:       `"curated_count":7`,
		},
		{
			name:   "clear one namespace",
			target: "/admin/cache/clear?namespace=Economics-ch3",
			call:   func(h *AdminHandler) http.HandlerFunc { return h.ClearCache },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().ClearCache(gomock.Any(), "Economics-ch3").Return([]string{"Economics-ch3"}, nil)
			},
			expectedStatus: http.StatusOK,
			wantBody:       `"cleared_namespaces":["Economics-ch3"]`,
		},
		{
			name:   "calibrate with apply query",
			target: "/admin/calibrate?apply=true",
			body:   `{"rows":[{"gold_label":"correct","score":90}]}`,
			call:   func(h *AdminHandler) http.HandlerFunc { return h.Calibrate },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Calibrate(gomock.Any(), service.CalibrateRequest{
					Rows:  []calibration.Row{{GoldLabel: "correct", Score: 90}},
					Apply: true,
				}).Return(service.CalibrateResponse{Count: 1}, nil)
			},
			expectedStatus: http.StatusOK,
			wantBody:       `"count":1`,
		},
		{
			name:   "calibrate without rows",
			target: "/admin/calibrate",
			body:   `{"rows":[]}`,
			call:   func(h *AdminHandler) http.HandlerFunc { return h.Calibrate },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Calibrate(gomock.Any(), gomock.Any()).
					Return(service.CalibrateResponse{}, &service.ValidationError{Field: "rows", Message: "required"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "get thresholds",
			method: http.MethodGet,
			target: "/admin/thresholds",
			call:   func(h *AdminHandler) http.HandlerFunc { return h.GetThresholds },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Thresholds(gomock.Any()).Return(service.ThresholdsResponse{PartialMin: 50, CorrectMin: 80}, nil)
			},
			expectedStatus: http.StatusOK,
			wantBody:       `"correct_min":80`,
		},
		{
			name:   "set thresholds",
			target: "/admin/thresholds",
			body:   `{"partial_min":40,"correct_min":75}`,
			call:   func(h *AdminHandler) http.HandlerFunc { return h.SetThresholds },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().SetThresholds(gomock.Any(), storage.ThresholdOverrides{PartialMin: &partial, CorrectMin: &correct}).
					Return(service.ThresholdsResponse{PartialMin: 40, CorrectMin: 75}, nil)
			},
			expectedStatus: http.StatusOK,
			wantBody:       `"partial_min":40`,
		},
		{
			name:   "threshold store unavailable",
			target: "/admin/thresholds",
			body:   `{"partial_min":40}`,
			call:   func(h *AdminHandler) http.HandlerFunc { return h.SetThresholds },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().SetThresholds(gomock.Any(), gomock.Any()).
					Return(service.ThresholdsResponse{}, fmt.Errorf("%w: down", service.ErrExternalService))
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:   "stats for one namespace",
			method: http.MethodGet,
			target: "/admin/stats?namespace=Economics-ch1",
			call:   func(h *AdminHandler) http.HandlerFunc { return h.Stats },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Stats(gomock.Any(), "Economics-ch1").Return(service.StatsResponse{
					Namespaces: []service.NamespaceStats{{Namespace: "Economics-ch1", Records: 3}},
					Records:    3,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			wantBody:       `"records":3`,
		},
		{
			name:   "stats for unknown namespace",
			method: http.MethodGet,
			target: "/admin/stats?namespace=Physics-ch9",
			call:   func(h *AdminHandler) http.HandlerFunc { return h.Stats },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Stats(gomock.Any(), "Physics-ch9").
					Return(service.StatsResponse{}, fmt.Errorf("%w: namespace Physics-ch9", service.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "reload fails",
			target: "/admin/reload/curated",
			call:   func(h *AdminHandler) http.HandlerFunc { return h.ReloadCurated },
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().ReloadCurated(gomock.Any()).Return(0, errors.New("malformed file"))
			},
			expectedStatus: http.StatusInternalServerError,
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
			tt.call(NewAdminHandler(svc))(w, httptest.NewRequest(method, tt.target, strings.NewReader(tt.body)))

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}
