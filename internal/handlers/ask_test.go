package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"studyqa/internal/curated"
	"studyqa/internal/lexical"
	"studyqa/internal/rag"
	"studyqa/internal/service"
	"studyqa/internal/service/mocks"
	"studyqa/internal/storage"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAskHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		query          string
		setup          func(*mocks.MockStudyService)
		expectedStatus int
	}{
		{
			name:  "defaults to synthesis",
			query: "q=what+is+sacrificing+ratio&subject=Economics&chapter=3",
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Ask(gomock.Any(), service.AskRequest{
					Question:   "what is sacrificing ratio",
					Subject:    "Economics",
					Chapter:    "3",
					Synthesize: true,
				}).Return(service.AskResponse{Namespace: "Economics-ch3", Retriever: "tfidf", Results: []lexical.Hit{}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "explicit k retriever and no synthesis",
			query: "q=why&k=7&retriever=bm25&answer_synthesis=false",
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Ask(gomock.Any(), service.AskRequest{Question: "why", K: 7, Retriever: "bm25"}).
					Return(service.AskResponse{Namespace: "general-chall", Retriever: "bm25", Results: []lexical.Hit{}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-numeric k",
			query:          "q=why&k=five",
			setup:          func(*mocks.MockStudyService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero k",
			query:          "q=why&k=0",
			setup:          func(*mocks.MockStudyService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad answer_synthesis",
			query:          "q=why&answer_synthesis=maybe",
			setup:          func(*mocks.MockStudyService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "validation error from service",
			query: "q=",
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, &service.ValidationError{Field: "q", Message: "question cannot be empty"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "internal error",
			query: "q=why",
			setup: func(m *mocks.MockStudyService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(service.AskResponse{}, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "method not allowed",
			method:         http.MethodPost,
			query:          "q=why",
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
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, "/ask?"+tt.query, nil)
			w := httptest.NewRecorder()

			NewAskHandler(svc).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); tt.expectedStatus != http.StatusMethodNotAllowed && ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestAskHandler_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockStudyService(ctrl)

	svc.EXPECT().Ask(gomock.Any(), service.AskRequest{Question: "why", K: 3, Synthesize: true}).Return(service.AskResponse{
		Namespace: "general-chall",
		Retriever: "bm25",
		Results:   []lexical.Hit{{Text: "one"}, {Text: "two"}},
		Selected:  []lexical.Hit{{Text: "one", Metadata: storage.Metadata{PageStart: 4}}, {Text: "two"}},
		Answer:    "One. [Sources: p4]",
		Citations: []rag.Citation{{PageStart: 4}},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ask/stream?q=why&k=3&answer_synthesis=false", nil)
	w := httptest.NewRecorder()
	NewAskHandler(svc).Stream(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	var types []string
	var meta struct {
		Namespace string `json:"namespace"`
		K         int    `json:"k"`
	}
	scanner := bufio.NewScanner(w.Body)
	sawEnd := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: end" {
			sawEnd = true
			continue
		}
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok || payload == "{}" {
			continue
		}
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("event %q is not JSON: %v", payload, err)
		}
		if ev.Type == "meta" {
			_ = json.Unmarshal([]byte(payload), &meta)
		}
		types = append(types, ev.Type)
	}

	want := []string{"meta", "passage", "passage", "answer"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("event types = %v, want %v", types, want)
	}
	if meta.Namespace != "general-chall" || meta.K != 3 {
		t.Errorf("meta = %+v", meta)
	}
	if !sawEnd {
		t.Error("stream did not end with an end event")
	}
}

func TestAskHandler_Stream_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockStudyService(ctrl)
	svc.EXPECT().Ask(gomock.Any(), gomock.Any()).
		Return(service.AskResponse{}, &service.ValidationError{Field: "q", Message: "question cannot be empty"})

	w := httptest.NewRecorder()
	NewAskHandler(svc).Stream(w, httptest.NewRequest(http.MethodGet, "/ask/stream", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// TestAskHandler_EndToEnd indexes three records into SQLite and asks through
// the real service.
func TestAskHandler_EndToEnd(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	idx, err := lexical.NewIndex(storage.NewRecordRepo(db), storage.NewModelRepo(db), lexical.Options{})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	svc := service.NewStudyService(service.Dependencies{
		Lexical: idx,
		Curated: curated.NewMatcher(""),
	}, service.DefaultOptions())

	body := `{"subject":"Economics","chapter":"1","records":[
		{"id":"a","text":"De-industrialisation had a two-fold motive: to promote British industries and to transform India into a supplier of raw materials and a market for British goods.","metadata":{"page_start":12,"page_end":13,"filename":"test.pdf"}},
		{"id":"b","text":"Farmers grew rice and wheat on small plots, relying on the monsoon.","metadata":{"page_start":1,"page_end":1,"filename":"test.pdf"}},
		{"id":"c","text":"Work these out: What was the two-fold motive?","metadata":{"page_start":13,"page_end":13,"filename":"test.pdf"}}
	]}`
	w := httptest.NewRecorder()
	NewIndexHandler(svc, t.TempDir()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/data/index", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("index status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/ask?q=two-fold+motive+behind+the+deindustrialisation&subject=Economics&chapter=1", nil)
	NewAskHandler(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ask status = %d, body %s", w.Code, w.Body.String())
	}
	var resp service.AskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Namespace != "Economics-ch1" || len(resp.Results) != 3 {
		t.Errorf("namespace = %q, results = %d", resp.Namespace, len(resp.Results))
	}
	lower := strings.ToLower(resp.Answer)
	for _, want := range []string{"raw materials", "market for british goods"} {
		if !strings.Contains(lower, want) {
			t.Errorf("answer missing %q: %q", want, resp.Answer)
		}
	}
	if strings.Contains(lower, "work these out") || strings.HasSuffix(strings.TrimSpace(resp.Answer), "?") {
		t.Errorf("answer contains exercise text: %q", resp.Answer)
	}
	if len(resp.Citations) == 0 {
		t.Error("answer has no citations")
	}
}
