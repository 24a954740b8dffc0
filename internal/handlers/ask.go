package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"studyqa/internal/contextutil"
	"studyqa/internal/lexical"
	"studyqa/internal/rag"
	"studyqa/internal/service"
	"studyqa/internal/storage"
)

// AskHandler handles HTTP requests for questions over indexed chapters.
type AskHandler struct {
	studyService service.StudyService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(studyService service.StudyService) *AskHandler {
	return &AskHandler{studyService: studyService}
}

// SSE event payloads sent by Stream.
type (
	streamMeta struct {
		Type      string `json:"type"`
		Namespace string `json:"namespace"`
		Retriever string `json:"retriever"`
		K         int    `json:"k"`
	}
	streamPassage struct {
		Type     string           `json:"type"`
		Text     string           `json:"text"`
		Metadata storage.Metadata `json:"metadata"`
	}
	streamAnswer struct {
		Type      string         `json:"type"`
		Text      string         `json:"text"`
		Citations []rag.Citation `json:"citations"`
	}
)

// parseAsk reads the ask query parameters.
func parseAsk(r *http.Request) (service.AskRequest, error) {
	q := r.URL.Query()
	k, err := queryInt(r, "k")
	if err != nil {
		return service.AskRequest{}, err
	}
	if q.Has("k") && k == 0 {
		return service.AskRequest{}, &service.ValidationError{Field: "k", Message: "must be between 1 and 20"}
	}
	synthesize, err := queryBool(r, "answer_synthesis", true)
	if err != nil {
		return service.AskRequest{}, err
	}
	return service.AskRequest{
		Question:   q.Get("q"),
		Subject:    q.Get("subject"),
		Chapter:    q.Get("chapter"),
		K:          k,
		Retriever:  q.Get("retriever"),
		Synthesize: synthesize,
	}, nil
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route GET /ask askQuestion
//
// # Ask a question
//
// Retrieves the top-k passages of the subject and chapter namespace and,
// unless answer_synthesis=false, composes an extractive answer with citations.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Ranked passages and the synthesized answer
//	'400':
//	  description: Bad request (missing question, k out of range, unknown retriever)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := parseAsk(r)
	if err != nil {
		handleServiceError(ctx, w, err, "Invalid request")
		return
	}

	resp, err := h.studyService.Ask(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Stream answers a question as server-sent events: one meta event, one
// passage event per selected passage, the answer, then an end event.
//
// swagger:route GET /ask/stream askQuestionStream
//
// # Ask a question with a streamed answer
//
// ---
// produces:
// - text/event-stream
func (h *AskHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	req, err := parseAsk(r)
	if err != nil {
		handleServiceError(ctx, w, err, "Invalid request")
		return
	}
	req.Synthesize = true

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	resp, err := h.studyService.Ask(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	k := req.K
	if k == 0 {
		k = lexical.DefaultK
	}
	events := []any{streamMeta{Type: "meta", Namespace: resp.Namespace, Retriever: resp.Retriever, K: k}}
	for _, hit := range resp.Selected {
		events = append(events, streamPassage{Type: "passage", Text: hit.Text, Metadata: hit.Metadata})
	}
	citations := resp.Citations
	if citations == nil {
		citations = []rag.Citation{}
	}
	events = append(events, streamAnswer{Type: "answer", Text: resp.Answer, Citations: citations})

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode event", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			logger.WarnContext(ctx, "client went away during stream", "error", err)
			return
		}
		flusher.Flush()
	}

	_, _ = fmt.Fprint(w, "event: end\ndata: {}\n\n")
	flusher.Flush()
}
