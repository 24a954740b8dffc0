package handlers

import (
	"encoding/json"
	"net/http"

	"studyqa/internal/contextutil"
	"studyqa/internal/service"
)

// TeachHandler handles HTTP requests for chapter study outlines.
type TeachHandler struct {
	studyService service.StudyService
}

// NewTeachHandler creates a new TeachHandler.
func NewTeachHandler(studyService service.StudyService) *TeachHandler {
	return &TeachHandler{studyService: studyService}
}

// TeachRequest represents the JSON payload for an outline.
//
// swagger:model TeachRequest
type TeachRequest struct {
	Subject   string   `json:"subject"`
	Chapter   string   `json:"chapter"`
	Topics    []string `json:"topics,omitempty"`
	Depth     string   `json:"depth,omitempty"`
	Retriever string   `json:"retriever,omitempty"`
	K         int      `json:"k,omitempty"`
}

// ServeHTTP handles HTTP requests for outlines.
//
// swagger:route POST /teach teachChapter
//
// # Build a chapter outline
//
// Returns overview, key term, definition, explanation and formula sections
// extracted from the indexed chapter, with a glossary, a reading list and
// coverage of the required topics.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Chapter outline
//	'400':
//	  description: Bad request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *TeachHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req TeachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.studyService.Teach(ctx, service.TeachRequest{
		Subject:   req.Subject,
		Chapter:   req.Chapter,
		Topics:    req.Topics,
		Depth:     req.Depth,
		Retriever: req.Retriever,
		K:         req.K,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to build outline")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
