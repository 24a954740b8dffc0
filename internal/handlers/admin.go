package handlers

import (
	"encoding/json"
	"net/http"

	"studyqa/internal/calibration"
	"studyqa/internal/contextutil"
	"studyqa/internal/service"
	"studyqa/internal/storage"
)

// AdminHandler handles the maintenance endpoints under /admin.
type AdminHandler struct {
	studyService service.StudyService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(studyService service.StudyService) *AdminHandler {
	return &AdminHandler{studyService: studyService}
}

// ReloadCuratedResponse reports the curated pool after a reload.
type ReloadCuratedResponse struct {
	Status       string `json:"status"`
	CuratedCount int    `json:"curated_count"`
}

// ClearCacheResponse lists the namespaces whose models were dropped.
type ClearCacheResponse struct {
	Status            string   `json:"status"`
	ClearedNamespaces []string `json:"cleared_namespaces"`
}

// CalibrateRequest carries labeled validator scores.
//
// swagger:model CalibrateRequest
type CalibrateRequest struct {
	Rows  []calibration.Row `json:"rows"`
	Apply bool              `json:"apply,omitempty"`
}

// ReloadCurated forces a re-read of the curated answer file.
//
// swagger:route POST /admin/reload/curated reloadCurated
func (h *AdminHandler) ReloadCurated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.studyService.ReloadCurated(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to reload curated answers")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ReloadCuratedResponse{Status: "ok", CuratedCount: count})
}

// ClearCache drops cached TF-IDF models. The optional namespace query
// parameter limits the clear to one namespace.
//
// swagger:route POST /admin/cache/clear clearCache
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cleared, err := h.studyService.ClearCache(ctx, r.URL.Query().Get("namespace"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to clear cache")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ClearCacheResponse{Status: "ok", ClearedNamespaces: cleared})
}

// Calibrate suggests validator thresholds from labeled scores. With
// apply=true (body field or query parameter) the suggestion is stored.
//
// swagger:route POST /admin/calibrate calibrate
func (h *AdminHandler) Calibrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	apply, err := queryBool(r, "apply", false)
	if err != nil {
		handleServiceError(ctx, w, err, "Invalid request")
		return
	}

	resp, err := h.studyService.Calibrate(ctx, service.CalibrateRequest{Rows: req.Rows, Apply: req.Apply || apply})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to calibrate thresholds")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Stats reports record and chunk-size statistics. The optional namespace
// query parameter limits the report to one namespace.
//
// swagger:route GET /admin/stats indexStats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.studyService.Stats(ctx, r.URL.Query().Get("namespace"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute index stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// GetThresholds returns the effective validator thresholds.
//
// swagger:route GET /admin/thresholds getThresholds
func (h *AdminHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.studyService.Thresholds(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read thresholds")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// SetThresholds stores validator threshold overrides.
//
// swagger:route POST /admin/thresholds setThresholds
func (h *AdminHandler) SetThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var overrides storage.ThresholdOverrides
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.studyService.SetThresholds(ctx, overrides)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to store thresholds")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
