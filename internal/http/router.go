package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"studyqa/internal/handlers"
	"studyqa/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	StudyService service.StudyService
	// HealthChecks are run by /api/health, keyed by dependency name.
	HealthChecks map[string]handlers.PingFunc
	// AdminToken guards /admin routes when set.
	AdminToken string
	// UploadDir receives PDFs uploaded to /data/index. Empty uses the temp dir.
	UploadDir string
	// RequestTimeout bounds request handling. Zero disables the timeout.
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	askHandler := handlers.NewAskHandler(deps.StudyService)
	indexHandler := handlers.NewIndexHandler(deps.StudyService, deps.UploadDir)
	teachHandler := handlers.NewTeachHandler(deps.StudyService)
	adminHandler := handlers.NewAdminHandler(deps.StudyService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	r.Method(http.MethodGet, "/ask", askHandler)
	r.Get("/ask/stream", askHandler.Stream)
	r.Method(http.MethodPost, "/data/index", indexHandler)
	r.Method(http.MethodPost, "/teach", teachHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminToken(deps.AdminToken))
		r.Post("/reload/curated", adminHandler.ReloadCurated)
		r.Post("/cache/clear", adminHandler.ClearCache)
		r.Post("/calibrate", adminHandler.Calibrate)
		r.Get("/stats", adminHandler.Stats)
		r.Get("/thresholds", adminHandler.GetThresholds)
		r.Post("/thresholds", adminHandler.SetThresholds)
	})

	return r
}
