// Package app wires configuration into a ready StudyService. It is shared by
// the API server and the command-line tool.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"studyqa/internal/config"
	"studyqa/internal/curated"
	"studyqa/internal/handlers"
	"studyqa/internal/lexical"
	"studyqa/internal/llm"
	"studyqa/internal/service"
	"studyqa/internal/storage"
	"studyqa/internal/vectorstore"
)

// App holds the long-lived components built from a Config.
type App struct {
	DB      *sql.DB
	Service service.StudyService
	Curated *curated.Matcher
	// Dense is nil when no Qdrant store is configured.
	Dense *vectorstore.DenseIndex

	qdrant *vectorstore.QdrantStore
}

// NewLogger builds a logger writing to w with the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// New opens the database, builds the lexical index and curated matcher, and
// connects the dense store when one is configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.InfoContext(ctx, "Database initialized", "path", cfg.DBPath)

	a := &App{DB: db}
	if err := a.build(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config) error {
	var stopwords []string
	if cfg.StopwordsPath != "" {
		words, err := lexical.LoadStopwords(cfg.StopwordsPath)
		if err != nil {
			return err
		}
		stopwords = words
		slog.InfoContext(ctx, "Loaded custom stopwords", "path", cfg.StopwordsPath, "count", len(words))
	}

	records := storage.NewRecordRepo(a.DB)
	index, err := lexical.NewIndex(records, storage.NewModelRepo(a.DB), lexical.Options{
		Stopwords:   stopwords,
		MaxFeatures: cfg.TFIDFMaxFeatures,
		CacheSize:   cfg.TFIDFCacheSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create lexical index: %w", err)
	}

	a.Curated = curated.NewMatcher(cfg.CuratedQAPath)
	slog.InfoContext(ctx, "Curated answers loaded", "path", cfg.CuratedQAPath, "count", a.Curated.Count())

	deps := service.Dependencies{
		Lexical:    index,
		Curated:    a.Curated,
		Thresholds: storage.NewThresholdRepo(a.DB),
		Catalog:    records,
	}

	if cfg.DenseEnabled() {
		dense, err := a.connectDense(ctx, cfg)
		if err != nil {
			return err
		}
		a.Dense = dense
		deps.Dense = dense
	}

	a.Service = service.NewStudyService(deps, service.Options{
		MaxChars:         cfg.AskMaxChars,
		MaxPassages:      cfg.AskMaxPassages,
		DefaultRetriever: cfg.DefaultRetriever,
		PartialMin:       cfg.PartialMin,
		CorrectMin:       cfg.CorrectMin,
		CoverageDir:      cfg.CoverageDir,
	})
	return nil
}

func (a *App) connectDense(ctx context.Context, cfg *config.Config) (*vectorstore.DenseIndex, error) {
	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	a.qdrant = store

	// Ensure collection exists with correct vector size
	if err := store.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	slog.InfoContext(ctx, "Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	return vectorstore.NewDenseIndex(store, embedder, cfg.QdrantCollection), nil
}

// HealthChecks returns the dependency checks reported by /api/health.
func (a *App) HealthChecks() map[string]handlers.PingFunc {
	checks := map[string]handlers.PingFunc{
		"database": a.DB.PingContext,
	}
	if a.Dense != nil {
		checks["vector_store"] = a.Dense.Ping
	}
	return checks
}

// Close releases the database and dense store connections.
func (a *App) Close() error {
	if a.qdrant != nil {
		_ = a.qdrant.Close()
	}
	return a.DB.Close()
}
