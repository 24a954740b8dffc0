package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks studyqa/internal/service Retriever,DenseRetriever
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_study_service.go -package=mocks studyqa/internal/service StudyService

import (
	"context"

	"studyqa/internal/calibration"
	"studyqa/internal/curated"
	"studyqa/internal/ingest"
	"studyqa/internal/lexical"
	"studyqa/internal/rag"
	"studyqa/internal/storage"
)

// Retriever is the lexical index as seen by the service layer.
type Retriever interface {
	Upsert(ctx context.Context, namespace string, records []storage.Record, reset bool) (lexical.UpsertResult, error)
	Query(ctx context.Context, namespace, text string, k int, retriever lexical.Retriever) (lexical.QueryResult, error)
	ClearCache(ctx context.Context, namespace string) ([]string, error)
}

// DenseRetriever is the optional vector-store path.
type DenseRetriever interface {
	Mirror(ctx context.Context, namespace string, records []storage.Record, reset bool) error
	Query(ctx context.Context, namespace, text string, k int) ([]lexical.Hit, error)
}

// CuratedStore is the curated answer bank.
type CuratedStore interface {
	Match(question, subject, chapter string) (curated.Match, bool)
	Reload() (int, error)
	Count() int
}

// ThresholdStore persists validator threshold overrides.
type ThresholdStore interface {
	Get(ctx context.Context) (storage.ThresholdOverrides, error)
	Set(ctx context.Context, overrides storage.ThresholdOverrides) (storage.ThresholdOverrides, error)
}

// Catalog lists namespaces and their stored records.
type Catalog interface {
	Namespaces(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, namespace string) (storage.Snapshot, error)
}

// StudyService answers questions over indexed chapters and runs the admin operations.
type StudyService interface {
	// Ask retrieves passages for a question and, when requested, synthesizes an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// Index ingests records, pages or a PDF into a namespace.
	Index(ctx context.Context, req IndexRequest) (IndexResponse, error)
	// ClearCache drops cached TF-IDF models for one namespace, or all when empty.
	ClearCache(ctx context.Context, namespace string) ([]string, error)
	// ReloadCurated re-reads the curated answer file and returns the pool size.
	ReloadCurated(ctx context.Context) (int, error)
	// Calibrate suggests validator thresholds from labeled scores, optionally applying them.
	Calibrate(ctx context.Context, req CalibrateRequest) (CalibrateResponse, error)
	// Thresholds returns the effective validator thresholds.
	Thresholds(ctx context.Context) (ThresholdsResponse, error)
	// SetThresholds stores threshold overrides.
	SetThresholds(ctx context.Context, overrides storage.ThresholdOverrides) (ThresholdsResponse, error)
	// Stats reports record and chunk-size statistics for one namespace, or all when empty.
	Stats(ctx context.Context, namespace string) (StatsResponse, error)
	// Eval runs expectation cases through Ask and reports hit, answer and citation rates.
	Eval(ctx context.Context, req EvalRequest) (EvalReport, error)
	// Teach builds an extractive study outline for a chapter.
	Teach(ctx context.Context, req TeachRequest) (TeachResponse, error)
}

// Options configures a StudyService.
type Options struct {
	// MaxChars is the answer character budget.
	MaxChars int
	// MaxPassages caps how many passages feed synthesis.
	MaxPassages int
	// DefaultRetriever is used when a request names none.
	DefaultRetriever string
	// PartialMin and CorrectMin are the validator thresholds used when no override is stored.
	PartialMin float64
	CorrectMin float64
	// CoverageDir holds per-chapter coverage.json files. Empty disables coverage files.
	CoverageDir string
}

// DefaultOptions returns the stock answer budget and thresholds.
func DefaultOptions() Options {
	return Options{
		MaxChars:         rag.DefaultMaxChars,
		MaxPassages:      rag.DefaultMaxPassages,
		DefaultRetriever: "auto",
		PartialMin:       50,
		CorrectMin:       80,
	}
}

// Dependencies are the collaborators of a StudyService. Dense, Curated,
// Thresholds and Catalog are optional.
type Dependencies struct {
	Lexical    Retriever
	Dense      DenseRetriever
	Curated    CuratedStore
	Thresholds ThresholdStore
	Catalog    Catalog
}

// studyService implements StudyService.
type studyService struct {
	lexical     Retriever
	dense       DenseRetriever
	curated     CuratedStore
	thresholds  ThresholdStore
	catalog     Catalog
	synthesizer *rag.Synthesizer
	markdown    *ingest.MarkdownExtractor
	opts        Options
}

// NewStudyService creates a new StudyService.
func NewStudyService(deps Dependencies, opts Options) StudyService {
	defaults := DefaultOptions()
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaults.MaxChars
	}
	if opts.MaxPassages <= 0 {
		opts.MaxPassages = defaults.MaxPassages
	}
	if opts.DefaultRetriever == "" {
		opts.DefaultRetriever = defaults.DefaultRetriever
	}

	var source rag.CuratedSource
	if deps.Curated != nil {
		source = deps.Curated
	}

	return &studyService{
		lexical:     deps.Lexical,
		dense:       deps.Dense,
		curated:     deps.Curated,
		thresholds:  deps.Thresholds,
		catalog:     deps.Catalog,
		synthesizer: rag.NewSynthesizer(source),
		markdown:    ingest.NewMarkdownExtractor(),
		opts:        opts,
	}
}

// CalibrateRequest carries labeled validator scores.
type CalibrateRequest struct {
	Rows []calibration.Row
	// Apply stores the suggestion as threshold overrides.
	Apply bool
}

// CalibrateResponse is a threshold suggestion.
type CalibrateResponse struct {
	Suggestions calibration.Suggestion `json:"suggestions"`
	Count       int                    `json:"count"`
	// Applied is set when the suggestion was stored.
	Applied *ThresholdsResponse `json:"applied,omitempty"`
}

// ThresholdsResponse reports the effective thresholds and the stored overrides.
type ThresholdsResponse struct {
	PartialMin float64                    `json:"partial_min"`
	CorrectMin float64                    `json:"correct_min"`
	Overrides  storage.ThresholdOverrides `json:"overrides"`
}
