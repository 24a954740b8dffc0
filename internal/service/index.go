package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"studyqa/internal/contextutil"
	"studyqa/internal/ingest"
	"studyqa/internal/lexical"
	"studyqa/internal/storage"
)

// Page formats accepted by Index.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// IndexRequest adds content to the namespace of Subject and Chapter. Exactly
// one of Records, Pages or Path must be set.
type IndexRequest struct {
	Subject string
	Chapter string
	// Records are stored as given.
	Records []storage.Record
	// Pages are chunked. Format is text (default) or markdown.
	Pages  []ingest.Page
	Format string
	// Path is a PDF on the server's filesystem.
	Path string
	// Transient marks Path as a temporary copy of an upload. Its location is
	// not recorded as the chunks' source path.
	Transient bool
	// Filename overrides the file name recorded in chunk metadata.
	Filename     string
	ChunkSize    int
	ChunkOverlap int
	// Reset clears the namespace before adding.
	Reset bool
}

// IndexResponse reports the namespace size after indexing.
type IndexResponse struct {
	Namespace string `json:"namespace"`
	Count     int    `json:"count"`
	// Chunks is the number of records submitted by this request.
	Chunks int `json:"chunks"`
}

// Index ingests records, pages or a PDF into a namespace.
func (s *studyService) Index(ctx context.Context, req IndexRequest) (IndexResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	sources := 0
	for _, set := range []bool{len(req.Records) > 0, len(req.Pages) > 0, req.Path != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return IndexResponse{}, invalid("records", "exactly one of records, pages or path is required")
	}

	namespace := lexical.Namespace(req.Subject, req.Chapter)

	var records []storage.Record
	var err error
	switch {
	case len(req.Records) > 0:
		records, err = s.prepareRecords(req)
	case len(req.Pages) > 0:
		records, err = s.chunkPages(req)
	default:
		records, err = s.chunkPDF(ctx, req)
	}
	if err != nil {
		return IndexResponse{}, err
	}

	result, err := s.lexical.Upsert(ctx, namespace, records, req.Reset)
	if err != nil {
		logger.ErrorContext(ctx, "failed to index records",
			"namespace", namespace,
			"error", err,
		)
		return IndexResponse{}, WrapError(err, "failed to index records")
	}

	if s.dense != nil {
		if err := s.dense.Mirror(ctx, namespace, records, req.Reset); err != nil {
			logger.WarnContext(ctx, "failed to mirror records to dense store",
				"namespace", namespace,
				"error", err,
			)
		}
	}

	logger.InfoContext(ctx, "indexed content",
		"namespace", namespace,
		"chunks", len(records),
		"count", result.Count,
		"reset", req.Reset,
	)
	return IndexResponse{Namespace: namespace, Count: result.Count, Chunks: len(records)}, nil
}

func (s *studyService) prepareRecords(req IndexRequest) ([]storage.Record, error) {
	out := make([]storage.Record, len(req.Records))
	for i, rec := range req.Records {
		if strings.TrimSpace(rec.ID) == "" {
			return nil, invalid("records", fmt.Sprintf("record %d has no id", i))
		}
		if strings.TrimSpace(rec.Text) == "" {
			return nil, invalid("records", fmt.Sprintf("record %q has no text", rec.ID))
		}
		if rec.Metadata.Subject == "" {
			rec.Metadata.Subject = req.Subject
		}
		if rec.Metadata.Chapter == "" {
			rec.Metadata.Chapter = req.Chapter
		}
		out[i] = rec
	}
	return out, nil
}

func (s *studyService) chunkPages(req IndexRequest) ([]storage.Record, error) {
	pages := req.Pages
	switch strings.ToLower(req.Format) {
	case "", FormatText:
	case FormatMarkdown:
		pages = make([]ingest.Page, len(req.Pages))
		for i, p := range req.Pages {
			pages[i] = ingest.Page{Number: p.Number, Text: s.markdown.PlainText([]byte(p.Text))}
		}
	default:
		return nil, invalid("format", "must be text or markdown")
	}
	return chunk(pages, req, req.Filename, "")
}

func (s *studyService) chunkPDF(ctx context.Context, req IndexRequest) ([]storage.Record, error) {
	if _, err := os.Stat(req.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Path)
		}
		return nil, WrapError(err, "failed to stat PDF")
	}

	pages, err := ingest.ExtractPDF(ctx, req.Path)
	if err != nil {
		return nil, invalid("path", err.Error())
	}

	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.Path)
	}
	sourcePath := req.Path
	if req.Transient {
		sourcePath = ""
	}
	return chunk(pages, req, filename, sourcePath)
}

func chunk(pages []ingest.Page, req IndexRequest, filename, sourcePath string) ([]storage.Record, error) {
	opts := ingest.DefaultChunkOptions()
	if req.ChunkSize != 0 {
		opts.Size = req.ChunkSize
	}
	if req.ChunkOverlap != 0 {
		opts.Overlap = req.ChunkOverlap
	}
	opts.Subject = req.Subject
	opts.Chapter = req.Chapter
	opts.Filename = filename
	opts.SourcePath = sourcePath

	records, err := ingest.ChunkPages(pages, opts)
	if err != nil {
		return nil, invalid("chunk_size", err.Error())
	}
	if len(records) == 0 {
		return nil, invalid("pages", "no text to index")
	}
	return records, nil
}
