package service

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"studyqa/internal/contextutil"
	"studyqa/internal/lexical"
	"studyqa/internal/rag"
)

const (
	defaultTeachK = 10
	minTeachK     = 3
	maxTeachK     = 25
	// teachQueryTopics is how many topics feed the retrieval query.
	teachQueryTopics = 3
)

// TeachRequest asks for a study outline of a chapter.
type TeachRequest struct {
	Subject string
	Chapter string
	// Topics steer retrieval and the curated fallback. Empty means "overview".
	Topics []string
	// Depth is basic, standard or deep. Empty means standard.
	Depth string
	// Retriever is auto, tfidf, bm25 or dense. Empty uses the configured default.
	Retriever string
	// K is the number of passages to retrieve. Zero means 10.
	K int
}

// TeachResponse is a chapter outline with the retriever that fed it.
type TeachResponse struct {
	Namespace string `json:"namespace"`
	Retriever string `json:"retriever"`
	rag.Outline
}

// coverageFile lists the topics a chapter outline must cover.
type coverageFile struct {
	Required []string `json:"required"`
}

// Teach builds an extractive study outline for a chapter.
func (s *studyService) Teach(ctx context.Context, req TeachRequest) (TeachResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return TeachResponse{}, invalid("subject", "subject cannot be empty")
	}
	chapter := strings.TrimSpace(req.Chapter)
	if chapter == "" {
		return TeachResponse{}, invalid("chapter", "chapter cannot be empty")
	}

	k := req.K
	if k == 0 {
		k = defaultTeachK
	}
	if k < minTeachK || k > maxTeachK {
		return TeachResponse{}, invalid("k", "must be between 3 and 25")
	}

	depth := strings.ToLower(strings.TrimSpace(req.Depth))
	if depth == "" {
		depth = rag.DepthStandard
	}
	if !rag.IsDepth(depth) {
		return TeachResponse{}, invalid("depth", "must be one of basic, standard, deep")
	}

	name := strings.ToLower(strings.TrimSpace(req.Retriever))
	if name == "" {
		name = s.opts.DefaultRetriever
	}

	var requested []string
	for _, t := range req.Topics {
		if t = strings.TrimSpace(t); t != "" {
			requested = append(requested, t)
		}
	}
	topics := requested
	if len(topics) == 0 {
		topics = []string{"overview"}
	}
	query := strings.Join(topics[:min(len(topics), teachQueryTopics)], "; ")

	namespace := lexical.Namespace(subject, chapter)
	hits, used, err := s.retrieve(ctx, namespace, query, k, name)
	if err != nil {
		return TeachResponse{}, err
	}
	if len(hits) == 0 && used != lexical.RetrieverBM25.String() {
		hits, used, err = s.retrieve(ctx, namespace, query, k, lexical.RetrieverBM25.String())
		if err != nil {
			return TeachResponse{}, err
		}
	}

	required := s.requiredTopics(ctx, subject, chapter)
	if len(required) == 0 {
		required = requested
	}

	outline := s.synthesizer.Outline(hits, rag.OutlineOptions{
		Subject:  subject,
		Chapter:  chapter,
		Topics:   topics,
		Depth:    depth,
		Required: required,
	})

	logger.InfoContext(ctx, "built outline",
		"namespace", namespace,
		"retriever", used,
		"hits", len(hits),
		"depth", depth,
		"gaps", len(outline.Coverage.Gaps),
	)
	return TeachResponse{Namespace: namespace, Retriever: used, Outline: outline}, nil
}

// requiredTopics reads <CoverageDir>/<subject>/chapters/<chapter>/coverage.json.
// Spaces in names become underscores. A missing or malformed file yields none.
func (s *studyService) requiredTopics(ctx context.Context, subject, chapter string) []string {
	if s.opts.CoverageDir == "" || !safePathElem(subject) || !safePathElem(chapter) {
		return nil
	}
	path := filepath.Join(s.opts.CoverageDir,
		strings.ReplaceAll(subject, " ", "_"), "chapters",
		strings.ReplaceAll(chapter, " ", "_"), "coverage.json")

	logger := contextutil.LoggerFromContext(ctx)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.WarnContext(ctx, "failed to read coverage file", "path", path, "error", err)
		}
		return nil
	}
	var file coverageFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.WarnContext(ctx, "malformed coverage file", "path", path, "error", err)
		return nil
	}

	var out []string
	for _, topic := range file.Required {
		if topic = strings.TrimSpace(topic); topic != "" {
			out = append(out, topic)
		}
	}
	return out
}

func safePathElem(s string) bool {
	return s != "." && !strings.Contains(s, "..") && !strings.ContainsAny(s, `/\`)
}
