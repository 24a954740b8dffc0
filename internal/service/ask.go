package service

import (
	"context"
	"strings"

	"studyqa/internal/contextutil"
	"studyqa/internal/lexical"
	"studyqa/internal/rag"
)

const (
	// maxK bounds the number of passages a single ask may request.
	maxK = 20
	// retrieverDense selects the vector-store path.
	retrieverDense = "dense"
)

// AskRequest is a question scoped to a subject and chapter.
type AskRequest struct {
	Question string
	Subject  string
	Chapter  string
	// K is the number of passages to retrieve. Zero means the default.
	K int
	// Retriever is auto, tfidf, bm25 or dense. Empty uses the configured default.
	Retriever string
	// Synthesize composes an extractive answer from the retrieved passages.
	Synthesize bool
}

// AskResponse carries the ranked passages and, when requested, the answer.
type AskResponse struct {
	Namespace string         `json:"namespace"`
	Retriever string         `json:"retriever"`
	Results   []lexical.Hit  `json:"results"`
	Answer    string         `json:"answer,omitempty"`
	Citations []rag.Citation `json:"citations,omitempty"`
	Selected  []lexical.Hit  `json:"selected,omitempty"`
}

// Ask retrieves passages for a question and, when requested, synthesizes an answer.
func (s *studyService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, invalid("q", "question cannot be empty")
	}

	k := req.K
	if k == 0 {
		k = lexical.DefaultK
	}
	if k < 1 || k > maxK {
		return AskResponse{}, invalid("k", "must be between 1 and 20")
	}

	name := strings.ToLower(strings.TrimSpace(req.Retriever))
	if name == "" {
		name = s.opts.DefaultRetriever
	}

	namespace := lexical.Namespace(req.Subject, req.Chapter)
	resp := AskResponse{Namespace: namespace}

	hits, used, err := s.retrieve(ctx, namespace, question, k, name)
	if err != nil {
		return AskResponse{}, err
	}
	resp.Retriever = used
	if hits == nil {
		hits = []lexical.Hit{}
	}
	resp.Results = hits

	logger.DebugContext(ctx, "retrieved passages",
		"namespace", namespace,
		"retriever", resp.Retriever,
		"hits", len(hits),
	)

	if !req.Synthesize {
		return resp, nil
	}

	answer := s.synthesizer.BuildAnswer(question, hits, rag.BuildOptions{
		MMR:         true,
		MaxPassages: min(s.opts.MaxPassages, k),
		MaxChars:    s.opts.MaxChars,
		FilterNoise: true,
		Subject:     req.Subject,
		Chapter:     req.Chapter,
	})
	resp.Answer = answer.Answer
	resp.Citations = answer.Citations
	resp.Selected = answer.Selected
	if resp.Selected == nil {
		resp.Selected = []lexical.Hit{}
	}

	logger.InfoContext(ctx, "answered question",
		"namespace", namespace,
		"retriever", resp.Retriever,
		"selected", len(resp.Selected),
		"citations", len(resp.Citations),
	)
	return resp, nil
}

// retrieve runs the named retriever over a namespace and returns the hits
// with the retriever that produced them. dense falls back to auto when the
// vector store is unavailable or empty. Lexical storage failures degrade to
// no hits.
func (s *studyService) retrieve(ctx context.Context, namespace, text string, k int, name string) ([]lexical.Hit, string, error) {
	if name == retrieverDense {
		if hits, ok := s.denseQuery(ctx, namespace, text, k); ok {
			return hits, retrieverDense, nil
		}
		name = lexical.RetrieverAuto.String()
	}

	retriever, err := lexical.ParseRetriever(name)
	if err != nil {
		return nil, "", invalid("retriever", err.Error())
	}
	result, err := s.lexical.Query(ctx, namespace, text, k, retriever)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "lexical query failed",
			"namespace", namespace,
			"error", err,
		)
		result = lexical.QueryResult{Retriever: retriever.String()}
	}
	return result.Results, result.Retriever, nil
}

// denseQuery runs the vector-store path. It reports false when the dense
// retriever is unconfigured or fails, so the caller falls back to lexical.
func (s *studyService) denseQuery(ctx context.Context, namespace, question string, k int) ([]lexical.Hit, bool) {
	if s.dense == nil {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "dense retriever not configured, using lexical",
			"namespace", namespace,
		)
		return nil, false
	}
	hits, err := s.dense.Query(ctx, namespace, question, k)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "dense query failed, using lexical",
			"namespace", namespace,
			"error", err,
		)
		return nil, false
	}
	if len(hits) == 0 {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "dense query returned no hits, using lexical",
			"namespace", namespace,
		)
		return nil, false
	}
	return hits, true
}
