package lexical

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"studyqa/internal/contextutil"
	"studyqa/internal/storage"
)

// DefaultK is the number of hits returned when k is not positive.
const DefaultK = 5

// Hit is one ranked retrieval result.
type Hit struct {
	Text     string           `json:"text"`
	Metadata storage.Metadata `json:"metadata"`
	// Distance is in [0,1], lower is more relevant. Nil when the source
	// provides no score.
	Distance *float64 `json:"distance,omitempty"`
}

// QueryResult is the ranked output of a query.
type QueryResult struct {
	Namespace string `json:"namespace"`
	Retriever string `json:"retriever"`
	Results   []Hit  `json:"results"`
}

// UpsertResult reports the size of a namespace after an upsert.
type UpsertResult struct {
	Namespace string `json:"namespace"`
	Count     int    `json:"count"`
}

// Options configures an Index.
type Options struct {
	// Stopwords extends the built-in English stopword list.
	Stopwords   []string
	MaxFeatures int
	CacheSize   int
}

// Index is a per-namespace lexical search index backed by a RecordStore.
type Index struct {
	records    storage.RecordStore
	vectorizer *Vectorizer
	cache      *ModelCache
}

// NewIndex creates an index. models may be nil to disable model persistence.
func NewIndex(records storage.RecordStore, models storage.ModelStore, opts Options) (*Index, error) {
	vectorizer := NewVectorizer(opts.Stopwords, opts.MaxFeatures)
	cache, err := NewModelCache(vectorizer, models, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Index{
		records:    records,
		vectorizer: vectorizer,
		cache:      cache,
	}, nil
}

// Upsert appends records to a namespace, skipping IDs that already exist.
// With reset the namespace is cleared first. The namespace's model is
// invalidated either way.
func (x *Index) Upsert(ctx context.Context, namespace string, records []storage.Record, reset bool) (UpsertResult, error) {
	count, err := x.records.Append(ctx, namespace, records, reset)
	x.cache.Invalidate(namespace)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to upsert records: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "upserted records",
		"namespace", namespace,
		"submitted", len(records),
		"count", count,
		"reset", reset,
	)
	return UpsertResult{Namespace: namespace, Count: count}, nil
}

// Query ranks the namespace's records against text and returns the top k.
// An empty namespace or a query without word tokens yields no results.
// Only storage failures are returned as errors.
func (x *Index) Query(ctx context.Context, namespace, text string, k int, retriever Retriever) (QueryResult, error) {
	result := QueryResult{Namespace: namespace, Retriever: retriever.String(), Results: []Hit{}}
	if k <= 0 {
		k = DefaultK
	}

	queryTokens := Tokenize(text)
	if len(queryTokens) == 0 {
		return result, nil
	}

	snap, err := x.records.Snapshot(ctx, namespace)
	if err != nil {
		return result, fmt.Errorf("failed to read namespace: %w", err)
	}
	if len(snap.Records) == 0 {
		return result, nil
	}

	texts := make([]string, len(snap.Records))
	for i, rec := range snap.Records {
		texts[i] = rec.Text
	}
	weights := noiseWeights(texts)

	var scores []float64
	used := RetrieverBM25
	if retriever != RetrieverBM25 {
		model, err := x.cache.Model(ctx, snap)
		switch {
		case err == nil:
			scores = x.vectorizer.Similarities(model, text)
			used = RetrieverTFIDF
		case errors.Is(err, ErrTFIDFUnavailable):
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "falling back to bm25",
				"namespace", namespace,
				"requested", retriever.String(),
			)
		default:
			return result, err
		}
	}

	if used == RetrieverTFIDF {
		for i := range scores {
			scores[i] *= weights[i]
		}
	} else {
		scores = bm25Scores(texts, queryTokens)
		var maxScore float64
		for i := range scores {
			scores[i] *= weights[i]
			if scores[i] > maxScore {
				maxScore = scores[i]
			}
		}
		for i := range scores {
			if maxScore > 0 {
				scores[i] /= maxScore
			} else {
				scores[i] = 0
			}
		}
	}
	result.Retriever = used.String()

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > k {
		order = order[:k]
	}

	for _, i := range order {
		d := clamp01(1 - scores[i])
		result.Results = append(result.Results, Hit{
			Text:     snap.Records[i].Text,
			Metadata: snap.Records[i].Metadata,
			Distance: &d,
		})
	}
	return result, nil
}

// ClearCache drops cached models for a namespace, or for all namespaces when
// namespace is empty, and returns the namespaces that were cleared.
func (x *Index) ClearCache(ctx context.Context, namespace string) ([]string, error) {
	cleared, err := x.cache.Clear(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to clear model cache: %w", err)
	}
	return cleared, nil
}

// Namespaces lists every namespace with stored records.
func (x *Index) Namespaces(ctx context.Context) ([]string, error) {
	return x.records.Namespaces(ctx)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
