package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"studyqa/internal/contextutil"
	"studyqa/internal/lexical"
	"studyqa/internal/storage"
)

// Payload fields stored with every point.
const (
	PayloadNamespace  = "namespace"
	PayloadRecordID   = "record_id"
	PayloadText       = "text"
	PayloadSubject    = "subject"
	PayloadChapter    = "chapter"
	PayloadPageStart  = "page_start"
	PayloadPageEnd    = "page_end"
	PayloadFilename   = "filename"
	PayloadSourcePath = "source_path"
)

const defaultEmbedBatch = 32

// Embedder turns texts into vectors, one per text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DenseIndex mirrors namespace records into a vector collection and answers
// nearest-neighbour queries with the same hit shape as the lexical index.
type DenseIndex struct {
	store      VectorStore
	embedder   Embedder
	collection string
	batchSize  int
}

// NewDenseIndex creates a dense index over one collection.
func NewDenseIndex(store VectorStore, embedder Embedder, collection string) *DenseIndex {
	return &DenseIndex{
		store:      store,
		embedder:   embedder,
		collection: collection,
		batchSize:  defaultEmbedBatch,
	}
}

// Mirror embeds records and upserts them as points of the namespace.
// With reset the namespace's existing points are removed first.
func (d *DenseIndex) Mirror(ctx context.Context, namespace string, records []storage.Record, reset bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	if reset {
		if err := d.store.DeleteWhere(ctx, d.collection, map[string]string{PayloadNamespace: namespace}); err != nil {
			return fmt.Errorf("failed to reset dense namespace: %w", err)
		}
	}

	for start := 0; start < len(records); start += d.batchSize {
		batch := records[start:min(start+d.batchSize, len(records))]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Text
		}
		vecs, err := d.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed records: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vecs))
		}

		points := make([]Point, len(batch))
		for i, rec := range batch {
			points[i] = pointFromRecord(namespace, rec, vecs[i])
		}
		if err := d.store.Upsert(ctx, d.collection, points); err != nil {
			return fmt.Errorf("failed to upsert dense points: %w", err)
		}
	}

	logger.InfoContext(ctx, "mirrored records to dense index", "namespace", namespace, "count", len(records), "reset", reset)
	return nil
}

// Query returns the k nearest records of a namespace. Distance is
// 1 - cosine score, clamped to [0, 1].
func (d *DenseIndex) Query(ctx context.Context, namespace, text string, k int) ([]lexical.Hit, error) {
	if k <= 0 {
		k = lexical.DefaultK
	}
	if strings.TrimSpace(text) == "" {
		return []lexical.Hit{}, nil
	}

	vecs, err := d.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vecs))
	}

	results, err := d.store.Search(ctx, d.collection, vecs[0], k, map[string]string{PayloadNamespace: namespace})
	if err != nil {
		return nil, err
	}

	hits := make([]lexical.Hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, hitFromResult(res))
	}
	return hits, nil
}

// Ping reports an error when the collection is unreachable or missing.
func (d *DenseIndex) Ping(ctx context.Context) error {
	exists, err := d.store.CollectionExists(ctx, d.collection)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("collection %q does not exist", d.collection)
	}
	return nil
}

// PointID maps a namespace-scoped record ID onto the UUID space Qdrant requires.
func PointID(namespace, recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"/"+recordID)).String()
}

func pointFromRecord(namespace string, rec storage.Record, vec []float32) Point {
	m := rec.Metadata
	return Point{
		ID:  PointID(namespace, rec.ID),
		Vec: vec,
		Meta: map[string]any{
			PayloadNamespace:  namespace,
			PayloadRecordID:   rec.ID,
			PayloadText:       rec.Text,
			PayloadSubject:    m.Subject,
			PayloadChapter:    m.Chapter,
			PayloadPageStart:  int64(m.PageStart),
			PayloadPageEnd:    int64(m.PageEnd),
			PayloadFilename:   m.Filename,
			PayloadSourcePath: m.SourcePath,
		},
	}
}

func hitFromResult(res SearchResult) lexical.Hit {
	d := 1 - float64(res.Score)
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	return lexical.Hit{
		Text: payloadString(res.Meta, PayloadText),
		Metadata: storage.Metadata{
			Subject:    payloadString(res.Meta, PayloadSubject),
			Chapter:    payloadString(res.Meta, PayloadChapter),
			PageStart:  payloadInt(res.Meta, PayloadPageStart),
			PageEnd:    payloadInt(res.Meta, PayloadPageEnd),
			Filename:   payloadString(res.Meta, PayloadFilename),
			SourcePath: payloadString(res.Meta, PayloadSourcePath),
		},
		Distance: &d,
	}
}

func payloadString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func payloadInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
