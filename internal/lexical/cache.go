package lexical

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"studyqa/internal/contextutil"
	"studyqa/internal/storage"
)

// DefaultCacheSize bounds the number of namespaces with an in-memory model.
const DefaultCacheSize = 64

// cacheEntry is immutable once stored. A nil model records that TF-IDF is
// unavailable for that revision.
type cacheEntry struct {
	revision int64
	docCount int
	model    *Model
}

func (e *cacheEntry) matches(snap storage.Snapshot) bool {
	return e.revision == snap.Revision && e.docCount == len(snap.Records)
}

// ModelCache holds fitted TF-IDF models per namespace. Entries are valid only
// while the namespace revision and record count match the ones they were
// built from. Concurrent builds for the same revision are collapsed.
type ModelCache struct {
	vectorizer *Vectorizer
	store      storage.ModelStore
	entries    *lru.Cache[string, *cacheEntry]
	group      singleflight.Group
}

// NewModelCache creates a cache. store may be nil to keep models in memory only.
func NewModelCache(vectorizer *Vectorizer, store storage.ModelStore, size int) (*ModelCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create model cache: %w", err)
	}
	return &ModelCache{
		vectorizer: vectorizer,
		store:      store,
		entries:    entries,
	}, nil
}

// Model returns the TF-IDF model for a snapshot, building or loading it as
// needed. It returns ErrTFIDFUnavailable when the snapshot cannot support one.
func (c *ModelCache) Model(ctx context.Context, snap storage.Snapshot) (*Model, error) {
	if entry, ok := c.entries.Get(snap.Namespace); ok && entry.matches(snap) {
		return entryModel(entry)
	}

	key := snap.Namespace + "@" + strconv.FormatInt(snap.Revision, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.build(ctx, snap), nil
	})
	if err != nil {
		return nil, err
	}
	return entryModel(v.(*cacheEntry))
}

func entryModel(entry *cacheEntry) (*Model, error) {
	if entry.model == nil {
		return nil, ErrTFIDFUnavailable
	}
	return entry.model, nil
}

func (c *ModelCache) build(ctx context.Context, snap storage.Snapshot) *cacheEntry {
	logger := contextutil.LoggerFromContext(ctx)

	if m := c.loadPersisted(ctx, snap); m != nil {
		entry := &cacheEntry{revision: snap.Revision, docCount: len(snap.Records), model: m}
		c.entries.Add(snap.Namespace, entry)
		logger.DebugContext(ctx, "loaded persisted tfidf model", "namespace", snap.Namespace, "revision", snap.Revision)
		return entry
	}

	texts := make([]string, len(snap.Records))
	for i, rec := range snap.Records {
		texts[i] = rec.Text
	}

	entry := &cacheEntry{revision: snap.Revision, docCount: len(snap.Records)}
	m, err := c.vectorizer.Fit(texts)
	if err != nil {
		logger.DebugContext(ctx, "tfidf unavailable", "namespace", snap.Namespace, "reason", err)
		c.entries.Add(snap.Namespace, entry)
		return entry
	}
	entry.model = m
	c.entries.Add(snap.Namespace, entry)

	logger.InfoContext(ctx, "built tfidf model",
		"namespace", snap.Namespace,
		"revision", snap.Revision,
		"docs", len(texts),
		"features", len(m.Vocabulary),
	)

	if c.store != nil {
		payload, err := EncodeModel(m)
		if err == nil {
			err = c.store.Save(ctx, &storage.ModelBlob{
				Namespace: snap.Namespace,
				Revision:  snap.Revision,
				DocCount:  len(snap.Records),
				Payload:   payload,
			})
		}
		if err != nil {
			logger.WarnContext(ctx, "failed to persist tfidf model", "namespace", snap.Namespace, "error", err)
		}
	}
	return entry
}

// loadPersisted returns the stored model when it matches the snapshot and the
// current analyzer settings. Any mismatch or decode failure is a miss.
func (c *ModelCache) loadPersisted(ctx context.Context, snap storage.Snapshot) *Model {
	if c.store == nil || snap.Revision == 0 {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	blob, err := c.store.Load(ctx, snap.Namespace)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.WarnContext(ctx, "failed to load persisted tfidf model", "namespace", snap.Namespace, "error", err)
		}
		return nil
	}
	if blob.Revision != snap.Revision || blob.DocCount != len(snap.Records) {
		return nil
	}
	m, err := DecodeModel(blob.Payload)
	if err != nil {
		logger.WarnContext(ctx, "discarding malformed tfidf model", "namespace", snap.Namespace, "error", err)
		return nil
	}
	if !c.vectorizer.Compatible(m) || len(m.Rows) != len(snap.Records) {
		return nil
	}
	return m
}

// Invalidate drops the in-memory model of a namespace.
func (c *ModelCache) Invalidate(namespace string) {
	c.entries.Remove(namespace)
}

// Clear drops in-memory and persisted models. An empty namespace clears all of
// them. It returns the namespaces that had a model.
func (c *ModelCache) Clear(ctx context.Context, namespace string) ([]string, error) {
	cleared := make(map[string]struct{})

	if namespace != "" {
		if c.entries.Contains(namespace) {
			cleared[namespace] = struct{}{}
		}
		c.entries.Remove(namespace)
		if c.store != nil {
			existed, err := c.store.Delete(ctx, namespace)
			if err != nil {
				return nil, err
			}
			if existed {
				cleared[namespace] = struct{}{}
			}
		}
		return sortedKeys(cleared), nil
	}

	for _, ns := range c.entries.Keys() {
		cleared[ns] = struct{}{}
	}
	c.entries.Purge()
	if c.store != nil {
		names, err := c.store.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, ns := range names {
			cleared[ns] = struct{}{}
		}
	}
	return sortedKeys(cleared), nil
}
