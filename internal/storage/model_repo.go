package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_model_store.go -package=mocks studyqa/internal/storage ModelStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ModelStore persists serialized vector-space models per namespace.
type ModelStore interface {
	// Load returns the persisted model for a namespace. Returns ErrNotFound if none exists.
	Load(ctx context.Context, namespace string) (*ModelBlob, error)
	// Save stores a model unless a newer revision is already stored.
	Save(ctx context.Context, blob *ModelBlob) error
	// Delete removes the persisted model for a namespace and reports whether one existed.
	Delete(ctx context.Context, namespace string) (bool, error)
	// DeleteAll removes every persisted model and returns the affected namespaces.
	DeleteAll(ctx context.Context) ([]string, error)
}

// ModelRepo provides methods for model blob operations.
// It implements the ModelStore interface.
type ModelRepo struct {
	db *sql.DB
}

// NewModelRepo creates a new ModelRepo.
func NewModelRepo(db *sql.DB) *ModelRepo {
	return &ModelRepo{db: db}
}

// Load returns the persisted model for a namespace.
func (r *ModelRepo) Load(ctx context.Context, namespace string) (*ModelBlob, error) {
	blob := ModelBlob{Namespace: namespace}
	err := r.db.QueryRowContext(ctx,
		"SELECT revision, doc_count, payload FROM tfidf_models WHERE namespace = ?",
		namespace,
	).Scan(&blob.Revision, &blob.DocCount, &blob.Payload)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query model: %w", err)
	}
	return &blob, nil
}

// Save stores a model. A stale build never overwrites a model of a newer revision.
func (r *ModelRepo) Save(ctx context.Context, blob *ModelBlob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tfidf_models (namespace, revision, doc_count, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			revision = excluded.revision,
			doc_count = excluded.doc_count,
			payload = excluded.payload,
			created_at = CURRENT_TIMESTAMP
		WHERE excluded.revision >= tfidf_models.revision`,
		blob.Namespace, blob.Revision, blob.DocCount, blob.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// Delete removes the persisted model for a namespace.
func (r *ModelRepo) Delete(ctx context.Context, namespace string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tfidf_models WHERE namespace = ?", namespace)
	if err != nil {
		return false, fmt.Errorf("failed to delete model: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteAll removes every persisted model.
func (r *ModelRepo) DeleteAll(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT namespace FROM tfidf_models ORDER BY namespace")
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan model namespace: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	_ = rows.Close()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM tfidf_models"); err != nil {
		return nil, fmt.Errorf("failed to delete models: %w", err)
	}
	return names, nil
}
