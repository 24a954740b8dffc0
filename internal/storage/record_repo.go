package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_record_store.go -package=mocks studyqa/internal/storage RecordStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// RecordStore defines the interface for namespace record storage.
type RecordStore interface {
	// Append writes records into a namespace and returns the resulting record count.
	// When reset is true the namespace is cleared first. Otherwise records whose
	// ID already exists are skipped. Every call bumps the namespace revision and
	// drops any persisted model for it.
	Append(ctx context.Context, namespace string, records []Record, reset bool) (int, error)
	// Snapshot returns all records of a namespace together with its revision.
	// An unknown namespace yields an empty snapshot with revision 0.
	Snapshot(ctx context.Context, namespace string) (Snapshot, error)
	// Namespaces lists every namespace that has been written to.
	Namespaces(ctx context.Context) ([]string, error)
}

// RecordRepo provides methods for record operations.
// It implements the RecordStore interface.
type RecordRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db, now: time.Now}
}

// Append writes records into a namespace inside a single transaction.
func (r *RecordRepo) Append(ctx context.Context, namespace string, records []Record, reset bool) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO namespaces (name) VALUES (?) ON CONFLICT(name) DO NOTHING",
		namespace,
	); err != nil {
		return 0, fmt.Errorf("failed to ensure namespace: %w", err)
	}

	if reset {
		if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE namespace = ?", namespace); err != nil {
			return 0, fmt.Errorf("failed to reset namespace: %w", err)
		}
	}

	var prevRevision int64
	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		"SELECT revision FROM namespaces WHERE name = ?", namespace,
	).Scan(&prevRevision); err != nil {
		return 0, fmt.Errorf("failed to read namespace revision: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT MAX(seq) FROM records WHERE namespace = ?", namespace,
	).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("failed to read record sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO records (namespace, id, seq, text, metadata) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	seq := maxSeq.Int64
	for _, rec := range records {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode metadata for record %s: %w", rec.ID, err)
		}
		res, err := stmt.ExecContext(ctx, namespace, rec.ID, seq+1, rec.Text, string(meta))
		if err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seq++
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE namespace = ?", namespace,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	revision := r.now().UnixNano()
	if revision <= prevRevision {
		revision = prevRevision + 1
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE namespaces SET revision = ?, record_count = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?",
		revision, count, namespace,
	); err != nil {
		return 0, fmt.Errorf("failed to bump namespace revision: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tfidf_models WHERE namespace = ?", namespace); err != nil {
		return 0, fmt.Errorf("failed to invalidate persisted model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}
	return count, nil
}

// Snapshot reads the namespace revision and its records in one read transaction,
// so the records always correspond to the returned revision.
// Rows with unreadable metadata keep their text and get empty metadata.
func (r *RecordRepo) Snapshot(ctx context.Context, namespace string) (Snapshot, error) {
	snap := Snapshot{Namespace: namespace}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return snap, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	err = tx.QueryRowContext(ctx,
		"SELECT revision FROM namespaces WHERE name = ?", namespace,
	).Scan(&snap.Revision)
	if err == sql.ErrNoRows {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("failed to query namespace: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, text, metadata FROM records WHERE namespace = ? ORDER BY seq",
		namespace,
	)
	if err != nil {
		return snap, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var rec Record
		var meta string
		if err := rows.Scan(&rec.ID, &rec.Text, &meta); err != nil {
			return snap, fmt.Errorf("failed to scan record: %w", err)
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
				rec.Metadata = Metadata{}
			}
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("row iteration error: %w", err)
	}

	return snap, nil
}

// Namespaces lists every namespace that has been written to, sorted by name.
func (r *RecordRepo) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM namespaces ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query namespaces: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan namespace: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return names, nil
}
