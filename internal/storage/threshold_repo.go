package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Threshold override keys read by the short-answer validator, which runs
// as a separate service and fetches them through GET /admin/thresholds.
const (
	ThresholdPartialMin = "partial_min"
	ThresholdCorrectMin = "correct_min"
)

// ThresholdOverrides holds runtime overrides for validator score cutoffs.
// A nil field means no override is set.
type ThresholdOverrides struct {
	PartialMin *float64 `json:"partial_min,omitempty"`
	CorrectMin *float64 `json:"correct_min,omitempty"`
}

// ThresholdRepo persists validator threshold overrides.
type ThresholdRepo struct {
	db *sql.DB
}

// NewThresholdRepo creates a new ThresholdRepo.
func NewThresholdRepo(db *sql.DB) *ThresholdRepo {
	return &ThresholdRepo{db: db}
}

// Get returns the currently stored overrides.
func (r *ThresholdRepo) Get(ctx context.Context) (ThresholdOverrides, error) {
	var out ThresholdOverrides

	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM threshold_overrides")
	if err != nil {
		return out, fmt.Errorf("failed to query threshold overrides: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return out, fmt.Errorf("failed to scan threshold override: %w", err)
		}
		v := value
		switch key {
		case ThresholdPartialMin:
			out.PartialMin = &v
		case ThresholdCorrectMin:
			out.CorrectMin = &v
		}
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Set stores the non-nil overrides, clamping each value to [0, 100],
// and returns the resulting full set.
func (r *ThresholdRepo) Set(ctx context.Context, overrides ThresholdOverrides) (ThresholdOverrides, error) {
	values := map[string]*float64{
		ThresholdPartialMin: overrides.PartialMin,
		ThresholdCorrectMin: overrides.CorrectMin,
	}
	for key, value := range values {
		if value == nil {
			continue
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO threshold_overrides (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, clampPercent(*value),
		)
		if err != nil {
			return ThresholdOverrides{}, fmt.Errorf("failed to store threshold %s: %w", key, err)
		}
	}
	return r.Get(ctx)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
