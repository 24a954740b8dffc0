package storage

import (
	"context"
	"testing"
)

func ptr(v float64) *float64 {
	return &v
}

func TestThresholdRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewThresholdRepo(newTestDB(t))

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PartialMin != nil || got.CorrectMin != nil {
		t.Fatalf("Get() on empty store = %+v, want no overrides", got)
	}

	tests := []struct {
		name        string
		set         ThresholdOverrides
		wantPartial *float64
		wantCorrect *float64
	}{
		{name: "partial only", set: ThresholdOverrides{PartialMin: ptr(42)}, wantPartial: ptr(42)},
		{name: "correct added", set: ThresholdOverrides{CorrectMin: ptr(71.5)}, wantPartial: ptr(42), wantCorrect: ptr(71.5)},
		{name: "clamped", set: ThresholdOverrides{PartialMin: ptr(-3), CorrectMin: ptr(140)}, wantPartial: ptr(0), wantCorrect: ptr(100)},
		{name: "empty update keeps values", set: ThresholdOverrides{}, wantPartial: ptr(0), wantCorrect: ptr(100)},
	}

	equal := func(a, b *float64) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Set(ctx, tt.set)
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if !equal(got.PartialMin, tt.wantPartial) || !equal(got.CorrectMin, tt.wantCorrect) {
				t.Errorf("Set() = %v/%v, want %v/%v", got.PartialMin, got.CorrectMin, tt.wantPartial, tt.wantCorrect)
			}
		})
	}
}
