package calibration

import (
	"math"
	"math/rand"
	"testing"
)

func rows(label string, scores ...float64) []Row {
	out := make([]Row, len(scores))
	for i, s := range scores {
		out[i] = Row{GoldLabel: label, Score: s}
	}
	return out
}

func TestSuggestThresholds(t *testing.T) {
	tests := []struct {
		name        string
		rows        []Row
		wantPartial float64
		wantCorrect float64
		wantStats   Stats
	}{
		{
			name: "well separated buckets",
			rows: append(append(rows("incorrect", 10, 20, 30), rows("partial", 40, 50, 60, 70)...), rows("correct", 80, 90)...),
			// partial median 55, q3 67.5, correct median 85
			wantPartial: 37.5,
			wantCorrect: 76.3,
			wantStats:   Stats{IncorrectMedian: 20, PartialMedian: 55, CorrectMedian: 85, PartialQ3: 67.5},
		},
		{
			name:        "gap widened",
			rows:        append(append(rows("incorrect", 50), rows("partial", 52)...), rows("correct", 53)...),
			wantPartial: 51,
			wantCorrect: 56,
			wantStats:   Stats{IncorrectMedian: 50, PartialMedian: 52, CorrectMedian: 53, PartialQ3: 52},
		},
		{
			name:        "widening capped at 100",
			rows:        append(append(rows("incorrect", 98), rows("partial", 99)...), rows("correct", 100)...),
			wantPartial: 98.5,
			wantCorrect: 100,
			wantStats:   Stats{IncorrectMedian: 98, PartialMedian: 99, CorrectMedian: 100, PartialQ3: 99},
		},
		{
			name:        "no rows",
			rows:        nil,
			wantPartial: 0,
			wantCorrect: 5,
		},
		{
			name: "label fallback and unknown labels",
			rows: []Row{
				{Label: "incorrect", Score: 10},
				{Label: "partial", Score: 30},
				{GoldLabel: "correct", Label: "incorrect", Score: 90},
				{Label: "unsure", Score: 100},
			},
			wantPartial: 20,
			wantCorrect: 60,
			wantStats:   Stats{IncorrectMedian: 10, PartialMedian: 30, CorrectMedian: 90, PartialQ3: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestThresholds(tt.rows)
			if math.Abs(got.PartialMinSuggested-tt.wantPartial) > 1e-9 {
				t.Errorf("PartialMinSuggested = %v, want %v", got.PartialMinSuggested, tt.wantPartial)
			}
			if math.Abs(got.CorrectMinSuggested-tt.wantCorrect) > 1e-9 {
				t.Errorf("CorrectMinSuggested = %v, want %v", got.CorrectMinSuggested, tt.wantCorrect)
			}
			if got.Stats != tt.wantStats {
				t.Errorf("Stats = %+v, want %+v", got.Stats, tt.wantStats)
			}
		})
	}
}

func TestSuggestThresholds_Ordering(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	labels := []string{"correct", "partial", "incorrect"}

	for i := 0; i < 200; i++ {
		var rs []Row
		n := rng.Intn(20)
		for j := 0; j < n; j++ {
			rs = append(rs, Row{GoldLabel: labels[rng.Intn(len(labels))], Score: float64(rng.Intn(101))})
		}
		got := SuggestThresholds(rs)
		want := math.Min(100, got.PartialMinSuggested+5)
		if got.CorrectMinSuggested < want-1e-9 {
			t.Fatalf("rows %+v: correct %v < min(100, partial %v + 5)", rs, got.CorrectMinSuggested, got.PartialMinSuggested)
		}
		if got.CorrectMinSuggested > 100 {
			t.Fatalf("rows %+v: correct %v above 100", rs, got.CorrectMinSuggested)
		}
	}
}

func TestSuggestThresholds_CapWinsOverGap(t *testing.T) {
	got := SuggestThresholds([]Row{
		{GoldLabel: "incorrect", Score: 98},
		{GoldLabel: "partial", Score: 98},
		{GoldLabel: "correct", Score: 100},
	})

	if got.PartialMinSuggested != 98 {
		t.Errorf("partial_min = %v, want 98", got.PartialMinSuggested)
	}
	if got.CorrectMinSuggested != 100 {
		t.Errorf("correct_min = %v, want 100 (capped below partial_min + 5)", got.CorrectMinSuggested)
	}
}

func TestUpperQuartile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{name: "single", xs: []float64{42}, want: 42},
		{name: "two", xs: []float64{10, 20}, want: 22.5},
		{name: "four unsorted", xs: []float64{70, 40, 60, 50}, want: 67.5},
		{name: "five", xs: []float64{1, 2, 3, 4, 5}, want: 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := upperQuartile(tt.xs); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("upperQuartile(%v) = %v, want %v", tt.xs, got, tt.want)
			}
		})
	}
}
