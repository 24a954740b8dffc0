package calibration

import (
	"math"
	"sort"
)

// minGap is the smallest allowed distance between the partial and correct cutoffs.
const minGap = 5

// Row is one graded answer: its human label and the validator's score.
type Row struct {
	GoldLabel string  `json:"gold_label,omitempty"`
	Label     string  `json:"label,omitempty"`
	Score     float64 `json:"score"`
}

func (r Row) label() string {
	if r.GoldLabel != "" {
		return r.GoldLabel
	}
	return r.Label
}

// Stats summarizes the score distribution of each label.
type Stats struct {
	IncorrectMedian float64 `json:"incorrect_median"`
	PartialMedian   float64 `json:"partial_median"`
	CorrectMedian   float64 `json:"correct_median"`
	PartialQ3       float64 `json:"partial_q3"`
}

// Suggestion holds suggested validator cutoffs.
type Suggestion struct {
	PartialMinSuggested float64 `json:"partial_min_suggested"`
	CorrectMinSuggested float64 `json:"correct_min_suggested"`
	Stats               Stats   `json:"stats"`
}

// SuggestThresholds derives partial and correct cutoffs from labeled scores.
// The partial cutoff sits midway between the incorrect and partial medians;
// the correct cutoff sits midway between the upper partial scores and the
// correct median, and is always at least 5 points above the partial cutoff
// (capped at 100). Rows with other labels are ignored.
func SuggestThresholds(rows []Row) Suggestion {
	buckets := map[string][]float64{}
	for _, r := range rows {
		switch l := r.label(); l {
		case "correct", "partial", "incorrect":
			buckets[l] = append(buckets[l], r.Score)
		}
	}

	stats := Stats{
		IncorrectMedian: median(buckets["incorrect"]),
		PartialMedian:   median(buckets["partial"]),
		CorrectMedian:   median(buckets["correct"]),
	}
	stats.PartialQ3 = stats.PartialMedian
	if len(buckets["partial"]) > 0 {
		stats.PartialQ3 = upperQuartile(buckets["partial"])
	}

	partialMin := round1((stats.IncorrectMedian + stats.PartialMedian) / 2)
	correctMin := round1((math.Max(stats.PartialMedian, stats.PartialQ3) + stats.CorrectMedian) / 2)
	if correctMin-partialMin < minGap {
		correctMin = partialMin + minGap
	}
	// The exclusive quartile extrapolates past the largest score on small samples.
	// Near the top of the scale the cap wins over the gap.
	correctMin = math.Min(100, correctMin)

	return Suggestion{
		PartialMinSuggested: partialMin,
		CorrectMinSuggested: correctMin,
		Stats:               stats,
	}
}

func sorted(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// median returns 0 for an empty slice.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	d := sorted(xs)
	n := len(d)
	if n%2 == 1 {
		return d[n/2]
	}
	return (d[n/2-1] + d[n/2]) / 2
}

// upperQuartile computes the third quartile with the exclusive method
// (positions (n+1)p, linearly interpolated, clamped to the data).
func upperQuartile(xs []float64) float64 {
	d := sorted(xs)
	n := len(d)
	if n == 1 {
		return d[0]
	}

	const parts = 4
	const i = 3
	m := n + 1
	j := i * m / parts
	if j < 1 {
		j = 1
	}
	if j > n-1 {
		j = n - 1
	}
	delta := i*m - j*parts
	return (d[j-1]*float64(parts-delta) + d[j]*float64(delta)) / parts
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
