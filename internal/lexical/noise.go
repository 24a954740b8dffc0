package lexical

import "regexp"

// NoisePenalty multiplies the score of exercise-like records.
const NoisePenalty = 0.2

var exerciseRe = regexp.MustCompile(`(?i)(exercise|suggested\s+additional\s+activities|work\s+(these|this)\s+out|short\s+answer|fill\s+in|choose\s+the\s+correct|objective\s+type|match\s+the|give\s+reasons|identify\s+the\s+major|prepare\s+a\s+list|compare\s+it\s+with|on\s+a\s+map\s+of\s+india)`)

// IsExerciseText reports whether text looks like an exercise or instructional
// block rather than explanatory content.
func IsExerciseText(text string) bool {
	return exerciseRe.MatchString(text)
}

func noiseWeights(records []string) []float64 {
	weights := make([]float64, len(records))
	for i, text := range records {
		weights[i] = 1
		if IsExerciseText(text) {
			weights[i] = NoisePenalty
		}
	}
	return weights
}
