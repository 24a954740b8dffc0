package lexical

import "math"

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Scores computes Okapi BM25 scores of query against every text.
func bm25Scores(texts []string, query []string) []float64 {
	scores := make([]float64, len(texts))
	if len(query) == 0 || len(texts) == 0 {
		return scores
	}

	docs := make([]map[string]int, len(texts))
	lengths := make([]float64, len(texts))
	var total float64
	for i, text := range texts {
		tokens := Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		docs[i] = tf
		lengths[i] = float64(len(tokens))
		if lengths[i] == 0 {
			lengths[i] = 1
		}
		total += lengths[i]
	}
	avgdl := total / float64(len(texts))
	n := float64(len(texts))

	idf := make(map[string]float64)
	for _, q := range query {
		if _, ok := idf[q]; ok {
			continue
		}
		var df float64
		for _, tf := range docs {
			if tf[q] > 0 {
				df++
			}
		}
		idf[q] = math.Log((n-df+0.5)/(df+0.5) + 1)
	}

	for i, tf := range docs {
		if len(tf) == 0 {
			continue
		}
		var score float64
		for _, q := range query {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			denom := f + bm25K1*(1-bm25B+bm25B*(lengths[i]/avgdl))
			score += idf[q] * (f * (bm25K1 + 1)) / denom
		}
		scores[i] = score
	}
	return scores
}
