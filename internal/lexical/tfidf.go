package lexical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary size.
const DefaultMaxFeatures = 4096

// ErrTFIDFUnavailable is returned by Fit when the corpus cannot support a
// TF-IDF space. Callers fall back to BM25.
var ErrTFIDFUnavailable = errors.New("tfidf unavailable")

// Vectorizer fits TF-IDF models over unigrams and bigrams.
type Vectorizer struct {
	stopwords   map[string]struct{}
	maxFeatures int
	key         string
}

// NewVectorizer creates a vectorizer using English stopwords plus extra words.
func NewVectorizer(extraStopwords []string, maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	stopwords := StopwordSet(extraStopwords)
	return &Vectorizer{
		stopwords:   stopwords,
		maxFeatures: maxFeatures,
		key:         analyzerKey(stopwords, maxFeatures),
	}
}

// analyzerKey fingerprints the analyzer settings so that a persisted model
// built with different settings is not reused.
func analyzerKey(stopwords map[string]struct{}, maxFeatures int) string {
	words := make([]string, 0, len(stopwords))
	for w := range stopwords {
		words = append(words, w)
	}
	sort.Strings(words)
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(maxFeatures)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(words, "\n")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Entry is a non-zero weight in a sparse document vector.
type Entry struct {
	Col    int     `json:"c"`
	Weight float64 `json:"w"`
}

// Model is a fitted TF-IDF term-document matrix with l2-normalized rows.
type Model struct {
	AnalyzerKey string         `json:"analyzer_key"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Rows        [][]Entry      `json:"rows"`
}

// Fit builds a model over texts. It returns ErrTFIDFUnavailable when fewer
// than two texts are non-empty or when the resulting vocabulary is empty.
func (v *Vectorizer) Fit(texts []string) (*Model, error) {
	if nonEmpty(texts) < 2 {
		return nil, fmt.Errorf("%w: fewer than 2 non-empty documents", ErrTFIDFUnavailable)
	}

	docTerms := make([][]string, len(texts))
	totals := make(map[string]int)
	for i, text := range texts {
		terms := analyze(text, v.stopwords)
		docTerms[i] = terms
		for _, t := range terms {
			totals[t]++
		}
	}
	if len(totals) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrTFIDFUnavailable)
	}

	vocab := selectFeatures(totals, v.maxFeatures)

	df := make([]int, len(vocab))
	counts := make([]map[int]int, len(texts))
	for i, terms := range docTerms {
		c := make(map[int]int)
		for _, t := range terms {
			if col, ok := vocab[t]; ok {
				c[col]++
			}
		}
		for col := range c {
			df[col]++
		}
		counts[i] = c
	}

	n := float64(len(texts))
	idf := make([]float64, len(vocab))
	for col, d := range df {
		idf[col] = math.Log((1+n)/(1+float64(d))) + 1
	}

	rows := make([][]Entry, len(texts))
	for i, c := range counts {
		rows[i] = weighRow(c, idf)
	}

	return &Model{
		AnalyzerKey: v.key,
		Vocabulary:  vocab,
		IDF:         idf,
		Rows:        rows,
	}, nil
}

// Similarities returns the cosine similarity between the query and every document.
func (v *Vectorizer) Similarities(m *Model, query string) []float64 {
	sims := make([]float64, len(m.Rows))

	c := make(map[int]int)
	for _, t := range analyze(query, v.stopwords) {
		if col, ok := m.Vocabulary[t]; ok {
			c[col]++
		}
	}
	if len(c) == 0 {
		return sims
	}
	q := weighRow(c, m.IDF)
	qv := make(map[int]float64, len(q))
	for _, e := range q {
		qv[e.Col] = e.Weight
	}

	for i, row := range m.Rows {
		var dot float64
		for _, e := range row {
			dot += e.Weight * qv[e.Col]
		}
		sims[i] = dot
	}
	return sims
}

// Compatible reports whether m was fitted with this vectorizer's settings.
func (v *Vectorizer) Compatible(m *Model) bool {
	return m != nil && m.AnalyzerKey == v.key
}

// EncodeModel serializes a model for persistence.
func EncodeModel(m *Model) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeModel restores a persisted model.
func DecodeModel(payload []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(m.Vocabulary) != len(m.IDF) {
		return nil, fmt.Errorf("failed to decode model: vocabulary size %d does not match idf size %d", len(m.Vocabulary), len(m.IDF))
	}
	return &m, nil
}

// selectFeatures keeps the maxFeatures most frequent terms (ties broken
// alphabetically) and assigns columns in alphabetical order.
func selectFeatures(totals map[string]int, maxFeatures int) map[string]int {
	terms := make([]string, 0, len(totals))
	for t := range totals {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if len(terms) > maxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return totals[terms[i]] > totals[terms[j]]
		})
		terms = terms[:maxFeatures]
		sort.Strings(terms)
	}

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// weighRow turns raw term counts into an l2-normalized tf-idf row.
func weighRow(counts map[int]int, idf []float64) []Entry {
	row := make([]Entry, 0, len(counts))
	var norm float64
	for col, n := range counts {
		w := float64(n) * idf[col]
		row = append(row, Entry{Col: col, Weight: w})
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row {
			row[i].Weight /= norm
		}
	}
	sort.Slice(row, func(i, j int) bool { return row[i].Col < row[j].Col })
	return row
}

func nonEmpty(texts []string) int {
	var n int
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	return n
}
