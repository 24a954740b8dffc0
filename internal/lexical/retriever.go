package lexical

import (
	"fmt"
	"strings"
)

// Retriever selects the lexical scoring strategy for a query.
type Retriever int

const (
	// RetrieverAuto tries TF-IDF and falls back to BM25 when TF-IDF is unavailable.
	RetrieverAuto Retriever = iota
	// RetrieverTFIDF scores by cosine similarity in a TF-IDF vector space.
	RetrieverTFIDF
	// RetrieverBM25 scores with Okapi BM25.
	RetrieverBM25
)

// String returns the wire name of the retriever.
func (r Retriever) String() string {
	switch r {
	case RetrieverTFIDF:
		return "tfidf"
	case RetrieverBM25:
		return "bm25"
	default:
		return "auto"
	}
}

// ParseRetriever parses a retriever name. An empty name means auto.
func ParseRetriever(name string) (Retriever, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return RetrieverAuto, nil
	case "tfidf", "tf-idf":
		return RetrieverTFIDF, nil
	case "bm25":
		return RetrieverBM25, nil
	default:
		return RetrieverAuto, fmt.Errorf("unknown retriever %q", name)
	}
}

// Namespace returns the retrieval namespace for a subject and chapter,
// e.g. "Economics-ch3". Spaces become underscores; missing values default
// to "general" and "all".
func Namespace(subject, chapter string) string {
	s := strings.TrimSpace(subject)
	if s == "" {
		s = "general"
	}
	c := strings.TrimSpace(chapter)
	if c == "" {
		c = "all"
	}
	return strings.ReplaceAll(s, " ", "_") + "-ch" + strings.ReplaceAll(c, " ", "_")
}
