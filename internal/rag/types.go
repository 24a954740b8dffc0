package rag

import (
	"studyqa/internal/curated"
	"studyqa/internal/lexical"
)

const (
	// DefaultMaxChars is the answer character budget when none is given.
	DefaultMaxChars = 900
	// DefaultMaxPassages is the number of passages synthesized from when none is given.
	DefaultMaxPassages = 5
	// DefaultLambda weighs relevance against redundancy in MMR selection.
	DefaultLambda = 0.7
)

// Fixed answers for degenerate inputs.
const (
	NoPassagesAnswer = "No supporting passages found for this question."
	NoAnswerFound    = "No direct answer found in retrieved passages."
)

// Citation identifies the source of an answer.
type Citation struct {
	// PageStart is the first page of the cited passage. Zero when unknown.
	PageStart int `json:"page_start,omitempty"`
	// PageEnd is the last page of the cited passage. Zero when unknown.
	PageEnd    int    `json:"page_end,omitempty"`
	Filename   string `json:"filename,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
	// PageHint is a free-form page reference carried by curated answers.
	PageHint string `json:"page_hint,omitempty"`
}

// SynthesisOptions controls answer composition.
type SynthesisOptions struct {
	// MaxChars is the answer body budget. Defaults to DefaultMaxChars.
	MaxChars int
	// FilterNoise drops question-like and exercise-like sentences.
	FilterNoise bool
	// Subject and Chapter scope the curated lookup.
	Subject string
	Chapter string
}

// BuildOptions controls passage selection followed by synthesis.
type BuildOptions struct {
	// MMR selects passages by maximal marginal relevance; otherwise the
	// first MaxPassages hits are used.
	MMR         bool
	MaxPassages int
	// Lambda overrides DefaultLambda when positive.
	Lambda      float64
	MaxChars    int
	FilterNoise bool
	Subject     string
	Chapter     string
}

// Answer is a synthesized answer together with the passages it came from.
type Answer struct {
	Answer    string        `json:"answer"`
	Citations []Citation    `json:"citations"`
	Selected  []lexical.Hit `json:"selected"`
}

// CuratedSource looks up hand-authored answers.
type CuratedSource interface {
	Match(question, subject, chapter string) (curated.Match, bool)
}
