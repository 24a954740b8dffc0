package rag

import (
	"fmt"
	"sort"
	"strings"

	"studyqa/internal/lexical"
	"studyqa/internal/storage"
)

const (
	longTailSlack        = 100
	maxSentenceLen       = 260
	nearDuplicateJaccard = 0.75
	earlyStopSentences   = 3
	earlyStopShare       = 0.6
)

// Synthesizer composes extractive answers from retrieved passages.
type Synthesizer struct {
	curated CuratedSource
}

// NewSynthesizer creates a synthesizer. curated may be nil to disable the
// curated short-circuit.
func NewSynthesizer(curated CuratedSource) *Synthesizer {
	return &Synthesizer{curated: curated}
}

type candidate struct {
	text     string
	metadata storage.Metadata
	score    float64
}

// Synthesize answers query from passages. A curated answer wins over the
// passages; enumeration questions are answered with bullets when the
// passages contain list items; otherwise the best sentences are joined
// within the character budget. The first chosen sentence may overrun it.
func (s *Synthesizer) Synthesize(query string, passages []lexical.Hit, opts SynthesisOptions) (string, []Citation) {
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	if s.curated != nil {
		if m, ok := s.curated.Match(query, opts.Subject, opts.Chapter); ok {
			if m.Pages == "" {
				return m.Answer, []Citation{}
			}
			return m.Answer + "\n[Sources: " + m.Pages + "]", []Citation{{PageHint: m.Pages}}
		}
	}

	if len(passages) == 0 {
		return NoPassagesAnswer, []Citation{}
	}

	if IsListQuestion(query) {
		if answer, cites := listAnswer(query, passages, maxChars); answer != "" {
			return answer, cites
		}
	}

	return generalAnswer(query, passages, maxChars, opts.FilterNoise)
}

func generalAnswer(query string, passages []lexical.Hit, maxChars int, filterNoise bool) (string, []Citation) {
	var candidates []candidate
	for _, p := range passages {
		for _, sentence := range splitSentences(stripArtifacts(p.Text)) {
			if isNoiseSentence(sentence, filterNoise) || runeLen(sentence) > maxSentenceLen {
				continue
			}
			candidates = append(candidates, candidate{text: sentence, metadata: p.Metadata})
		}
	}
	if len(candidates) == 0 {
		return NoAnswerFound, []Citation{}
	}

	queryTerms := termSet(query)
	definitional := definitionalRe.MatchString(strings.TrimSpace(query))
	for i := range candidates {
		candidates[i].score = sentenceScore(candidates[i].text, queryTerms, definitional)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var chosen []candidate
	length := 0
	for _, c := range candidates {
		n := runeLen(c.text)
		if len(chosen) > 0 && length+1+n > maxChars {
			break
		}
		if isNearDuplicate(c.text, chosen) {
			continue
		}
		if len(chosen) > 0 {
			length++
		}
		length += n
		chosen = append(chosen, c)
		if len(chosen) >= earlyStopSentences && float64(length) > float64(maxChars)*earlyStopShare {
			break
		}
	}

	var cites citationSet
	parts := make([]string, len(chosen))
	for i, c := range chosen {
		parts[i] = c.text
		cites.add(c.metadata)
	}
	answer := strings.TrimSpace(strings.Join(parts, " "))
	if answer == "" {
		return NoAnswerFound, []Citation{}
	}
	if tail := cites.tail(); tail != "" && runeLen(answer)+1+runeLen(tail) <= maxChars+longTailSlack {
		answer += " " + tail
	}
	return answer, cites.list()
}

func sentenceScore(sentence string, queryTerms map[string]struct{}, definitional bool) float64 {
	score := termOverlap(queryTerms, sentence)
	if strings.HasSuffix(sentence, ".") {
		score += 0.1
	}
	if definitional && copulaRe.MatchString(sentence) {
		score += 0.2
	}
	if motiveRe.MatchString(sentence) {
		score += 0.2
	}
	return score
}

func isNearDuplicate(text string, chosen []candidate) bool {
	norm := normalizeText(text)
	for _, c := range chosen {
		if normalizeText(c.text) == norm || jaccard(c.text, text) > nearDuplicateJaccard {
			return true
		}
	}
	return false
}

func termSet(text string) map[string]struct{} {
	tokens := lexical.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// termOverlap is the fraction of query terms present in text.
func termOverlap(queryTerms map[string]struct{}, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	present := termSet(text)
	var hits int
	for t := range queryTerms {
		if _, ok := present[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}

// citationSet collects citations deduplicated by page span and source.
type citationSet struct {
	items []Citation
	seen  map[Citation]struct{}
}

func (c *citationSet) add(m storage.Metadata) {
	cite := Citation{
		PageStart:  m.PageStart,
		PageEnd:    m.PageEnd,
		Filename:   m.Filename,
		SourcePath: m.SourcePath,
	}
	if c.seen == nil {
		c.seen = make(map[Citation]struct{})
	}
	if _, ok := c.seen[cite]; ok {
		return
	}
	c.seen[cite] = struct{}{}
	c.items = append(c.items, cite)
}

func (c *citationSet) list() []Citation {
	if c.items == nil {
		return []Citation{}
	}
	return c.items
}

// tail renders "[Sources: p12-13, p?]" or "" when there are no citations.
func (c *citationSet) tail() string {
	if len(c.items) == 0 {
		return ""
	}
	refs := make([]string, len(c.items))
	for i, cite := range c.items {
		if cite.PageStart > 0 && cite.PageEnd > 0 {
			refs[i] = fmt.Sprintf("p%d-%d", cite.PageStart, cite.PageEnd)
		} else {
			refs[i] = "p?"
		}
	}
	return "[Sources: " + strings.Join(refs, ", ") + "]"
}

// BuildAnswer selects passages from hits and synthesizes an answer from them.
func (s *Synthesizer) BuildAnswer(query string, hits []lexical.Hit, opts BuildOptions) Answer {
	maxPassages := opts.MaxPassages
	if maxPassages <= 0 {
		maxPassages = DefaultMaxPassages
	}
	lambda := opts.Lambda
	if lambda <= 0 {
		lambda = DefaultLambda
	}

	var selected []lexical.Hit
	if opts.MMR {
		selected = SelectMMR(hits, maxPassages, lambda)
	} else {
		selected = make([]lexical.Hit, 0, min(len(hits), maxPassages))
		selected = append(selected, hits[:min(len(hits), maxPassages)]...)
	}

	text, cites := s.Synthesize(query, selected, SynthesisOptions{
		MaxChars:    opts.MaxChars,
		FilterNoise: opts.FilterNoise,
		Subject:     opts.Subject,
		Chapter:     opts.Chapter,
	})
	return Answer{Answer: text, Citations: cites, Selected: selected}
}
