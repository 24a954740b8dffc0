package rag

import (
	"regexp"
	"sort"
	"strings"

	"studyqa/internal/lexical"
)

// Outline depths.
const (
	DepthBasic    = "basic"
	DepthStandard = "standard"
	DepthDeep     = "deep"
)

const (
	maxOverviewLen    = 160
	maxPointLen       = 160
	maxFormulaLen     = 140
	maxShortWords     = 24
	minLongWords      = 18
	maxLongWords      = 40
	outlineCitations  = 5
	emptyOverviewNote = "Outline will populate as content is indexed."
)

var (
	titleTermRe  = regexp.MustCompile(`[A-Z][a-zA-Z]{2,}(?:\s+[A-Z][a-zA-Z]{2,}){0,2}`)
	pointMarkRe  = regexp.MustCompile(`^(?:[-•*]\s+|\d+[.)]\s+)`)
	formulaSigRe = regexp.MustCompile(`[0-9%]`)
)

var termStopwords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "of": {}, "a": {}, "an": {}, "to": {},
	"in": {}, "for": {}, "on": {}, "by": {}, "with": {}, "as": {},
}

type outlineCaps struct {
	overview, terms, shorts, longs, formulae int
}

var depthCaps = map[string]outlineCaps{
	DepthBasic:    {overview: 3, terms: 5, shorts: 3, longs: 2, formulae: 2},
	DepthStandard: {overview: 5, terms: 8, shorts: 5, longs: 3, formulae: 4},
	DepthDeep:     {overview: 8, terms: 12, shorts: 8, longs: 5, formulae: 6},
}

// IsDepth reports whether depth names an outline depth.
func IsDepth(depth string) bool {
	_, ok := depthCaps[depth]
	return ok
}

// OutlineOptions controls outline construction.
type OutlineOptions struct {
	Subject string
	Chapter string
	// Topics drive the curated fallback points.
	Topics []string
	// Depth is basic, standard or deep. Unknown values use standard.
	Depth string
	// Required topics are checked against the outline for coverage gaps.
	Required []string
}

// OutlineSection is one titled group of study bullets.
type OutlineSection struct {
	ID          string     `json:"section_id"`
	Title       string     `json:"title"`
	Bullets     []string   `json:"bullets"`
	PageAnchors []int      `json:"page_anchors"`
	Citations   []Citation `json:"citations"`
}

// GlossaryEntry is a key term with the shortest definition seen for it.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// ReadingItem is a page to read.
type ReadingItem struct {
	Page     int    `json:"page"`
	Filename string `json:"filename,omitempty"`
}

// Coverage compares required topics with the outline text.
type Coverage struct {
	RequiredTopics []string `json:"required_topics"`
	Covered        []string `json:"covered"`
	Gaps           []string `json:"gaps"`
}

// Outline is an extractive study outline for a chapter.
type Outline struct {
	Sections    []OutlineSection `json:"outline"`
	Glossary    []GlossaryEntry  `json:"glossary"`
	ReadingList []ReadingItem    `json:"reading_list"`
	Coverage    Coverage         `json:"coverage"`
	Depth       string           `json:"depth"`
}

// Outline builds overview, key term, definition, explanation and formula
// sections from hits. Sparse overview and definition sections are topped up
// from curated answers for the requested topics.
func (s *Synthesizer) Outline(hits []lexical.Hit, opts OutlineOptions) Outline {
	depth := opts.Depth
	caps, ok := depthCaps[depth]
	if !ok {
		depth = DepthStandard
		caps = depthCaps[depth]
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = strings.TrimSpace(stripArtifacts(h.Text))
	}

	overview := overviewBullets(texts, caps.overview)
	if len(overview) < max(2, caps.overview/2) {
		overview = mergeUnique(overview, s.curatedPoints(opts, caps.overview), caps.overview)
	}
	if len(overview) == 0 {
		overview = []string{emptyOverviewNote}
	}

	citations := outlineCitationsFor(hits)
	anchors := make([]int, 0, len(citations))
	for _, c := range citations {
		if c.PageStart > 0 {
			anchors = append(anchors, c.PageStart)
		}
	}

	terms := keyTerms(texts, caps.terms)

	shorts := shortAnswers(texts, caps.shorts)
	if len(shorts) < max(1, caps.shorts/2) {
		shorts = mergeUnique(shorts, s.curatedPoints(opts, caps.shorts), caps.shorts)
	}

	section := func(id, title string, bullets []string) OutlineSection {
		if bullets == nil {
			bullets = []string{}
		}
		return OutlineSection{ID: id, Title: title, Bullets: bullets, PageAnchors: anchors, Citations: citations}
	}
	sections := []OutlineSection{
		section("overview", "Chapter "+opts.Chapter+" overview", overview),
		section("key-terms", "Key terms", terms),
		section("short-answers", "Short answers (definitions)", shorts),
		section("long-answers", "Long answers (explanations)", longAnswers(texts, caps.longs)),
		section("formulae", "Formulae", formulae(texts, caps.formulae)),
	}

	required := opts.Required
	if required == nil {
		required = []string{}
	}

	return Outline{
		Sections:    sections,
		Glossary:    glossary(texts, terms),
		ReadingList: readingList(sections),
		Coverage:    coverage(required, sections),
		Depth:       depth,
	}
}

// overviewBullets takes the first content sentence of each passage.
func overviewBullets(texts []string, limit int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		if len(out) >= limit {
			break
		}
		first := ""
		for _, sentence := range splitSentences(text) {
			if !IsInstructional(sentence) {
				first = sentence
				break
			}
		}
		if first == "" {
			continue
		}
		if runes := []rune(first); len(runes) >= maxOverviewLen {
			first = string(runes[:maxOverviewLen-3]) + "…"
		}
		if _, ok := seen[first]; ok {
			continue
		}
		seen[first] = struct{}{}
		out = append(out, first)
	}
	return out
}

// keyTerms ranks "Term: definition" heads and title-case phrases by
// frequency, shorter terms first on ties.
func keyTerms(texts []string, limit int) []string {
	var terms []string
	counts := make(map[string]int)
	add := func(term string, weight int) {
		key := strings.ToLower(term)
		if _, ok := counts[key]; !ok {
			terms = append(terms, term)
		}
		counts[key] += weight
	}

	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			head, _, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			head = strings.TrimSpace(head)
			words := strings.Fields(head)
			if len(words) < 2 || len(words) > 5 || !startsUpper(head) {
				continue
			}
			add(strings.Join(words, " "), 2)
		}
		for _, phrase := range titleTermRe.FindAllString(text, -1) {
			if hasTermStopword(phrase) {
				continue
			}
			add(whitespaceRe.ReplaceAllString(phrase, " "), 1)
		}
	}

	sort.SliceStable(terms, func(i, j int) bool {
		ci, cj := counts[strings.ToLower(terms[i])], counts[strings.ToLower(terms[j])]
		if ci != cj {
			return ci > cj
		}
		return runeLen(terms[i]) < runeLen(terms[j])
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func startsUpper(s string) bool {
	for _, r := range s {
		return r >= 'A' && r <= 'Z'
	}
	return false
}

func hasTermStopword(phrase string) bool {
	for _, w := range strings.Fields(phrase) {
		if _, ok := termStopwords[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}

// shortAnswers collects concise definitional sentences.
func shortAnswers(texts []string, limit int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, sentence := range splitSentences(text) {
			if len(strings.Fields(sentence)) > maxShortWords || !copulaRe.MatchString(sentence) {
				continue
			}
			if IsInstructional(sentence) {
				continue
			}
			cand := strings.TrimRight(whitespaceRe.ReplaceAllString(strings.TrimSpace(sentence), " "), ".;")
			if appendUnique(&out, seen, cand) && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// longAnswers collects explanatory sentences of moderate length.
func longAnswers(texts []string, limit int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, sentence := range splitSentences(text) {
			if n := len(strings.Fields(sentence)); n < minLongWords || n > maxLongWords {
				continue
			}
			if IsInstructional(sentence) {
				continue
			}
			cand := strings.TrimRight(strings.TrimSpace(sentence), ".;")
			if appendUnique(&out, seen, cand) && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// formulae collects short lines carrying an equation or a percentage.
func formulae(texts []string, limit int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || runeLen(line) > maxFormulaLen {
				continue
			}
			if !strings.ContainsAny(line, "=%") || !formulaSigRe.MatchString(line) {
				continue
			}
			if appendUnique(&out, seen, whitespaceRe.ReplaceAllString(line, " ")) && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// curatedPoints turns curated answers for the topics into short points:
// marker lines first, sentences when no marker line qualifies.
func (s *Synthesizer) curatedPoints(opts OutlineOptions, limit int) []string {
	if s.curated == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, topic := range opts.Topics {
		m, ok := s.curated.Match(topic, opts.Subject, opts.Chapter)
		if !ok {
			continue
		}
		for _, line := range strings.Split(m.Answer, "\n") {
			line = strings.TrimSpace(pointMarkRe.ReplaceAllString(strings.TrimSpace(line), ""))
			if n := runeLen(line); n < 3 || n > maxPointLen {
				continue
			}
			if appendUnique(&out, seen, line) && len(out) >= limit {
				return out
			}
		}
		if len(out) > 0 {
			continue
		}
		for _, sentence := range splitSentences(m.Answer) {
			if n := runeLen(sentence); n < 3 || n > maxPointLen {
				continue
			}
			if appendUnique(&out, seen, sentence) && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// appendUnique appends s unless its lowercase form was seen. It reports
// whether s was appended.
func appendUnique(out *[]string, seen map[string]struct{}, s string) bool {
	key := strings.ToLower(s)
	if key == "" {
		return false
	}
	if _, ok := seen[key]; ok {
		return false
	}
	seen[key] = struct{}{}
	*out = append(*out, s)
	return true
}

// mergeUnique appends extra items missing from base until limit is reached.
func mergeUnique(base, extra []string, limit int) []string {
	seen := make(map[string]struct{}, len(base))
	for _, b := range base {
		seen[strings.ToLower(b)] = struct{}{}
	}
	for _, e := range extra {
		if len(base) >= limit {
			break
		}
		appendUnique(&base, seen, e)
	}
	return base
}

// outlineCitationsFor cites up to five distinct page spans from the leading hits.
func outlineCitationsFor(hits []lexical.Hit) []Citation {
	type key struct {
		start, end int
		filename   string
	}
	out := []Citation{}
	seen := make(map[key]struct{})
	for i, h := range hits {
		if i >= outlineCitations*2 || len(out) >= outlineCitations {
			break
		}
		m := h.Metadata
		k := key{m.PageStart, m.PageEnd, m.Filename}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Citation{
			PageStart:  m.PageStart,
			PageEnd:    m.PageEnd,
			Filename:   m.Filename,
			SourcePath: m.SourcePath,
		})
	}
	return out
}

// glossary pairs each key term with the shortest "Term: definition" body.
func glossary(texts []string, terms []string) []GlossaryEntry {
	wanted := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		wanted[strings.ToLower(t)] = struct{}{}
	}
	defs := make(map[string]string)
	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			head, body, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(head))
			if _, ok := wanted[key]; !ok {
				continue
			}
			body = strings.TrimSpace(body)
			if prev, ok := defs[key]; !ok || runeLen(body) < runeLen(prev) {
				defs[key] = body
			}
		}
	}

	out := make([]GlossaryEntry, 0, len(terms))
	for _, t := range terms {
		out = append(out, GlossaryEntry{Term: t, Definition: defs[strings.ToLower(t)]})
	}
	return out
}

// readingList lists distinct cited pages in page order.
func readingList(sections []OutlineSection) []ReadingItem {
	out := []ReadingItem{}
	seen := make(map[ReadingItem]struct{})
	for _, sec := range sections {
		for _, c := range sec.Citations {
			if c.PageStart <= 0 {
				continue
			}
			item := ReadingItem{Page: c.PageStart, Filename: c.Filename}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}

// coverage marks a required topic covered when it appears, case-insensitively,
// in a section title or bullet.
func coverage(required []string, sections []OutlineSection) Coverage {
	var corpus []string
	for _, sec := range sections {
		corpus = append(corpus, strings.ToLower(sec.Title))
		for _, b := range sec.Bullets {
			corpus = append(corpus, strings.ToLower(b))
		}
	}

	if required == nil {
		required = []string{}
	}
	cov := Coverage{RequiredTopics: required, Covered: []string{}, Gaps: []string{}}
	for _, topic := range required {
		key := strings.ToLower(topic)
		found := false
		for _, text := range corpus {
			if strings.Contains(text, key) {
				found = true
				break
			}
		}
		if found {
			cov.Covered = append(cov.Covered, topic)
		} else {
			cov.Gaps = append(cov.Gaps, topic)
		}
	}
	return cov
}
