package curated

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// overlapThreshold is the share of candidate tokens that must appear in the
// question for a token-overlap match.
const overlapThreshold = 0.6

// Match is a curated answer selected for a question.
type Match struct {
	Answer string
	// Pages is a page hint such as "p15-16". Empty when the entry has none.
	Pages string
}

// Matcher looks up curated answers among the built-in entries and those
// loaded from an optional JSON file. The file is re-read whenever its
// modification time changes.
type Matcher struct {
	path    string
	builtin []Entry

	mu       sync.RWMutex
	external []Entry
	modTime  time.Time
	loaded   bool
}

// NewMatcher creates a matcher. path may be empty to use built-ins only.
func NewMatcher(path string) *Matcher {
	return &Matcher{
		path:    path,
		builtin: BuiltinEntries(),
	}
}

// Match returns the answer of the first entry matching the question. Subject
// and chapter filter entries that set them; empty values disable the filter.
func (m *Matcher) Match(question, subject, chapter string) (Match, bool) {
	qn := normalize(question)
	if qn == "" {
		return Match{}, false
	}
	qTokens := make(map[string]struct{})
	for _, t := range tokenize(qn) {
		qTokens[t] = struct{}{}
	}
	subj := strings.ToLower(strings.TrimSpace(subject))
	chap := strings.ToLower(strings.TrimSpace(chapter))

	for _, e := range m.Entries() {
		if subj != "" && e.Subject != "" && strings.ToLower(e.Subject) != subj {
			continue
		}
		if chap != "" && e.Chapter != "" && strings.ToLower(e.Chapter) != chap {
			continue
		}
		cand := normalize(e.Q)
		if cand == "" {
			continue
		}
		if matches(qn, qTokens, cand, e.Aliases) {
			return Match{Answer: strings.TrimSpace(e.A), Pages: e.Pages}, true
		}
	}
	return Match{}, false
}

func matches(qn string, qTokens map[string]struct{}, cand string, aliases []string) bool {
	if containsEither(qn, cand) {
		return true
	}
	for _, alias := range aliases {
		if an := normalize(alias); an != "" && containsEither(qn, an) {
			return true
		}
	}
	if overlap(tokenize(cand), qTokens) >= overlapThreshold {
		return true
	}
	for _, alias := range aliases {
		if overlap(tokenize(alias), qTokens) >= overlapThreshold {
			return true
		}
	}
	return false
}

func containsEither(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func overlap(tokens []string, qTokens map[string]struct{}) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var hits int
	for _, t := range tokens {
		if _, ok := qTokens[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)
)

func normalize(s string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

func tokenize(s string) []string {
	return strings.Fields(nonAlnumRe.ReplaceAllString(strings.ToLower(s), " "))
}

// Entries returns built-in entries followed by external ones, re-reading the
// external file first if it changed. A missing or malformed file yields no
// external entries.
func (m *Matcher) Entries() []Entry {
	if m.path != "" {
		if err := m.refresh(false); err != nil {
			slog.Warn("failed to load curated entries", "path", m.path, "error", err)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.builtin)+len(m.external))
	out = append(out, m.builtin...)
	out = append(out, m.external...)
	return out
}

// Count returns the number of entries in the combined pool.
func (m *Matcher) Count() int {
	return len(m.Entries())
}

// Reload re-reads the external file regardless of its modification time and
// returns the size of the combined pool.
func (m *Matcher) Reload() (int, error) {
	if m.path != "" {
		if err := m.refresh(true); err != nil {
			return len(m.builtin), err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.builtin) + len(m.external), nil
}

func (m *Matcher) refresh(force bool) error {
	info, err := os.Stat(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.store(nil, time.Time{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat curated file: %w", err)
	}

	m.mu.RLock()
	fresh := m.loaded && m.modTime.Equal(info.ModTime())
	m.mu.RUnlock()
	if fresh && !force {
		return nil
	}

	entries, err := loadFile(m.path)
	if err != nil {
		m.store(nil, info.ModTime())
		return err
	}
	m.store(entries, info.ModTime())
	return nil
}

func (m *Matcher) store(entries []Entry, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.external = entries
	m.modTime = modTime
	m.loaded = true
}

// loadFile reads {"entries": [...]} or a bare list. Entries without a
// question or an answer are dropped.
func loadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curated file: %w", err)
	}

	var entries []Entry
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &entries)
	} else {
		var wrapped struct {
			Entries []Entry `json:"entries"`
		}
		err = json.Unmarshal(data, &wrapped)
		entries = wrapped.Entries
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse curated file: %w", err)
	}

	out := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.Q) == "" || strings.TrimSpace(e.A) == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
