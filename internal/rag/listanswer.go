package rag

import (
	"regexp"
	"sort"
	"strings"

	"studyqa/internal/curated"
	"studyqa/internal/lexical"
	"studyqa/internal/storage"
)

const (
	maxListItems   = 7
	minListItemLen = 3
	maxListItemLen = 140
)

// listMarkerRe matches bullet, numbered and roman-numeral list lines. Roman
// numerals must be all lowercase or all uppercase.
var listMarkerRe = regexp.MustCompile(`^(?:[-*•●▪◦‣–]|\(?\d{1,2}[.)]|\(?(?:[ivx]{1,5}|[IVX]{1,5})[.)])\s+(.+)$`)

type listItem struct {
	text     string
	metadata *storage.Metadata
}

// extractListItems returns marker lines and ';'-separated inline list parts.
func extractListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := listMarkerRe.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
			continue
		}
		if !strings.Contains(line, ";") {
			continue
		}
		if i := strings.LastIndex(line, ":"); i >= 0 {
			line = line[i+1:]
		}
		parts := strings.Split(line, ";")
		if len(parts) < 2 {
			continue
		}
		items = append(items, parts...)
	}

	out := items[:0]
	for _, item := range items {
		item = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(item), ".;,"))
		if n := runeLen(item); n < minListItemLen || n > maxListItemLen {
			continue
		}
		out = append(out, item)
	}
	return out
}

// listAnswer composes a bulleted answer for enumeration questions. It returns
// an empty answer when no items can be found.
func listAnswer(query string, passages []lexical.Hit, maxChars int) (string, []Citation) {
	var items []listItem
	for i := range passages {
		meta := &passages[i].Metadata
		for _, text := range extractListItems(stripArtifacts(passages[i].Text)) {
			if IsInstructional(text) || isHeading(text) {
				continue
			}
			items = append(items, listItem{text: text, metadata: meta})
		}
	}
	if len(items) == 0 {
		fallback, ok := curated.FallbackList(query)
		if !ok {
			return "", nil
		}
		for _, text := range fallback {
			items = append(items, listItem{text: text})
		}
	}

	queryTerms := termSet(query)
	sort.SliceStable(items, func(i, j int) bool {
		return termOverlap(queryTerms, items[i].text) > termOverlap(queryTerms, items[j].text)
	})

	var chosen []listItem
	seen := make(map[string]struct{})
	length := 0
	for _, item := range items {
		if len(chosen) >= maxListItems {
			break
		}
		key := normalizeText(item.text)
		if _, dup := seen[key]; dup {
			continue
		}
		line := "• " + item.text
		added := runeLen(line)
		if len(chosen) > 0 {
			added++
		}
		if len(chosen) > 0 && length+added > maxChars {
			break
		}
		seen[key] = struct{}{}
		chosen = append(chosen, item)
		length += added
	}

	lines := make([]string, len(chosen))
	var cites citationSet
	for i, item := range chosen {
		lines[i] = "• " + item.text
		if item.metadata != nil {
			cites.add(*item.metadata)
		}
	}
	answer := strings.Join(lines, "\n")

	if tail := cites.tail(); tail != "" && runeLen(answer)+1+runeLen(tail) <= maxChars {
		answer += "\n" + tail
	}
	return answer, cites.list()
}
