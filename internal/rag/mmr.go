package rag

import (
	"sort"
	"strings"
	"unicode/utf8"

	"studyqa/internal/lexical"
)

// relevance converts a hit's distance into a score in [0,1]. Hits without a
// distance score by length, favoring longer passages slightly.
func relevance(h lexical.Hit) float64 {
	if h.Distance != nil {
		if r := 1 - *h.Distance; r > 0 {
			return r
		}
		return 0
	}
	return min(float64(utf8.RuneCountInString(h.Text))/1000, 1)
}

// jaccard is the word-level Jaccard similarity of two texts.
func jaccard(a, b string) float64 {
	as := wordSet(a)
	bs := wordSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	var inter int
	for w := range as {
		if _, ok := bs[w]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// SelectMMR greedily picks up to maxPassages hits, each maximizing
// lambda*relevance - (1-lambda)*max similarity to the hits already picked.
// The most relevant hit is always picked first.
func SelectMMR(hits []lexical.Hit, maxPassages int, lambda float64) []lexical.Hit {
	selected := []lexical.Hit{}
	if len(hits) == 0 {
		return selected
	}
	if maxPassages <= 0 {
		maxPassages = DefaultMaxPassages
	}

	candidates := make([]lexical.Hit, len(hits))
	copy(candidates, hits)
	sort.SliceStable(candidates, func(i, j int) bool {
		return relevance(candidates[i]) > relevance(candidates[j])
	})

	selected = append(selected, candidates[0])
	candidates = candidates[1:]

	for len(candidates) > 0 && len(selected) < maxPassages {
		best := 0
		bestScore := 0.0
		for i, c := range candidates {
			var maxSim float64
			for _, s := range selected {
				if sim := jaccard(c.Text, s.Text); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*relevance(c) - (1-lambda)*maxSim
			if i == 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		selected = append(selected, candidates[best])
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return selected
}
