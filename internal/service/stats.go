package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"studyqa/internal/storage"
)

// charsPerToken approximates token counts from character counts.
const charsPerToken = 4.0

// LengthStats summarizes a distribution of chunk lengths.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// NamespaceStats describes the records stored for one namespace.
type NamespaceStats struct {
	Namespace string `json:"namespace"`
	Records   int    `json:"records"`
	// Pages counts distinct pages covered by record page spans.
	Pages int      `json:"pages"`
	Files []string `json:"files"`
	// ChunkChars is measured in runes. ChunkTokens approximates tokens at
	// four characters each.
	ChunkChars  LengthStats `json:"chunk_chars"`
	ChunkTokens LengthStats `json:"chunk_tokens"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// StatsResponse is the result of Stats.
type StatsResponse struct {
	Namespaces []NamespaceStats `json:"namespaces"`
	Records    int              `json:"records"`
}

// Stats reports record and chunk-size statistics for one namespace, or for
// every namespace when namespace is empty.
func (s *studyService) Stats(ctx context.Context, namespace string) (StatsResponse, error) {
	if s.catalog == nil {
		return StatsResponse{}, fmt.Errorf("%w: record catalog is not configured", ErrExternalService)
	}

	names := []string{namespace}
	if namespace == "" {
		all, err := s.catalog.Namespaces(ctx)
		if err != nil {
			return StatsResponse{}, WrapError(err, "failed to list namespaces")
		}
		names = all
	}

	resp := StatsResponse{Namespaces: make([]NamespaceStats, 0, len(names))}
	for _, name := range names {
		snap, err := s.catalog.Snapshot(ctx, name)
		if err != nil {
			return StatsResponse{}, WrapError(err, "failed to read namespace")
		}
		if namespace != "" && snap.Revision == 0 {
			return StatsResponse{}, fmt.Errorf("%w: namespace %s", ErrNotFound, namespace)
		}
		ns := namespaceStats(snap)
		resp.Records += ns.Records
		resp.Namespaces = append(resp.Namespaces, ns)
	}
	return resp, nil
}

func namespaceStats(snap storage.Snapshot) NamespaceStats {
	out := NamespaceStats{
		Namespace: snap.Namespace,
		Records:   len(snap.Records),
		Files:     []string{},
	}
	if snap.Revision > 0 {
		t := time.Unix(0, snap.Revision).UTC()
		out.UpdatedAt = &t
	}

	pages := make(map[int]struct{})
	files := make(map[string]struct{})
	chars := make([]int, 0, len(snap.Records))
	tokens := make([]int, 0, len(snap.Records))
	for _, rec := range snap.Records {
		n := utf8.RuneCountInString(rec.Text)
		chars = append(chars, n)
		tokens = append(tokens, int(math.Ceil(float64(n)/charsPerToken)))

		if m := rec.Metadata; m.PageStart > 0 {
			end := max(m.PageEnd, m.PageStart)
			for p := m.PageStart; p <= end; p++ {
				pages[p] = struct{}{}
			}
		}
		if f := rec.Metadata.Filename; f != "" {
			files[f] = struct{}{}
		}
	}

	out.Pages = len(pages)
	for f := range files {
		out.Files = append(out.Files, f)
	}
	sort.Strings(out.Files)
	out.ChunkChars = computeLengthStats(chars)
	out.ChunkTokens = computeLengthStats(tokens)
	return out
}

// computeLengthStats computes min, max, mean and p95 from lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = min(max(p95Index, 0), len(sorted)-1)

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
