package rag

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"studyqa/internal/curated"
	"studyqa/internal/lexical"
	"studyqa/internal/storage"
)

func TestOutline_Sections(t *testing.T) {
	hits := []lexical.Hit{
		{Text: "Goodwill is the value of the reputation of a firm.", Metadata: storage.Metadata{PageStart: 7, PageEnd: 8, Filename: "b.pdf"}},
		{Text: "Partners share profits in the agreed ratio.", Metadata: storage.Metadata{PageStart: 2, PageEnd: 2, Filename: "a.pdf"}},
		{Text: "Goodwill is valued on average profits.", Metadata: storage.Metadata{PageStart: 7, PageEnd: 8, Filename: "b.pdf"}},
	}

	out := NewSynthesizer(nil).Outline(hits, OutlineOptions{
		Chapter:  "3",
		Required: []string{"overview", "Goodwill", "revaluation"},
	})

	var ids []string
	for _, sec := range out.Sections {
		ids = append(ids, sec.ID)
		if sec.Bullets == nil {
			t.Errorf("section %s has nil bullets", sec.ID)
		}
	}
	if want := []string{"overview", "key-terms", "short-answers", "long-answers", "formulae"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("section ids = %v, want %v", ids, want)
	}

	overview := out.Sections[0]
	if overview.Title != "Chapter 3 overview" {
		t.Errorf("overview title = %q", overview.Title)
	}
	if len(overview.Bullets) != 3 || overview.Bullets[0] != "Goodwill is the value of the reputation of a firm." {
		t.Errorf("overview bullets = %q", overview.Bullets)
	}
	if len(overview.Citations) != 2 {
		t.Errorf("citations = %+v, want 2 distinct spans", overview.Citations)
	}
	if want := []int{7, 2}; !reflect.DeepEqual(overview.PageAnchors, want) {
		t.Errorf("page anchors = %v, want %v", overview.PageAnchors, want)
	}

	if want := []ReadingItem{{Page: 2, Filename: "a.pdf"}, {Page: 7, Filename: "b.pdf"}}; !reflect.DeepEqual(out.ReadingList, want) {
		t.Errorf("reading list = %+v, want %+v", out.ReadingList, want)
	}
	if want := []string{"overview", "Goodwill"}; !reflect.DeepEqual(out.Coverage.Covered, want) {
		t.Errorf("covered = %v, want %v", out.Coverage.Covered, want)
	}
	if want := []string{"revaluation"}; !reflect.DeepEqual(out.Coverage.Gaps, want) {
		t.Errorf("gaps = %v, want %v", out.Coverage.Gaps, want)
	}
	if out.Depth != DepthStandard {
		t.Errorf("depth = %q, want %q", out.Depth, DepthStandard)
	}
}

func TestOutline_DepthCaps(t *testing.T) {
	var hits []lexical.Hit
	for i := 0; i < 10; i++ {
		hits = append(hits, lexical.Hit{Text: fmt.Sprintf("Topic number %d explains a separate idea.", i)})
	}

	tests := []struct {
		depth     string
		wantDepth string
		want      int
	}{
		{depth: DepthBasic, wantDepth: DepthBasic, want: 3},
		{depth: DepthStandard, wantDepth: DepthStandard, want: 5},
		{depth: DepthDeep, wantDepth: DepthDeep, want: 8},
		{depth: "unknown", wantDepth: DepthStandard, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.depth, func(t *testing.T) {
			out := NewSynthesizer(nil).Outline(hits, OutlineOptions{Depth: tt.depth})
			if out.Depth != tt.wantDepth {
				t.Errorf("depth = %q, want %q", out.Depth, tt.wantDepth)
			}
			if got := len(out.Sections[0].Bullets); got != tt.want {
				t.Errorf("overview has %d bullets, want %d", got, tt.want)
			}
		})
	}
}

func TestOutline_CuratedTopUp(t *testing.T) {
	s := NewSynthesizer(curated.NewMatcher(""))

	out := s.Outline(nil, OutlineOptions{
		Subject: "Economics",
		Chapter: "3",
		Topics:  []string{"modes of payment to a retiring partner"},
	})

	overview := out.Sections[0].Bullets
	if len(overview) < 2 {
		t.Fatalf("overview = %q, want curated points", overview)
	}
	if overview[0] != "Exam-ready: Modes of payment to a retiring partner" {
		t.Errorf("first point = %q", overview[0])
	}
	if !strings.HasPrefix(overview[1], "Lump-sum settlement in cash/bank") {
		t.Errorf("second point = %q, want marker stripped", overview[1])
	}
	if shorts := out.Sections[2].Bullets; len(shorts) == 0 {
		t.Errorf("short answers empty, want curated points")
	}
}

func TestOutline_Empty(t *testing.T) {
	out := NewSynthesizer(nil).Outline(nil, OutlineOptions{Required: []string{"goodwill"}})

	if want := []string{emptyOverviewNote}; !reflect.DeepEqual(out.Sections[0].Bullets, want) {
		t.Errorf("overview = %q, want %q", out.Sections[0].Bullets, want)
	}
	if len(out.ReadingList) != 0 || out.ReadingList == nil {
		t.Errorf("reading list = %v, want empty", out.ReadingList)
	}
	if !reflect.DeepEqual(out.Coverage.Gaps, []string{"goodwill"}) {
		t.Errorf("gaps = %v, want [goodwill]", out.Coverage.Gaps)
	}
}

func TestKeyTermsAndGlossary(t *testing.T) {
	texts := []string{"Opportunity Cost: the value of the next best alternative.\nOpportunity Cost matters. Scarcity drives choice."}

	terms := keyTerms(texts, 8)
	if want := []string{"Opportunity Cost", "Scarcity"}; !reflect.DeepEqual(terms, want) {
		t.Fatalf("keyTerms() = %q, want %q", terms, want)
	}

	got := glossary(texts, terms)
	want := []GlossaryEntry{
		{Term: "Opportunity Cost", Definition: "the value of the next best alternative."},
		{Term: "Scarcity", Definition: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("glossary() = %+v, want %+v", got, want)
	}

	if got := keyTerms([]string{"The Indian Partnership deed."}, 8); len(got) != 0 {
		t.Errorf("keyTerms() = %q, want phrases with stopwords dropped", got)
	}
}

func TestSentenceSections(t *testing.T) {
	long := "On retirement the remaining partners compensate the outgoing partner for his share of goodwill, reserves and accumulated profits in their gaining ratio through the capital accounts."
	texts := []string{
		"Demand is the quantity buyers want at a price. Prices rise when supply falls.\nWhat is demand?\n" + long,
	}

	if got, want := shortAnswers(texts, 5), []string{"Demand is the quantity buyers want at a price"}; !reflect.DeepEqual(got, want) {
		t.Errorf("shortAnswers() = %q, want %q", got, want)
	}
	if got, want := longAnswers(texts, 3), []string{strings.TrimSuffix(long, ".")}; !reflect.DeepEqual(got, want) {
		t.Errorf("longAnswers() = %q, want %q", got, want)
	}
}

func TestFormulae(t *testing.T) {
	texts := []string{"Interest = Principal × 6 / 100\nGrowth was 5% last year\nNo numbers = here\nplain text\nInterest   =  Principal × 6 / 100"}

	got := formulae(texts, 4)
	want := []string{"Interest = Principal × 6 / 100", "Growth was 5% last year"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("formulae() = %q, want %q", got, want)
	}
}

func TestOverviewBullets(t *testing.T) {
	long := strings.Repeat("word ", 50) + "end."
	texts := []string{
		"Work these out: list the causes.",
		long,
		"Short first sentence. Second sentence.",
		"Short first sentence.",
	}

	got := overviewBullets(texts, 5)
	if len(got) != 2 {
		t.Fatalf("overviewBullets() = %q, want 2 bullets", got)
	}
	if runeLen(got[0]) != maxOverviewLen-2 || !strings.HasSuffix(got[0], "…") {
		t.Errorf("long bullet = %q, want truncated with ellipsis", got[0])
	}
	if got[1] != "Short first sentence." {
		t.Errorf("bullet = %q", got[1])
	}
}
