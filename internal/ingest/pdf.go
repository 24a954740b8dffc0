package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"studyqa/internal/contextutil"
)

var (
	controlSpaceRe  = regexp.MustCompile(`[\t\v\f]`)
	cidArtifactRe   = regexp.MustCompile(`\(cid:[^)]+\)`)
	brokenHyphenRe  = regexp.MustCompile(`(\w)-\s+(\w)`)
	spaceBeforePunc = regexp.MustCompile(`\s+([,.;:!?])`)
	anySpaceRe      = regexp.MustCompile(`\s+`)
)

// CleanText normalizes extracted page text: line endings, (cid:NN) glyph
// artifacts, hyphenation broken across lines ("de- industrialisation"),
// stray spaces before punctuation, and runs of whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlSpaceRe.ReplaceAllString(text, " ")
	text = cidArtifactRe.ReplaceAllString(text, " ")
	text = brokenHyphenRe.ReplaceAllString(text, "$1-$2")
	text = spaceBeforePunc.ReplaceAllString(text, "$1")
	text = anySpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractPDF returns the cleaned text of every page of a PDF, numbered from 1.
// Pages whose text cannot be read are kept with empty text so page numbers
// stay aligned with the document.
func ExtractPDF(ctx context.Context, path string) ([]Page, error) {
	logger := contextutil.LoggerFromContext(ctx)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := Page{Number: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			raw, err := p.GetPlainText(nil)
			if err != nil {
				logger.WarnContext(ctx, "failed to extract page text", "path", path, "page", i, "error", err)
			} else {
				page.Text = CleanText(raw)
			}
		}
		pages = append(pages, page)
	}

	logger.DebugContext(ctx, "extracted PDF", "path", path, "pages", total)
	return pages, nil
}
