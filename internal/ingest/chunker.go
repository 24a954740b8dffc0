package ingest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"studyqa/internal/storage"
)

// ErrInvalidChunkSize is returned when the window size is not positive.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// pageSeparator is inserted between pages so words never join across a break.
const pageSeparator = "\n\n"

// window is a half-open rune range [start, end) of the joined text.
type window struct {
	start, end int
}

// slidingWindows splits n runes into windows of size runes where consecutive
// windows share overlap runes. An overlap outside [0, size) disables overlap.
func slidingWindows(n, size, overlap int) ([]window, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var out []window
	for i := 0; i < n; {
		end := min(i+size, n)
		out = append(out, window{start: i, end: end})
		if end == n {
			break
		}
		i = end - overlap
	}
	return out, nil
}

// ChunkPages joins pages and cuts the text into overlapping character windows.
// Each chunk records the first and last page it touches. Chunk IDs are derived
// from the source, window position and text, so re-ingesting the same file
// yields the same IDs. Whitespace-only windows are dropped.
func ChunkPages(pages []Page, opts ChunkOptions) ([]storage.Record, error) {
	var b strings.Builder
	// pageEnds[i] is the rune offset one past the end of pages[i]'s text.
	pageEnds := make([]int, len(pages))
	cursor := 0
	for i, p := range pages {
		b.WriteString(p.Text)
		cursor += len([]rune(p.Text))
		pageEnds[i] = cursor
		b.WriteString(pageSeparator)
		cursor += len(pageSeparator)
	}

	full := []rune(b.String())
	lead := 0
	for lead < len(full) && unicode.IsSpace(full[lead]) {
		lead++
	}
	tail := len(full)
	for tail > lead && unicode.IsSpace(full[tail-1]) {
		tail--
	}
	text := full[lead:tail]

	windows, err := slidingWindows(len(text), opts.Size, opts.Overlap)
	if err != nil {
		return nil, err
	}

	pageAt := func(offset int) int {
		offset += lead
		for i, end := range pageEnds {
			if offset < end {
				return pages[i].Number
			}
		}
		if len(pages) == 0 {
			return 1
		}
		return pages[len(pages)-1].Number
	}

	source := opts.SourcePath
	if source == "" {
		source = opts.Filename
	}

	records := make([]storage.Record, 0, len(windows))
	for _, w := range windows {
		s, e := w.start, w.end
		for s < e && unicode.IsSpace(text[s]) {
			s++
		}
		for e > s && unicode.IsSpace(text[e-1]) {
			e--
		}
		if s == e {
			continue
		}
		chunk := string(text[s:e])
		index := len(records) + 1
		start, end := pageAt(s), pageAt(e-1)
		records = append(records, storage.Record{
			ID:   chunkID(source, w.start, chunk),
			Text: chunk,
			Metadata: storage.Metadata{
				Subject:      opts.Subject,
				Chapter:      opts.Chapter,
				PageStart:    start,
				PageEnd:      end,
				Filename:     opts.Filename,
				SourcePath:   opts.SourcePath,
				ChunkIndex:   index,
				ChunkSize:    opts.Size,
				ChunkOverlap: opts.Overlap,
			},
		})
	}
	return records, nil
}

func chunkID(source string, offset int, text string) string {
	name := fmt.Sprintf("%s#%d#%s", source, offset, text)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
