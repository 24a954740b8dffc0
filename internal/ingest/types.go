package ingest

// Default chunking window, in characters (roughly 4 characters per token).
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
)

// Page is the extracted text of one page of a source document.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// ChunkOptions controls ChunkPages. The subject, chapter and file fields are
// copied into every chunk's metadata for later citation.
type ChunkOptions struct {
	Size       int
	Overlap    int
	Subject    string
	Chapter    string
	Filename   string
	SourcePath string
}

// DefaultChunkOptions returns options with the default window.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}
