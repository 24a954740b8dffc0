package storage

// Metadata describes where a record's text came from.
type Metadata struct {
	Subject      string         `json:"subject,omitempty"`
	Chapter      string         `json:"chapter,omitempty"`
	PageStart    int            `json:"page_start,omitempty"`
	PageEnd      int            `json:"page_end,omitempty"`
	Filename     string         `json:"filename,omitempty"`
	SourcePath   string         `json:"source_path,omitempty"`
	ChunkIndex   int            `json:"chunk_index,omitempty"`
	ChunkSize    int            `json:"chunk_size,omitempty"`
	ChunkOverlap int            `json:"chunk_overlap,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Record is one chunk of chapter text stored in a namespace.
// Records are immutable once written and unique by ID within a namespace.
type Record struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Snapshot is a consistent view of a namespace: its records in insertion
// order and the revision they were read at.
type Snapshot struct {
	Namespace string
	Records   []Record
	// Revision is the unix-nanosecond timestamp of the namespace's last write.
	// It strictly increases with every write.
	Revision int64
}

// ModelBlob is a serialized vector-space model persisted for a namespace.
type ModelBlob struct {
	Namespace string
	Revision  int64
	DocCount  int
	Payload   []byte
}
