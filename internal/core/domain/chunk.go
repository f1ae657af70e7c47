package domain

import "time"

// Chunk is the unit of retrieval: a bounded span of corpus text plus its
// origin metadata. Chunks are immutable once indexed.
type Chunk struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievedChunk pairs a chunk with its similarity to the query vector.
type RetrievedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// AnswerResult is the terminal output of the answer pipeline. Grounded is
// false when the fallback path produced the text, in which case UsedChunks
// is empty.
type AnswerResult struct {
	Text       string           `json:"text"`
	Grounded   bool             `json:"grounded"`
	UsedChunks []string         `json:"used_chunks"`
	Sources    []RetrievedChunk `json:"sources,omitempty"`
}

type IngestStatus string

const (
	StatusProcessing IngestStatus = "processing"
	StatusReady      IngestStatus = "ready"
	StatusFailed     IngestStatus = "failed"
)

// SourceDocument is one corpus file tracked by the ingest ledger.
type SourceDocument struct {
	ID         string       `json:"id"`
	Path       string       `json:"path"`
	MimeType   string       `json:"mime_type"`
	ChunkCount int          `json:"chunk_count"`
	Status     IngestStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
