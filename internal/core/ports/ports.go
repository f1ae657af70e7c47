package ports

import (
	"context"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

// Embedder builds vectors for chunk and query text. Both methods reject
// empty input, and Embed preserves input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex serves nearest-neighbour lookups over indexed chunks. The
// index is read-only during serving and safe for concurrent Search calls.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error)
}

// IndexWriter receives chunk/vector pairs during the offline build phase.
type IndexWriter interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
}

// AnswerGenerator performs a single blocking model call with a fully
// composed prompt. Retry policy lives with the caller, not here.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// TextExtractor pulls plain text out of a corpus file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// IngestLedger records per-document ingestion outcomes.
type IngestLedger interface {
	RecordStart(ctx context.Context, doc *domain.SourceDocument) error
	RecordResult(ctx context.Context, id string, status domain.IngestStatus, chunkCount int, errMessage string) error
}

// IndexNotifier announces a freshly persisted index artifact so serving
// processes can swap to it.
type IndexNotifier interface {
	PublishIndexRebuilt(ctx context.Context, path string) error
	SubscribeIndexRebuilt(ctx context.Context, handler func(context.Context, string) error) error
}

// AnswerService is the inbound contract the HTTP adapter invokes.
type AnswerService interface {
	Answer(ctx context.Context, question string, topK int) (*domain.AnswerResult, error)
}
