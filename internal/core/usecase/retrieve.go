package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayurparvani/assistant/internal/core/domain"
	"github.com/ayurparvani/assistant/internal/core/ports"
)

// Retriever embeds a query and delegates to the vector index. For a fixed
// index and pinned embedding model the result is deterministic: repeated
// calls with the same query and k return identical ordered chunk ids.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("empty query"))
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.index.Search(ctx, queryVector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return chunks, nil
}
