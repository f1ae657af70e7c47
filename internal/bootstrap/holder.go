package bootstrap

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ayurparvani/assistant/internal/core/domain"
	"github.com/ayurparvani/assistant/internal/infrastructure/vector/exact"
)

// indexHolder serves search against the most recently loaded index
// artifact. Swaps are atomic; in-flight searches keep the index they
// started with.
type indexHolder struct {
	current atomic.Pointer[exact.Index]
}

func (h *indexHolder) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	ix := h.current.Load()
	if ix == nil {
		return nil, domain.WrapError(domain.ErrTemporary, "search index", errors.New("no index loaded yet"))
	}
	return ix.Search(ctx, queryVector, k)
}

func (h *indexHolder) swap(ix *exact.Index) {
	h.current.Store(ix)
}

func (h *indexHolder) len() int {
	ix := h.current.Load()
	if ix == nil {
		return 0
	}
	return ix.Len()
}
