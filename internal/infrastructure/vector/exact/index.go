// Package exact is the brute-force cosine-similarity index used for
// small-to-medium corpora. Every query scans all vectors; ranking uses
// plain cosine similarity (vectors are stored as given, not pre-normalized),
// with ties broken by ascending chunk id so results are stable.
package exact

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

const MetricCosine = "cosine"

type Index struct {
	model     string
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float32
	norms     []float64
}

// Build validates and assembles an index from parallel chunk/vector
// slices. The returned index is immutable; rebuilds produce a new value.
func Build(model string, chunks []domain.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyCorpus, "build index", errors.New("no chunks"))
	}
	if len(chunks) != len(vectors) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build index",
			fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)))
	}

	dimension := len(vectors[0])
	if dimension == 0 {
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "build index", errors.New("zero-length vector"))
	}

	seen := make(map[string]struct{}, len(chunks))
	norms := make([]float64, len(vectors))
	for i, chunk := range chunks {
		if chunk.ID == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index",
				fmt.Errorf("chunk %d has empty id", i))
		}
		if _, dup := seen[chunk.ID]; dup {
			return nil, domain.WrapError(domain.ErrDuplicateID, "build index",
				fmt.Errorf("chunk id %q indexed twice", chunk.ID))
		}
		seen[chunk.ID] = struct{}{}

		if len(vectors[i]) != dimension {
			return nil, domain.WrapError(domain.ErrDimensionMismatch, "build index",
				fmt.Errorf("chunk %q has dimension %d, index has %d", chunk.ID, len(vectors[i]), dimension))
		}
		norms[i] = norm(vectors[i])
	}

	return &Index{
		model:     model,
		dimension: dimension,
		chunks:    chunks,
		vectors:   vectors,
		norms:     norms,
	}, nil
}

func (ix *Index) Dimension() int { return ix.dimension }

func (ix *Index) Len() int { return len(ix.chunks) }

func (ix *Index) Model() string { return ix.model }

// Search returns up to k chunks ordered by descending cosine similarity,
// ties broken by ascending chunk id. Fewer than k indexed chunks means all
// of them come back, still ordered.
func (ix *Index) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search index", fmt.Errorf("k must be positive, got %d", k))
	}
	if len(queryVector) != ix.dimension {
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "search index",
			fmt.Errorf("query has dimension %d, index has %d", len(queryVector), ix.dimension))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryNorm := norm(queryVector)
	results := make([]domain.RetrievedChunk, 0, len(ix.chunks))
	for i := range ix.chunks {
		results = append(results, domain.RetrievedChunk{
			Chunk: ix.chunks[i],
			Score: cosine(queryVector, ix.vectors[i], queryNorm, ix.norms[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
