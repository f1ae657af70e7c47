package exact

import (
	"context"
	"math"
	"testing"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

func testChunks() ([]domain.Chunk, [][]float32) {
	chunks := []domain.Chunk{
		{ID: "doc#0000", Text: "Vata governs movement"},
		{ID: "doc#0001", Text: "Pitta governs metabolism"},
		{ID: "doc#0002", Text: "Kapha governs structure"},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return chunks, vectors
}

func TestBuildRejectsEmptyCorpus(t *testing.T) {
	_, err := Build("m", nil, nil)
	if !domain.IsKind(err, domain.ErrEmptyCorpus) {
		t.Fatalf("Build() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a", Text: "x"}, {ID: "a", Text: "y"}}
	vectors := [][]float32{{1, 0}, {0, 1}}
	_, err := Build("m", chunks, vectors)
	if !domain.IsKind(err, domain.ErrDuplicateID) {
		t.Fatalf("Build() error = %v, want ErrDuplicateID", err)
	}
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}
	vectors := [][]float32{{1, 0}, {0, 1, 0}}
	_, err := Build("m", chunks, vectors)
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Build() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchRanksIdenticalVectorFirst(t *testing.T) {
	chunks, vectors := testChunks()
	ix, err := Build("m", chunks, vectors)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results, err := ix.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].Chunk.ID != "doc#0000" {
		t.Fatalf("top result = %s, want doc#0000", results[0].Chunk.ID)
	}
	if math.Abs(results[0].Score-1.0) > 1e-9 {
		t.Fatalf("identical vector score = %f, want 1.0", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not in descending score order: %v", results)
		}
	}
}

func TestSearchReturnsAtMostKAndAllWhenFewer(t *testing.T) {
	chunks, vectors := testChunks()
	ix, _ := Build("m", chunks, vectors)

	results, err := ix.Search(context.Background(), []float32{1, 1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	results, err = ix.Search(context.Background(), []float32{1, 1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want all 3", len(results))
	}
}

func TestSearchRejectsInvalidK(t *testing.T) {
	chunks, vectors := testChunks()
	ix, _ := Build("m", chunks, vectors)

	_, err := ix.Search(context.Background(), []float32{1, 0, 0}, 0)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Search(k=0) error = %v, want ErrInvalidInput", err)
	}
}

func TestSearchRejectsQueryDimensionMismatch(t *testing.T) {
	chunks, vectors := testChunks()
	ix, _ := Build("m", chunks, vectors)

	_, err := ix.Search(context.Background(), []float32{1, 0}, 2)
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Search() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	chunks, vectors := testChunks()
	ix, _ := Build("m", chunks, vectors)
	query := []float32{0.5, 0.5, 0.1}

	first, err := ix.Search(context.Background(), query, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := ix.Search(context.Background(), query, 3)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		for i := range first {
			if again[i].Chunk.ID != first[i].Chunk.ID || again[i].Score != first[i].Score {
				t.Fatalf("run %d diverged at %d: %v vs %v", run, i, again[i], first[i])
			}
		}
	}
}

func TestSearchBreaksTiesByAscendingID(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "b", Text: "second"},
		{ID: "a", Text: "first"},
	}
	vectors := [][]float32{
		{1, 0},
		{1, 0},
	}
	ix, err := Build("m", chunks, vectors)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results, err := ix.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].Chunk.ID != "a" || results[1].Chunk.ID != "b" {
		t.Fatalf("tie not broken by id: %s, %s", results[0].Chunk.ID, results[1].Chunk.ID)
	}
}

func TestSearchZeroVectorScoresZero(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}
	vectors := [][]float32{{0, 0}, {1, 0}}
	ix, _ := Build("m", chunks, vectors)

	results, err := ix.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].Chunk.ID != "b" {
		t.Fatalf("top result = %s, want b", results[0].Chunk.ID)
	}
	if results[1].Score != 0 {
		t.Fatalf("zero vector score = %f, want 0", results[1].Score)
	}
}
