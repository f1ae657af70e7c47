package exact

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

// FormatVersion tags persisted snapshots so incompatible rebuilds are
// rejected at load time instead of surfacing as dimension mismatches mid-query.
const FormatVersion = 1

type snapshot struct {
	FormatVersion int
	Metric        string
	EmbedderModel string
	Dimension     int
	Chunks        []storedChunk
}

type storedChunk struct {
	ID       string
	Text     string
	Metadata map[string]string
	Vector   []float32
}

// Persist writes the index atomically: encode to a temp file in the target
// directory, then rename over the destination.
func (ix *Index) Persist(path string) error {
	snap := snapshot{
		FormatVersion: FormatVersion,
		Metric:        MetricCosine,
		EmbedderModel: ix.model,
		Dimension:     ix.dimension,
		Chunks:        make([]storedChunk, 0, len(ix.chunks)),
	}
	for i, chunk := range ix.chunks {
		snap.Chunks = append(snap.Chunks, storedChunk{
			ID:       chunk.ID,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
			Vector:   ix.vectors[i],
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

// Load reads a persisted snapshot and revalidates it through Build, so a
// corrupted or hand-edited artifact is rejected before serving.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index file: %w", err)
	}

	if snap.FormatVersion != FormatVersion {
		return nil, domain.WrapError(domain.ErrIndexFormat, "load index",
			fmt.Errorf("artifact has format version %d, supported %d", snap.FormatVersion, FormatVersion))
	}
	if snap.Metric != MetricCosine {
		return nil, domain.WrapError(domain.ErrIndexFormat, "load index",
			fmt.Errorf("artifact uses metric %q, supported %q", snap.Metric, MetricCosine))
	}

	chunks := make([]domain.Chunk, 0, len(snap.Chunks))
	vectors := make([][]float32, 0, len(snap.Chunks))
	for _, sc := range snap.Chunks {
		chunks = append(chunks, domain.Chunk{
			ID:       sc.ID,
			Text:     sc.Text,
			Metadata: sc.Metadata,
		})
		vectors = append(vectors, sc.Vector)
	}

	ix, err := Build(snap.EmbedderModel, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("validate loaded index: %w", err)
	}
	if ix.dimension != snap.Dimension {
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "load index",
			fmt.Errorf("artifact declares dimension %d, vectors have %d", snap.Dimension, ix.dimension))
	}
	return ix, nil
}

// FileWriter builds and persists an exact index in one step, implementing
// the offline index-writer contract for the file backend.
type FileWriter struct {
	path  string
	model string
}

func NewFileWriter(path, model string) *FileWriter {
	return &FileWriter{path: path, model: model}
}

func (w *FileWriter) IndexChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	ix, err := Build(w.model, chunks, vectors)
	if err != nil {
		return err
	}
	return ix.Persist(w.path)
}
