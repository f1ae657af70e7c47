package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayurparvani/assistant/internal/core/domain"
	"github.com/ayurparvani/assistant/internal/core/ports"
)

var supportedExtensions = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// IngestUseCase drives the offline build phase: walk a corpus directory,
// extract text per file, split into chunks, embed with bounded
// parallelism, and hand the chunk/vector pairs to the index writer.
type IngestUseCase struct {
	extractor   ports.TextExtractor
	chunker     ports.Chunker
	embedder    ports.Embedder
	writer      ports.IndexWriter
	ledger      ports.IngestLedger
	batchSize   int
	concurrency int
}

func NewIngestUseCase(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	writer ports.IndexWriter,
	ledger ports.IngestLedger,
	batchSize, concurrency int,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 32
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &IngestUseCase{
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		writer:      writer,
		ledger:      ledger,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

type IngestSummary struct {
	Documents int
	Chunks    int
	Failed    int
}

type ingestedFile struct {
	doc    domain.SourceDocument
	chunks []domain.Chunk
}

func (uc *IngestUseCase) IngestDir(ctx context.Context, root string) (*IngestSummary, error) {
	paths, err := uc.listCorpusFiles(root)
	if err != nil {
		return nil, err
	}

	summary := &IngestSummary{}
	files := make([]ingestedFile, 0, len(paths))
	allChunks := make([]domain.Chunk, 0)

	for _, path := range paths {
		file, err := uc.prepareFile(ctx, root, path)
		if err != nil {
			summary.Failed++
			slog.Warn("ingest_file_failed", "path", path, "error", err)
			continue
		}
		files = append(files, *file)
		allChunks = append(allChunks, file.chunks...)
	}

	if len(allChunks) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyCorpus, "ingest corpus",
			fmt.Errorf("no indexable chunks under %s", root))
	}

	vectors, err := uc.embedAll(ctx, allChunks)
	if err != nil {
		uc.markAllFailed(ctx, files, err)
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	if err := uc.writer.IndexChunks(ctx, allChunks, vectors); err != nil {
		uc.markAllFailed(ctx, files, err)
		return nil, fmt.Errorf("write index: %w", err)
	}

	for _, f := range files {
		uc.recordResult(ctx, f.doc.ID, domain.StatusReady, len(f.chunks), "")
		summary.Documents++
		summary.Chunks += len(f.chunks)
	}
	return summary, nil
}

func (uc *IngestUseCase) listCorpusFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus dir: %w", err)
	}
	if len(paths) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyCorpus, "ingest corpus",
			fmt.Errorf("no supported files under %s", root))
	}
	return paths, nil
}

func (uc *IngestUseCase) prepareFile(ctx context.Context, root, path string) (*ingestedFile, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	now := time.Now().UTC()
	doc := domain.SourceDocument{
		ID:        uuid.NewString(),
		Path:      rel,
		MimeType:  supportedExtensions[strings.ToLower(filepath.Ext(path))],
		Status:    domain.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	uc.recordStart(ctx, &doc)

	text, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		uc.recordResult(ctx, doc.ID, domain.StatusFailed, 0, err.Error())
		return nil, fmt.Errorf("extract %s: %w", rel, err)
	}

	pieces := uc.chunker.Split(text)
	if len(pieces) == 0 {
		err := domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("no chunks produced"))
		uc.recordResult(ctx, doc.ID, domain.StatusFailed, 0, err.Error())
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:   fmt.Sprintf("%s#%04d", rel, i),
			Text: piece,
			Metadata: map[string]string{
				"source":      rel,
				"document_id": doc.ID,
			},
		})
	}
	return &ingestedFile{doc: doc, chunks: chunks}, nil
}

// embedAll embeds chunk texts in fixed-size batches with a bounded number
// of in-flight embedding calls. Result order matches input order.
func (uc *IngestUseCase) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([][]float32, len(texts))
	sem := make(chan struct{}, uc.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(start, end int) {
			defer wg.Done()
			defer func() { <-sem }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed || ctx.Err() != nil {
				return
			}

			batch, err := uc.embedder.Embed(ctx, texts[start:end])
			if err == nil && len(batch) != end-start {
				err = domain.WrapError(domain.ErrInvalidInput, "embed batch",
					fmt.Errorf("vectors/texts mismatch: %d/%d", len(batch), end-start))
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(vectors[start:end], batch)
		}(start, end)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (uc *IngestUseCase) markAllFailed(ctx context.Context, files []ingestedFile, cause error) {
	for _, f := range files {
		uc.recordResult(ctx, f.doc.ID, domain.StatusFailed, 0, cause.Error())
	}
}

func (uc *IngestUseCase) recordStart(ctx context.Context, doc *domain.SourceDocument) {
	if uc.ledger == nil {
		return
	}
	if err := uc.ledger.RecordStart(ctx, doc); err != nil {
		slog.Warn("ingest_ledger_start_failed", "path", doc.Path, "error", err)
	}
}

func (uc *IngestUseCase) recordResult(ctx context.Context, id string, status domain.IngestStatus, chunkCount int, errMessage string) {
	if uc.ledger == nil {
		return
	}
	if err := uc.ledger.RecordResult(ctx, id, status, chunkCount, errMessage); err != nil {
		slog.Warn("ingest_ledger_result_failed", "document_id", id, "error", err)
	}
}
