// Package postgres keeps the ingest ledger: one row per corpus document
// recording how its last ingestion went. The serving path never touches
// it; only the indexer writes here.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

type IngestLedger struct {
	db *sql.DB
}

func NewIngestLedger(db *sql.DB) *IngestLedger {
	return &IngestLedger{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (l *IngestLedger) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent indexer runs.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ingested_documents (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	status TEXT NOT NULL,
	chunk_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingested_documents_status ON ingested_documents(status);
CREATE INDEX IF NOT EXISTS idx_ingested_documents_created_at ON ingested_documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (l *IngestLedger) RecordStart(ctx context.Context, doc *domain.SourceDocument) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO ingested_documents (id, path, mime_type, status, chunk_count, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		doc.ID, doc.Path, doc.MimeType, string(doc.Status), doc.ChunkCount, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ingested document: %w", err)
	}
	return nil
}

func (l *IngestLedger) RecordResult(ctx context.Context, id string, status domain.IngestStatus, chunkCount int, errMessage string) error {
	res, err := l.db.ExecContext(ctx, `
UPDATE ingested_documents
SET status = $2, chunk_count = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), chunkCount, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update ingested document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update ingested document",
			fmt.Errorf("no ledger row for id %s", id))
	}
	return nil
}
