package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ayurparvani/assistant/internal/bootstrap"
	"github.com/ayurparvani/assistant/internal/config"
	"github.com/ayurparvani/assistant/internal/observability/logging"
)

const serviceName = "indexer"

func main() {
	corpusDir := flag.String("corpus", "./corpus", "directory with source documents")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewIndexer(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	summary, err := app.Ingest.IngestDir(ctx, *corpusDir)
	if err != nil {
		slog.Error("ingest failed", "corpus", *corpusDir, "error", err)
		os.Exit(1)
	}

	slog.Info("ingest complete",
		"documents", summary.Documents,
		"chunks", summary.Chunks,
		"failed", summary.Failed,
	)

	if app.Notifier != nil && cfg.IndexBackend == "file" {
		if err := app.Notifier.PublishIndexRebuilt(ctx, cfg.IndexPath); err != nil {
			slog.Error("publish rebuild event failed", "error", err)
			os.Exit(1)
		}
		slog.Info("rebuild event published", "subject", cfg.NATSSubject, "path", cfg.IndexPath)
	}
}
