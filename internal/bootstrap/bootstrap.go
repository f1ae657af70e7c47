package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ayurparvani/assistant/internal/config"
	"github.com/ayurparvani/assistant/internal/core/fallback"
	"github.com/ayurparvani/assistant/internal/core/ports"
	"github.com/ayurparvani/assistant/internal/core/prompt"
	"github.com/ayurparvani/assistant/internal/core/usecase"
	"github.com/ayurparvani/assistant/internal/infrastructure/chunking"
	"github.com/ayurparvani/assistant/internal/infrastructure/extractor"
	"github.com/ayurparvani/assistant/internal/infrastructure/llm/groq"
	"github.com/ayurparvani/assistant/internal/infrastructure/llm/ollama"
	"github.com/ayurparvani/assistant/internal/infrastructure/queue/nats"
	"github.com/ayurparvani/assistant/internal/infrastructure/repository/postgres"
	"github.com/ayurparvani/assistant/internal/infrastructure/resilience"
	"github.com/ayurparvani/assistant/internal/infrastructure/vector/exact"
	"github.com/ayurparvani/assistant/internal/infrastructure/vector/qdrant"
	"github.com/ayurparvani/assistant/internal/observability/metrics"
)

// App holds the wired serving side: the answer pipeline plus the index
// reload loop when NATS is configured.
type App struct {
	Config  config.Config
	Answer  ports.AnswerService
	Metrics *metrics.HTTPServerMetrics

	closeFn func()
}

func NewAPI(ctx context.Context, cfg config.Config, serviceName string) (*App, error) {
	tmpl, err := loadTemplate(cfg)
	if err != nil {
		return nil, err
	}

	markers := cfg.Markers()
	if len(markers) == 0 {
		markers = fallback.DefaultMarkers()
	}
	decider := fallback.NewDecider(markers)

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient)

	generator, err := buildGenerator(cfg, ollamaClient)
	if err != nil {
		return nil, err
	}

	m := metrics.NewHTTPServerMetrics(serviceName)

	var closers []func()
	var index ports.VectorIndex
	switch cfg.IndexBackend {
	case "qdrant":
		index = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	default:
		holder := &indexHolder{}
		if err := loadIntoHolder(holder, cfg.IndexPath, embedder.Model(), m, serviceName); err != nil {
			slog.Warn("initial_index_load_failed", "path", cfg.IndexPath, "error", err)
		}
		if cfg.NATSURL != "" {
			queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
			if err != nil {
				return nil, fmt.Errorf("connect nats: %w", err)
			}
			closers = append(closers, queue.Close)
			go runReloadLoop(ctx, queue, holder, embedder.Model(), m, serviceName)
		}
		index = holder
	}

	retriever := usecase.NewRetriever(embedder, index)
	composer := prompt.NewComposer(tmpl, cfg.MaxPromptChars)
	executor := resilience.NewExecutor(resilience.DefaultConfig())
	answerUC := usecase.NewAnswerUseCase(
		retriever,
		composer,
		generator,
		decider,
		executor,
		cfg.RAGTopK,
		time.Duration(cfg.GenerationTimeoutSeconds)*time.Second,
	)

	return &App{
		Config:  cfg,
		Answer:  answerUC,
		Metrics: m,
		closeFn: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// IndexerApp holds the wired offline build side.
type IndexerApp struct {
	Config   config.Config
	Ingest   *usecase.IngestUseCase
	Notifier ports.IndexNotifier

	closeFn func()
}

func NewIndexer(ctx context.Context, cfg config.Config) (*IndexerApp, error) {
	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient)

	var writer ports.IndexWriter
	switch cfg.IndexBackend {
	case "qdrant":
		writer = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	default:
		writer = exact.NewFileWriter(cfg.IndexPath, embedder.Model())
	}

	var closers []func()

	var ledger ports.IngestLedger
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		pgLedger := postgres.NewIngestLedger(db)
		if err := pgLedger.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure ledger schema: %w", err)
		}
		ledger = pgLedger
	}

	var notifier ports.IndexNotifier
	if cfg.NATSURL != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		closers = append(closers, queue.Close)
		notifier = queue
	}

	ingestUC := usecase.NewIngestUseCase(
		extractor.New(),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		writer,
		ledger,
		cfg.EmbedBatchSize,
		cfg.EmbedConcurrency,
	)

	return &IndexerApp{
		Config:   cfg,
		Ingest:   ingestUC,
		Notifier: notifier,
		closeFn: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func (a *IndexerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func buildGenerator(cfg config.Config, ollamaClient *ollama.Client) (ports.AnswerGenerator, error) {
	switch cfg.GeneratorBackend {
	case "ollama":
		return ollama.NewGenerator(ollamaClient), nil
	default:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required when GENERATOR_BACKEND=groq")
		}
		return groq.New(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel), nil
	}
}

func loadTemplate(cfg config.Config) (prompt.Template, error) {
	raw := prompt.DefaultTemplate
	if cfg.PromptTemplatePath != "" {
		data, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return prompt.Template{}, fmt.Errorf("read prompt template: %w", err)
		}
		raw = string(data)
	}
	tmpl, err := prompt.NewTemplate(raw)
	if err != nil {
		return prompt.Template{}, fmt.Errorf("validate prompt template: %w", err)
	}
	return tmpl, nil
}

func loadIntoHolder(holder *indexHolder, path, embedModel string, m *metrics.HTTPServerMetrics, serviceName string) error {
	ix, err := exact.Load(path)
	if err != nil {
		m.RecordIndexSwap(serviceName, err)
		return err
	}
	if ix.Model() != embedModel {
		slog.Warn("index_embedder_model_mismatch",
			"index_model", ix.Model(),
			"configured_model", embedModel,
		)
	}
	holder.swap(ix)
	m.RecordIndexSwap(serviceName, nil)
	m.SetIndexChunks(serviceName, holder.len())
	slog.Info("index_loaded", "path", path, "chunks", ix.Len(), "dimension", ix.Dimension())
	return nil
}

// runReloadLoop blocks on the rebuild subscription until ctx is done.
// Every announced artifact is loaded and swapped in; a bad artifact keeps
// the previous index serving.
func runReloadLoop(ctx context.Context, queue *nats.Queue, holder *indexHolder, embedModel string, m *metrics.HTTPServerMetrics, serviceName string) {
	err := queue.SubscribeIndexRebuilt(ctx, func(_ context.Context, path string) error {
		return loadIntoHolder(holder, path, embedModel, m, serviceName)
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("index_reload_subscription_failed", "error", err)
	}
}
