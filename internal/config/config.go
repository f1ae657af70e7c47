package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	GeneratorBackend string `yaml:"generator_backend"`

	GroqAPIKey  string `yaml:"-"`
	GroqBaseURL string `yaml:"groq_base_url"`
	GroqModel   string `yaml:"groq_model"`

	OllamaURL        string `yaml:"ollama_url"`
	OllamaGenModel   string `yaml:"ollama_gen_model"`
	OllamaEmbedModel string `yaml:"ollama_embed_model"`

	IndexBackend string `yaml:"index_backend"`
	IndexPath    string `yaml:"index_path"`

	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`

	RAGTopK                  int    `yaml:"rag_top_k"`
	UncertaintyMarkers       string `yaml:"uncertainty_markers"`
	MaxPromptChars           int    `yaml:"max_prompt_chars"`
	PromptTemplatePath       string `yaml:"prompt_template_path"`
	GenerationTimeoutSeconds int    `yaml:"generation_timeout_seconds"`

	ChunkSize        int `yaml:"chunk_size"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	EmbedBatchSize   int `yaml:"embed_batch_size"`
	EmbedConcurrency int `yaml:"embed_concurrency"`

	PostgresDSN string `yaml:"-"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	APIRateLimitRPS   float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int     `yaml:"api_rate_limit_burst"`
}

// Load reads configuration from the environment, optionally overlaid on a
// YAML file named by CONFIG_FILE. Environment values win over file values.
// Credentials (GROQ_API_KEY, POSTGRES_DSN) are env-only and never read from
// or written to config files.
func Load() (Config, error) {
	cfg := Config{
		APIPort:  "8080",
		LogLevel: "info",

		GeneratorBackend: "groq",

		GroqBaseURL: "https://api.groq.com/openai/v1",
		GroqModel:   "llama3-8b-8192",

		OllamaURL:        "http://localhost:11434",
		OllamaGenModel:   "llama3.1:8b",
		OllamaEmbedModel: "nomic-embed-text",

		IndexBackend: "file",
		IndexPath:    "./data/index.gob",

		QdrantURL:        "http://localhost:6333",
		QdrantCollection: "corpus",

		RAGTopK:                  2,
		UncertaintyMarkers:       "",
		MaxPromptChars:           12000,
		GenerationTimeoutSeconds: 60,

		ChunkSize:        900,
		ChunkOverlap:     150,
		EmbedBatchSize:   32,
		EmbedConcurrency: 4,

		NATSURL:     "",
		NATSSubject: "index.rebuilt",

		APIRateLimitRPS:   10,
		APIRateLimitBurst: 20,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.APIPort = env("API_PORT", cfg.APIPort)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)

	cfg.GeneratorBackend = env("GENERATOR_BACKEND", cfg.GeneratorBackend)
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.GroqBaseURL = env("GROQ_BASE_URL", cfg.GroqBaseURL)
	cfg.GroqModel = env("GROQ_MODEL", cfg.GroqModel)

	cfg.OllamaURL = env("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaGenModel = env("OLLAMA_GEN_MODEL", cfg.OllamaGenModel)
	cfg.OllamaEmbedModel = env("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel)

	cfg.IndexBackend = env("INDEX_BACKEND", cfg.IndexBackend)
	cfg.IndexPath = env("INDEX_PATH", cfg.IndexPath)
	cfg.QdrantURL = env("QDRANT_URL", cfg.QdrantURL)
	cfg.QdrantCollection = env("QDRANT_COLLECTION", cfg.QdrantCollection)

	cfg.RAGTopK = envInt("RAG_TOP_K", cfg.RAGTopK)
	cfg.UncertaintyMarkers = env("UNCERTAINTY_MARKERS", cfg.UncertaintyMarkers)
	cfg.MaxPromptChars = envInt("MAX_PROMPT_CHARS", cfg.MaxPromptChars)
	cfg.PromptTemplatePath = env("PROMPT_TEMPLATE_PATH", cfg.PromptTemplatePath)
	cfg.GenerationTimeoutSeconds = envInt("GENERATION_TIMEOUT_SECONDS", cfg.GenerationTimeoutSeconds)

	cfg.ChunkSize = envInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = envInt("CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.EmbedBatchSize = envInt("EMBED_BATCH_SIZE", cfg.EmbedBatchSize)
	cfg.EmbedConcurrency = envInt("EMBED_CONCURRENCY", cfg.EmbedConcurrency)

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")

	cfg.NATSURL = env("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = env("NATS_SUBJECT", cfg.NATSSubject)

	cfg.APIRateLimitRPS = envFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS)
	cfg.APIRateLimitBurst = envInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.GeneratorBackend {
	case "groq", "ollama":
	default:
		return fmt.Errorf("GENERATOR_BACKEND must be groq or ollama, got %q", c.GeneratorBackend)
	}
	switch c.IndexBackend {
	case "file", "qdrant":
	default:
		return fmt.Errorf("INDEX_BACKEND must be file or qdrant, got %q", c.IndexBackend)
	}
	if c.RAGTopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.RAGTopK)
	}
	if c.MaxPromptChars <= 0 {
		return fmt.Errorf("MAX_PROMPT_CHARS must be positive, got %d", c.MaxPromptChars)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Markers splits UNCERTAINTY_MARKERS into trimmed, non-empty entries.
func (c Config) Markers() []string {
	if strings.TrimSpace(c.UncertaintyMarkers) == "" {
		return nil
	}
	parts := strings.Split(c.UncertaintyMarkers, ",")
	markers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			markers = append(markers, trimmed)
		}
	}
	return markers
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
