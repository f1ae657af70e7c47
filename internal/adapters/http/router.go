package httpadapter

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayurparvani/assistant/internal/core/domain"
	"github.com/ayurparvani/assistant/internal/core/ports"
	"github.com/ayurparvani/assistant/internal/observability/metrics"
)

const maxRequestBodyBytes = 64 * 1024

type RouterConfig struct {
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
}

type answerRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type answerResponse struct {
	Text       string       `json:"text"`
	Grounded   bool         `json:"grounded"`
	UsedChunks []string     `json:"used_chunks"`
	Sources    []sourceItem `json:"sources,omitempty"`
}

type sourceItem struct {
	ChunkID string  `json:"chunk_id"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score"`
}

type Router struct {
	service ports.AnswerService
	metrics *metrics.HTTPServerMetrics
	cfg     RouterConfig
}

func NewRouter(service ports.AnswerService, m *metrics.HTTPServerMetrics, cfg RouterConfig) *Router {
	return &Router{
		service: service,
		metrics: m,
		cfg:     cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/answer", rt.handleAnswer)
	mux.HandleFunc("GET /healthz", rt.handleHealth)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleAnswer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	var req answerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	result, err := rt.service.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		status, message := mapError(err)
		slog.Error("answer failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": message})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer(rt.cfg.ServiceName, result.Grounded, len(result.UsedChunks), time.Since(start))
	}

	writeJSON(w, http.StatusOK, toAnswerResponse(result))
}

func toAnswerResponse(result *domain.AnswerResult) answerResponse {
	resp := answerResponse{
		Text:       result.Text,
		Grounded:   result.Grounded,
		UsedChunks: result.UsedChunks,
	}
	if resp.UsedChunks == nil {
		resp.UsedChunks = []string{}
	}
	for _, src := range result.Sources {
		resp.Sources = append(resp.Sources, sourceItem{
			ChunkID: src.Chunk.ID,
			Source:  src.Chunk.Metadata["source"],
			Score:   src.Score,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
