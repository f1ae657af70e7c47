package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

type answerServiceFake struct {
	result   *domain.AnswerResult
	err      error
	question string
	topK     int
}

func (f *answerServiceFake) Answer(_ context.Context, question string, topK int) (*domain.AnswerResult, error) {
	f.question = question
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestHandler(service *answerServiceFake, rps float64, burst int) http.Handler {
	router := NewRouter(service, nil, RouterConfig{
		ServiceName:    "api",
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	})
	return router.Handler()
}

func postAnswer(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAnswerEndpointGrounded(t *testing.T) {
	service := &answerServiceFake{
		result: &domain.AnswerResult{
			Text:       "Vata governs movement in the body.",
			Grounded:   true,
			UsedChunks: []string{"doshas.txt#0000"},
			Sources: []domain.RetrievedChunk{
				{Chunk: domain.Chunk{ID: "doshas.txt#0000", Metadata: map[string]string{"source": "doshas.txt"}}, Score: 0.92},
			},
		},
	}
	handler := newTestHandler(service, 0, 0)

	rec := postAnswer(t, handler, `{"question":"What does Vata govern?","top_k":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if service.question != "What does Vata govern?" || service.topK != 2 {
		t.Fatalf("service got question=%q topK=%d", service.question, service.topK)
	}

	var resp struct {
		Text       string   `json:"text"`
		Grounded   bool     `json:"grounded"`
		UsedChunks []string `json:"used_chunks"`
		Sources    []struct {
			ChunkID string  `json:"chunk_id"`
			Source  string  `json:"source"`
			Score   float64 `json:"score"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Grounded || resp.Text == "" {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].ChunkID != "doshas.txt#0000" || resp.Sources[0].Source != "doshas.txt" {
		t.Fatalf("sources = %+v", resp.Sources)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestAnswerEndpointFallbackHasEmptyUsedChunks(t *testing.T) {
	service := &answerServiceFake{
		result: &domain.AnswerResult{
			Text:     "Paris is the capital of France.",
			Grounded: false,
		},
	}
	handler := newTestHandler(service, 0, 0)

	rec := postAnswer(t, handler, `{"question":"What is the capital of France?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"used_chunks":[]`) {
		t.Fatalf("fallback used_chunks not an empty array: %s", rec.Body.String())
	}
}

func TestAnswerEndpointInvalidJSON(t *testing.T) {
	handler := newTestHandler(&answerServiceFake{}, 0, 0)

	rec := postAnswer(t, handler, `{"question":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnswerEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("empty question")), http.StatusBadRequest},
		{"prompt too large", domain.WrapError(domain.ErrPromptTooLarge, "compose prompt", errors.New("budget")), http.StatusUnprocessableEntity},
		{"temporary", domain.WrapError(domain.ErrTemporary, "generate", errors.New("503")), http.StatusServiceUnavailable},
		{"timeout", domain.WrapError(domain.ErrTimeout, "generate", errors.New("deadline")), http.StatusServiceUnavailable},
		{"unauthorized", domain.WrapError(domain.ErrUnauthorized, "generate", errors.New("401")), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(&answerServiceFake{err: tc.err}, 0, 0)
			rec := postAnswer(t, handler, `{"question":"q"}`)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAnswerEndpointRateLimited(t *testing.T) {
	service := &answerServiceFake{result: &domain.AnswerResult{Text: "ok", Grounded: true}}
	handler := newTestHandler(service, 0.001, 1)

	rec := postAnswer(t, handler, `{"question":"q"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = postAnswer(t, handler, `{"question":"q"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(&answerServiceFake{}, 0, 0)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestIDIsPreserved(t *testing.T) {
	service := &answerServiceFake{result: &domain.AnswerResult{Text: "ok", Grounded: true}}
	handler := newTestHandler(service, 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("X-Request-Id", "fixed-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "fixed-id" {
		t.Fatalf("X-Request-Id = %q, want fixed-id", got)
	}
}
