package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ayurparvani/assistant/internal/core/domain"
	"github.com/ayurparvani/assistant/internal/core/fallback"
	"github.com/ayurparvani/assistant/internal/core/ports"
	"github.com/ayurparvani/assistant/internal/core/prompt"
	"github.com/ayurparvani/assistant/internal/infrastructure/resilience"
)

// AnswerUseCase wires the answer pipeline: retrieve, compose, generate
// grounded, then fall back to the raw question when the grounded answer
// signals insufficient knowledge. The fallback path bypasses retrieved
// context entirely, so fallback results carry no chunk ids.
type AnswerUseCase struct {
	retriever   *Retriever
	composer    *prompt.Composer
	generator   ports.AnswerGenerator
	decider     *fallback.Decider
	executor    *resilience.Executor
	defaultTopK int
	genTimeout  time.Duration
}

func NewAnswerUseCase(
	retriever *Retriever,
	composer *prompt.Composer,
	generator ports.AnswerGenerator,
	decider *fallback.Decider,
	executor *resilience.Executor,
	defaultTopK int,
	genTimeout time.Duration,
) *AnswerUseCase {
	if defaultTopK <= 0 {
		defaultTopK = 2
	}
	return &AnswerUseCase{
		retriever:   retriever,
		composer:    composer,
		generator:   generator,
		decider:     decider,
		executor:    executor,
		defaultTopK: defaultTopK,
		genTimeout:  genTimeout,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, question string, topK int) (*domain.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("empty question"))
	}
	if topK <= 0 {
		topK = uc.defaultTopK
	}

	retrieved, err := uc.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	composed, usedIDs, err := uc.composer.Compose(question, retrieved)
	if err != nil {
		return nil, err
	}

	grounded, err := uc.generate(ctx, "llm.generate_grounded", composed)
	if err != nil {
		return nil, err
	}

	if !uc.decider.NeedsFallback(grounded) {
		return &domain.AnswerResult{
			Text:       grounded,
			Grounded:   true,
			UsedChunks: usedIDs,
			Sources:    retrieved[:len(usedIDs)],
		}, nil
	}

	slog.Info("grounded_answer_uncertain", "question_len", len(question), "used_chunks", len(usedIDs))

	text, err := uc.generate(ctx, "llm.generate_fallback", question)
	if err != nil {
		return nil, err
	}

	return &domain.AnswerResult{
		Text:       text,
		Grounded:   false,
		UsedChunks: []string{},
	}, nil
}

// generate runs one model call under the bounded retry budget. Each
// attempt gets its own deadline; an attempt that exhausts it surfaces as a
// timeout distinct from other generation failures.
func (uc *AnswerUseCase) generate(ctx context.Context, operation, input string) (string, error) {
	var out string
	call := func(ctx context.Context) error {
		genCtx := ctx
		if uc.genTimeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, uc.genTimeout)
			defer cancel()
		}

		text, err := uc.generator.Generate(genCtx, input)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return domain.WrapError(domain.ErrTimeout, operation, err)
			}
			return err
		}
		out = text
		return nil
	}

	var err error
	if uc.executor != nil {
		err = uc.executor.Execute(ctx, operation, call, classifyGenerationError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return "", domain.WrapError(domain.ErrTemporary, operation, err)
		}
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

func classifyGenerationError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrTimeout),
		domain.IsKind(err, domain.ErrTemporary):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case domain.IsKind(err, domain.ErrUnauthorized),
		domain.IsKind(err, domain.ErrInvalidInput):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}
