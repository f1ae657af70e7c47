package httpadapter

import (
	"net/http"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

// mapError distinguishes caller mistakes, per-query fatal conditions, and
// transient backend failures. A failed pipeline never masquerades as a
// legitimate answer; callers always get an explicit error state.
func mapError(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case domain.IsKind(err, domain.ErrPromptTooLarge):
		return http.StatusUnprocessableEntity, "question too large for the prompt budget"
	case domain.IsKind(err, domain.ErrTimeout), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "temporarily unavailable, please retry"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusBadGateway, "generation endpoint rejected credentials"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
