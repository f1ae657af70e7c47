package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrDuplicateID       = errors.New("duplicate chunk id")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexFormat       = errors.New("incompatible index format")
	ErrInvalidTemplate   = errors.New("invalid prompt template")
	ErrPromptTooLarge    = errors.New("prompt too large")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrTemporary         = errors.New("temporary failure")
	ErrTimeout           = errors.New("timeout")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
