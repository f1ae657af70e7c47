// Package extractor turns corpus files into plain text, dispatching on
// file extension.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return extractPlaintext(path)
	case ".pdf":
		return extractPDF(path)
	case ".xlsx":
		return extractXLSX(path)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "extract",
			fmt.Errorf("unsupported file type: %s", filepath.Ext(path)))
	}
}

func extractPlaintext(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract",
			fmt.Errorf("file is not valid utf-8: %s", filepath.Base(path)))
	}
	return strings.TrimSpace(string(raw)), nil
}
