package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

func TestExtractPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doshas.txt")
	if err := os.WriteFile(path, []byte("  Vata governs movement.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Vata governs movement." {
		t.Fatalf("Extract() = %q", text)
	}
}

func TestExtractMarkdownUsesPlaintextPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.MD")
	if err := os.WriteFile(path, []byte("# Doshas"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "# Doshas" {
		t.Fatalf("Extract() = %q", text)
	}
}

func TestExtractRejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := New().Extract(context.Background(), path)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Extract() error = %v, want ErrInvalidInput", err)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := New().Extract(context.Background(), "report.docx")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Extract() error = %v, want ErrInvalidInput", err)
	}
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, "anything.txt")
	if err == nil {
		t.Fatalf("expected context error")
	}
}
