package prompt

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

// ChunkSeparator keeps chunk boundaries visible to the model.
const ChunkSeparator = "\n\n"

// Composer assembles retrieved chunks and the question into a bounded
// prompt. When the assembled prompt exceeds the budget, chunks are dropped
// from the tail of the retrieval order (lowest similarity first). The
// question itself is never truncated.
type Composer struct {
	template Template
	maxRunes int
}

func NewComposer(template Template, maxRunes int) *Composer {
	return &Composer{
		template: template,
		maxRunes: maxRunes,
	}
}

// Compose returns the prompt and the ids of the chunks that survived the
// budget, in retrieval order.
func (c *Composer) Compose(question string, retrieved []domain.RetrievedChunk) (string, []string, error) {
	for keep := len(retrieved); keep >= 0; keep-- {
		rendered := c.template.Render(joinChunkTexts(retrieved[:keep]), question)
		if c.maxRunes > 0 && utf8.RuneCountInString(rendered) > c.maxRunes {
			continue
		}
		ids := make([]string, 0, keep)
		for _, r := range retrieved[:keep] {
			ids = append(ids, r.Chunk.ID)
		}
		return rendered, ids, nil
	}
	return "", nil, domain.WrapError(domain.ErrPromptTooLarge, "compose prompt",
		errors.New("question exceeds prompt budget even without context"))
}

func joinChunkTexts(retrieved []domain.RetrievedChunk) string {
	if len(retrieved) == 0 {
		return ""
	}
	texts := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		texts = append(texts, r.Chunk.Text)
	}
	return strings.Join(texts, ChunkSeparator)
}
