package prompt

import (
	"errors"
	"strings"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

const (
	contextSlot  = "{context}"
	questionSlot = "{question}"
)

// DefaultTemplate instructs the model to answer strictly from the supplied
// context and to admit not knowing instead of inventing an answer.
const DefaultTemplate = `Use the following pieces of information to answer the user's question.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context: {context}
Question: {question}

Only return the helpful answer below and nothing else.
Helpful answer:
`

// Template is a prompt layout with exactly two named slots, {context} and
// {question}. Validation happens once at construction so a malformed
// template fails at startup, not per query.
type Template struct {
	raw string
}

func NewTemplate(raw string) (Template, error) {
	if !strings.Contains(raw, contextSlot) {
		return Template{}, domain.WrapError(domain.ErrInvalidTemplate, "parse template", errors.New("missing {context} slot"))
	}
	if !strings.Contains(raw, questionSlot) {
		return Template{}, domain.WrapError(domain.ErrInvalidTemplate, "parse template", errors.New("missing {question} slot"))
	}
	return Template{raw: raw}, nil
}

func MustTemplate(raw string) Template {
	t, err := NewTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Template) Render(contextText, question string) string {
	out := strings.Replace(t.raw, contextSlot, contextText, 1)
	return strings.Replace(out, questionSlot, question, 1)
}
