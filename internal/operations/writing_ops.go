package operations

import (
	"context"
	"fmt"
	"strings"

	"scribe/internal/llm"
	"scribe/internal/prompts"
)

// WritingOps rewrites selected text with a language model
type WritingOps struct {
	provider llm.Provider
	model    string
}

func NewWritingOps(provider llm.Provider, model string) *WritingOps {
	return &WritingOps{
		provider: provider,
		model:    model,
	}
}

// Available reports whether a model provider is configured.
func (w *WritingOps) Available() bool {
	return w.provider != nil
}

// Rewrite transforms selection according to mode, using fullText as the surrounding document.
// An unknown mode is reported before any model call.
func (w *WritingOps) Rewrite(ctx context.Context, mode string, selection, fullText string) (*RewriteResult, error) {
	m, err := prompts.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(selection) == "" {
		return nil, NewOperationError("rewrite", string(m), fmt.Errorf("selection is empty"))
	}
	if w.provider == nil {
		return nil, NewOperationError("rewrite", string(m), fmt.Errorf("LLM provider %w", ErrNotConfigured))
	}

	system, err := prompts.RewriteSystem(m, selection)
	if err != nil {
		return nil, err
	}

	log.Debugf("rewrite (%s) of %d characters via %s", m, len(selection), w.provider.Name())
	text, err := w.provider.CompleteWithSystem(ctx, system, prompts.RewriteUser(selection, fullText), w.model)
	if err != nil {
		return nil, NewOperationError("rewrite", string(m), err)
	}

	return &RewriteResult{
		Mode:  m,
		Text:  strings.TrimSpace(text),
		Limit: prompts.CharacterLimit(m, selection),
	}, nil
}
