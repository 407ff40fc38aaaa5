// Package completion sends single-prompt requests to a hosted language model.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/llm-sheet-enricher/models"
)

// ErrEmptyResponse is returned when the model answers with no text at all.
var ErrEmptyResponse = errors.New("completion returned no text")

// Request is one prompt with its output budget.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer turns a prompt into the model's reply, trimmed of surrounding whitespace.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the Completer for cfg.Provider.
func New(cfg models.CompletionConfig, logger *slog.Logger) (Completer, error) {
	switch cfg.Provider {
	case models.ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	case models.ProviderAnthropic:
		return NewAnthropic(cfg, logger), nil
	}
	return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
}
