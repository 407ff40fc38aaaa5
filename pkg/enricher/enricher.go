// Package enricher derives a summary and tags from extracted page text
// through a completion service, repairing unknown language and country first.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/completion"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/pipeline"
)

// Input is the analysis block of one row.
type Input struct {
	Language string
	Country  string
	Text     string
}

type Options struct {
	Categories  []string
	SuggestTags bool
	CallDelay   time.Duration
	Budgets     models.Budgets
	Prompts     models.Prompts
	// Sleep waits after every call. Defaults to pipeline.Sleep.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

type Enricher struct {
	completer   completion.Completer
	prompts     *prompts
	categories  string
	suggestTags bool
	callDelay   time.Duration
	budgets     models.Budgets
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

func New(c completion.Completer, opts Options) (*Enricher, error) {
	p, err := parsePrompts(opts.Prompts)
	if err != nil {
		return nil, err
	}
	if len(opts.Categories) == 0 {
		return nil, errors.New("at least one category is required")
	}

	e := &Enricher{
		completer:   c,
		prompts:     p,
		categories:  strings.Join(opts.Categories, ", "),
		suggestTags: opts.SuggestTags,
		callDelay:   opts.CallDelay,
		budgets:     opts.Budgets,
		sleep:       opts.Sleep,
		logger:      opts.Logger,
	}
	if e.sleep == nil {
		e.sleep = pipeline.Sleep
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e, nil
}

// Enrich returns (language, country, summary, assigned tags, justifications,
// suggested tags). Unusable text is skipped without any call. The first
// failed call fails the whole row.
func (e *Enricher) Enrich(ctx context.Context, in Input) models.Outcome {
	width := len(models.EnrichmentFields)
	if models.UnusableText(in.Text) {
		return models.Skipped(append([]string(nil), models.SkippedEnrichmentCells...))
	}

	data := promptData{Text: in.Text, Categories: e.categories}

	language := in.Language
	if models.IsUnknown(language) {
		var err error
		if language, err = e.ask(ctx, e.prompts.language, e.budgets.Language, data); err != nil {
			return models.ServiceFailed(err, width)
		}
	}

	country := in.Country
	if models.IsUnknown(country) {
		var err error
		if country, err = e.ask(ctx, e.prompts.country, e.budgets.Country, data); err != nil {
			return models.ServiceFailed(err, width)
		}
	}

	summary, err := e.ask(ctx, e.prompts.summary, e.budgets.Summary, data)
	if err != nil {
		return models.ServiceFailed(err, width)
	}

	reply, err := e.ask(ctx, e.prompts.tags, e.budgets.Tags, data)
	if err != nil {
		return models.ServiceFailed(err, width)
	}
	assignments := ParseCategories(reply)
	if len(assignments) == 0 {
		e.logger.Warn("tag reply had no category lines", "reply", reply)
	}

	suggested := models.NoSuggestedTags
	if e.suggestTags {
		if suggested, err = e.ask(ctx, e.prompts.suggestedTags, e.budgets.SuggestedTags, data); err != nil {
			return models.ServiceFailed(err, width)
		}
	}

	return models.OK(language, country, summary, Tags(assignments), Justifications(assignments), suggested)
}

// ask renders one prompt, sends it and waits the call delay afterwards.
func (e *Enricher) ask(ctx context.Context, tmpl *template.Template, budget models.Budget, data promptData) (string, error) {
	prompt, err := render(tmpl, data)
	if err != nil {
		return "", err
	}

	reply, err := e.completer.Complete(ctx, completion.Request{
		Prompt:      prompt,
		MaxTokens:   budget.MaxTokens,
		Temperature: budget.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s call failed: %w", tmpl.Name(), err)
	}

	if err := e.sleep(ctx, e.callDelay); err != nil {
		return "", err
	}
	return reply, nil
}
