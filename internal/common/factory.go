package common

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/analyzer"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/caching"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/completion"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/db"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/detector"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/enricher"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/fetcher"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/rowstore"
)

// OpenStore connects to the backend named in cfg.Store.
func OpenStore(ctx context.Context, cfg *models.Config) (rowstore.Store, error) {
	switch cfg.Store.Backend {
	case models.BackendSheets:
		return rowstore.NewSheets(ctx, cfg.Store.SpreadsheetID, cfg.Store.CredentialsFile, cfg.Store.Timeout)
	case models.BackendXLSX:
		return rowstore.OpenWorkbook(cfg.Store.Workbook)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// StoreLocation identifies the spreadsheet or workbook a run works on.
func StoreLocation(cfg *models.Config) string {
	if cfg.Store.Backend == models.BackendXLSX {
		return cfg.Store.Workbook
	}
	return cfg.Store.SpreadsheetID
}

// NewAnalyzer wires the fetcher, page cache and detectors used by the scrape passes.
func NewAnalyzer(cfg *models.Config, logger *slog.Logger) (*analyzer.Analyzer, error) {
	opts := []fetcher.Option{fetcher.WithLogger(logger)}
	if cfg.Scrape.CacheDir != "" {
		cache, err := caching.NewCache(cfg.Scrape.CacheDir, cfg.Scrape.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open page cache: %w", err)
		}
		if removed, err := cache.Prune(); err != nil {
			logger.Warn("failed to prune page cache", "error", err)
		} else if removed > 0 {
			logger.Info("pruned page cache", "dir", cfg.Scrape.CacheDir, "removed", removed)
		}
		opts = append(opts, fetcher.WithCache(cache))
	}
	f := fetcher.NewFetcher(cfg.Scrape.Timeout, cfg.Scrape.UserAgent, opts...)

	languages, err := detector.NewLanguage(cfg.Scrape.Languages)
	if err != nil {
		return nil, fmt.Errorf("failed to build language detector: %w", err)
	}

	return analyzer.New(f, languages, analyzer.Options{
		MaxTextLength: cfg.Scrape.MaxTextLength,
		Readability:   strings.EqualFold(cfg.Scrape.ExtractMode, models.ExtractReadability),
		TLDFallback:   cfg.Scrape.CountryTLDFallback,
		Logger:        logger,
	}), nil
}

// NewEnricher wires the completion client and prompts used by the enrich pass.
func NewEnricher(cfg *models.Config, logger *slog.Logger) (*enricher.Enricher, error) {
	if err := cfg.ValidateCompletion(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	completer, err := completion.New(cfg.Completion, logger)
	if err != nil {
		return nil, err
	}
	return enricher.New(completer, enricher.Options{
		Categories:  cfg.Enrich.Categories,
		SuggestTags: cfg.Enrich.SuggestTags,
		CallDelay:   cfg.Enrich.CallDelay,
		Budgets:     cfg.Enrich.Budgets,
		Prompts:     cfg.Enrich.Prompts,
		Logger:      logger,
	})
}

// OpenLedger opens the run ledger, or returns nil when it is disabled.
func OpenLedger(cfg *models.Config) (*db.DB, error) {
	if cfg.Ledger.Disabled {
		return nil, nil
	}
	database, err := db.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return database, nil
}
