package common

import (
	"fmt"
	"time"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/urfave/cli/v2"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
)

// ResolveConfig loads the YAML file named by --config and lays every flag
// or environment variable that was given on top of it.
func ResolveConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	setString(c, "backend", &cfg.Store.Backend)
	setString(c, "spreadsheet-id", &cfg.Store.SpreadsheetID)
	setString(c, "credentials", &cfg.Store.CredentialsFile)
	setString(c, "workbook", &cfg.Store.Workbook)
	setString(c, "sheet", &cfg.Store.Sheet)
	setDuration(c, "store-timeout", &cfg.Store.Timeout)

	setString(c, "url-column", &cfg.Layout.URLColumn)
	setString(c, "analysis-column", &cfg.Layout.AnalysisColumn)
	setString(c, "enrichment-column", &cfg.Layout.EnrichmentColumn)

	setInt(c, "start-row", &cfg.Batch.StartRow)
	setInt(c, "batch-size", &cfg.Batch.Size)
	setDuration(c, "batch-delay", &cfg.Batch.BatchDelay)
	setDuration(c, "row-delay", &cfg.Batch.RowDelay)

	setDuration(c, "fetch-timeout", &cfg.Scrape.Timeout)
	setString(c, "user-agent", &cfg.Scrape.UserAgent)
	setInt(c, "max-text-length", &cfg.Scrape.MaxTextLength)
	setString(c, "extract-mode", &cfg.Scrape.ExtractMode)
	setBool(c, "tld-fallback", &cfg.Scrape.CountryTLDFallback)
	setString(c, "cache-dir", &cfg.Scrape.CacheDir)
	setDuration(c, "cache-ttl", &cfg.Scrape.CacheTTL)
	if c.IsSet("languages") {
		cfg.Scrape.Languages = c.StringSlice("languages")
	}

	setString(c, "provider", &cfg.Completion.Provider)
	setString(c, "model", &cfg.Completion.Model)
	setString(c, "base-url", &cfg.Completion.BaseURL)
	setDuration(c, "completion-timeout", &cfg.Completion.Timeout)
	setDuration(c, "call-delay", &cfg.Enrich.CallDelay)
	if c.IsSet("no-suggested-tags") {
		cfg.Enrich.SuggestTags = !c.Bool("no-suggested-tags")
	}
	if c.IsSet("categories") {
		cfg.Enrich.Categories = c.StringSlice("categories")
	}
	applyProviderDefaults(c, cfg)

	setString(c, "ledger", &cfg.Ledger.Path)
	setBool(c, "no-ledger", &cfg.Ledger.Disabled)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyProviderDefaults swaps OpenAI defaults for Anthropic ones and picks
// the API key matching the provider when the file does not set one.
func applyProviderDefaults(c *cli.Context, cfg *models.Config) {
	if cfg.Completion.Provider == models.ProviderAnthropic {
		if cfg.Completion.Model == defaultOpenAIModel {
			cfg.Completion.Model = defaultAnthropicModel
		}
		if cfg.Completion.BaseURL == defaultOpenAIBaseURL {
			cfg.Completion.BaseURL = ""
		}
	}

	keyFlag := "openai-api-key"
	if cfg.Completion.Provider == models.ProviderAnthropic {
		keyFlag = "anthropic-api-key"
	}
	if c.IsSet(keyFlag) || cfg.Completion.APIKey == "" {
		cfg.Completion.APIKey = c.String(keyFlag)
	}
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}

func setInt(c *cli.Context, name string, dst *int) {
	if c.IsSet(name) {
		*dst = c.Int(name)
	}
}

func setBool(c *cli.Context, name string, dst *bool) {
	if c.IsSet(name) {
		*dst = c.Bool(name)
	}
}

func setDuration(c *cli.Context, name string, dst *time.Duration) {
	if c.IsSet(name) {
		*dst = c.Duration(name)
	}
}
