// Package models defines data structures for configuration, rows and row outcomes.
package models

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
)

// Completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Text extraction modes.
const (
	ExtractVisible     = "visible"
	ExtractReadability = "readability"
)

// DefaultUserAgent mimics a desktop browser; some sites refuse bare Go clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko)" +
	" Chrome/98.0.4758.102 Safari/537.36"

// Config holds runtime configuration for every command.
// Values come from the YAML file, then environment variables and CLI flags override them.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Layout     LayoutConfig     `yaml:"layout"`
	Batch      BatchConfig      `yaml:"batch"`
	Scrape     ScrapeConfig     `yaml:"scrape"`
	Completion CompletionConfig `yaml:"completion"`
	Enrich     EnrichConfig     `yaml:"enrich"`
	Ledger     LedgerConfig     `yaml:"ledger"`
}

type StoreConfig struct {
	Backend         string        `yaml:"backend"`
	SpreadsheetID   string        `yaml:"spreadsheet_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	Workbook        string        `yaml:"workbook"`
	Sheet           string        `yaml:"sheet"`
	Timeout         time.Duration `yaml:"timeout"`
}

// LayoutConfig names the spreadsheet columns by letter.
type LayoutConfig struct {
	URLColumn        string `yaml:"url_column"`
	AnalysisColumn   string `yaml:"analysis_column"`   // language, country, extracted_text
	EnrichmentColumn string `yaml:"enrichment_column"` // language, country, summary, assigned_tags, tag_justifications, suggested_tags
}

type BatchConfig struct {
	StartRow   int           `yaml:"start_row"`
	Size       int           `yaml:"size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
	RowDelay   time.Duration `yaml:"row_delay"`
}

type ScrapeConfig struct {
	Timeout            time.Duration `yaml:"timeout"`
	UserAgent          string        `yaml:"user_agent"`
	MaxTextLength      int           `yaml:"max_text_length"`
	ExtractMode        string        `yaml:"extract_mode"`
	Languages          []string      `yaml:"languages"` // ISO 639-1 codes; empty means every language lingua knows
	CountryTLDFallback bool          `yaml:"country_tld_fallback"`
	CacheDir           string        `yaml:"cache_dir"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
}

type CompletionConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Budget bounds a single completion call.
type Budget struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type Budgets struct {
	Language      Budget `yaml:"language"`
	Country       Budget `yaml:"country"`
	Summary       Budget `yaml:"summary"`
	Tags          Budget `yaml:"tags"`
	SuggestedTags Budget `yaml:"suggested_tags"`
}

// Prompts are text/template sources rendered with {{.Text}} and {{.Categories}}.
type Prompts struct {
	Language      string `yaml:"language"`
	Country       string `yaml:"country"`
	Summary       string `yaml:"summary"`
	Tags          string `yaml:"tags"`
	SuggestedTags string `yaml:"suggested_tags"`
}

type EnrichConfig struct {
	Categories  []string      `yaml:"categories"`
	SuggestTags bool          `yaml:"suggest_tags"`
	CallDelay   time.Duration `yaml:"call_delay"`
	Budgets     Budgets       `yaml:"budgets"`
	Prompts     Prompts       `yaml:"prompts"`
}

type LedgerConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// DefaultCategories is the closed tag vocabulary used when none is configured.
var DefaultCategories = []string{
	"Bioart",
	"Biodesign",
	"Bioarchitecture",
	"Biomimicry",
	"Synthetic Biology",
	"Bio 3D Printing",
	"Parametric Design",
	"Open Science Hardware",
	"Biomanufacturing",
	"Biohacking",
	"Biomaterial",
}

// DefaultPrompts reproduces the prompts the enrichment passes have always used.
var DefaultPrompts = Prompts{
	Language: "Detect the language of the following text:\n\n{{.Text}}\n\nLanguage:",
	Country: "Based on the following text, identify the country of origin of the news or the main country it refers to. " +
		"If it cannot be determined, respond 'Unknown'. Text:\n\n{{.Text}}\n\nCountry:",
	Summary: "Provide a concise summary, always in English, of the following text:\n\n{{.Text}}\n\nSummary:",
	Tags: "From the following text, assign one or more of these categories: {{.Categories}}. " +
		"For each assigned category, provide a brief justification. Respond in the format:\n" +
		"Category: [category1]\nJustification: [reason]\n...\nText:\n\n{{.Text}}\n\nCategories and Justifications:",
	SuggestedTags: "Based on the following text, suggest relevant tags or keywords, always in English, that describe the main topics. " +
		"Respond with a list of tags separated by commas.\n\nText:\n\n{{.Text}}\n\nTags:",
}

// DefaultConfig returns a Config with every knob populated.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSheets,
			Sheet:   "Sheet1",
			Timeout: 30 * time.Second,
		},
		Layout: LayoutConfig{
			URLColumn:        "B",
			AnalysisColumn:   "H",
			EnrichmentColumn: "K",
		},
		Batch: BatchConfig{
			StartRow:   2,
			Size:       50,
			BatchDelay: 5 * time.Second,
		},
		Scrape: ScrapeConfig{
			Timeout:       10 * time.Second,
			UserAgent:     DefaultUserAgent,
			MaxTextLength: 25000,
			ExtractMode:   ExtractVisible,
			CacheTTL:      24 * time.Hour,
		},
		Completion: CompletionConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-3.5-turbo",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  60 * time.Second,
		},
		Enrich: EnrichConfig{
			Categories:  append([]string(nil), DefaultCategories...),
			SuggestTags: true,
			CallDelay:   time.Second,
			Budgets: Budgets{
				Language:      Budget{MaxTokens: 10, Temperature: 0},
				Country:       Budget{MaxTokens: 20, Temperature: 0},
				Summary:       Budget{MaxTokens: 150, Temperature: 0.5},
				Tags:          Budget{MaxTokens: 300, Temperature: 0.5},
				SuggestedTags: Budget{MaxTokens: 50, Temperature: 0.5},
			},
			Prompts: DefaultPrompts,
		},
		Ledger: LedgerConfig{
			Path: "enricher-runs.db",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// A missing file is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSheets:
		if c.Store.SpreadsheetID == "" {
			return errors.New("store.spreadsheet_id is required for the sheets backend")
		}
	case BackendXLSX:
		if c.Store.Workbook == "" {
			return errors.New("store.workbook is required for the xlsx backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Sheet == "" {
		return errors.New("store.sheet is required")
	}
	if c.Batch.StartRow < 1 {
		return fmt.Errorf("batch.start_row must be >= 1, got %d", c.Batch.StartRow)
	}
	if c.Batch.Size < 1 {
		return fmt.Errorf("batch.size must be >= 1, got %d", c.Batch.Size)
	}
	if c.Batch.BatchDelay < 0 || c.Batch.RowDelay < 0 || c.Enrich.CallDelay < 0 {
		return errors.New("delays must not be negative")
	}
	if c.Scrape.MaxTextLength < 1 {
		return fmt.Errorf("scrape.max_text_length must be >= 1, got %d", c.Scrape.MaxTextLength)
	}
	switch strings.ToLower(c.Scrape.ExtractMode) {
	case ExtractVisible, ExtractReadability:
	default:
		return fmt.Errorf("unknown scrape.extract_mode %q", c.Scrape.ExtractMode)
	}
	if _, err := NewLayout(c.Layout); err != nil {
		return err
	}
	return nil
}

// ValidateCompletion checks the settings needed by commands that call a model.
func (c *Config) ValidateCompletion() error {
	switch c.Completion.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown completion provider %q", c.Completion.Provider)
	}
	if c.Completion.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Completion.Provider)
	}
	if len(c.Enrich.Categories) == 0 {
		return errors.New("enrich.categories must name at least one category")
	}
	return nil
}
