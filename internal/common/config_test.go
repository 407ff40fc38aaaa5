package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/urfave/cli/v2"
)

// resolveWith runs a throwaway app so flags and env vars are parsed the way main does.
func resolveWith(t *testing.T, args ...string) (*models.Config, error) {
	t.Helper()
	var cfg *models.Config
	var resolveErr error
	app := &cli.App{
		Name:  "test",
		Flags: GlobalFlags(),
		Commands: []*cli.Command{{
			Name:  "enrich",
			Flags: append(EnrichFlags(), &cli.DurationFlag{Name: "fetch-timeout"}),
			Action: func(c *cli.Context) error {
				cfg, resolveErr = ResolveConfig(c)
				return nil
			},
		}},
	}
	if err := app.Run(append([]string{"test"}, args...)); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return cfg, resolveErr
}

// unsetEnv removes key for the duration of the test; an empty value would still count as set.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if old, ok := os.LookupEnv(key); ok {
		t.Cleanup(func() { _ = os.Setenv(key, old) })
		_ = os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enricher.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestResolveConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: xlsx
  workbook: links.xlsx
  sheet: FromFile
batch:
  size: 10
  start_row: 40
completion:
  api_key: file-key
`)
	t.Setenv("SHEET_NAME", "FromEnv")
	unsetEnv(t, "OPENAI_API_KEY")

	cfg, err := resolveWith(t, "--config", path, "enrich", "--batch-size", "5", "--fetch-timeout", "3s")
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}

	if cfg.Store.Sheet != "FromEnv" {
		t.Errorf("Sheet = %q, want env to override the file", cfg.Store.Sheet)
	}
	if cfg.Batch.Size != 5 {
		t.Errorf("Batch.Size = %d, want flag value 5", cfg.Batch.Size)
	}
	if cfg.Batch.StartRow != 40 {
		t.Errorf("Batch.StartRow = %d, want file value 40", cfg.Batch.StartRow)
	}
	if cfg.Scrape.Timeout != 3*time.Second {
		t.Errorf("Scrape.Timeout = %v, want 3s", cfg.Scrape.Timeout)
	}
	if cfg.Completion.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.Completion.APIKey)
	}
	if cfg.Batch.BatchDelay != 5*time.Second {
		t.Errorf("BatchDelay = %v, want default 5s", cfg.Batch.BatchDelay)
	}
}

func TestResolveConfig_ProviderDefaults(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: xlsx\n  workbook: links.xlsx\n")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := resolveWith(t, "--config", path, "enrich")
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Completion.APIKey != "sk-openai" || cfg.Completion.Model != "gpt-3.5-turbo" {
		t.Errorf("openai completion = %+v", cfg.Completion)
	}

	cfg, err = resolveWith(t, "--config", path, "enrich", "--provider", "anthropic")
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Completion.APIKey != "sk-ant" || cfg.Completion.Model != defaultAnthropicModel || cfg.Completion.BaseURL != "" {
		t.Errorf("anthropic completion = %+v", cfg.Completion)
	}
}

func TestResolveConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: xlsx\n")
	if _, err := resolveWith(t, "--config", path, "enrich"); err == nil {
		t.Error("ResolveConfig() accepted an xlsx backend without a workbook")
	}
}

func TestResolveConfig_MissingFileUsesDefaults(t *testing.T) {
	unsetEnv(t, "SHEET_NAME")
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	cfg, err := resolveWith(t, "--config", missing, "--backend", "xlsx", "--workbook", "w.xlsx", "enrich", "--no-suggested-tags")
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Store.Sheet != "Sheet1" || cfg.Batch.Size != 50 || cfg.Enrich.SuggestTags {
		t.Errorf("config = %+v", cfg)
	}
}
