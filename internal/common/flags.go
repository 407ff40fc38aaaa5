package common

import (
	"github.com/urfave/cli/v2"
)

// GlobalFlags apply to every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "enricher.yaml",
			Usage:   "YAML configuration file (optional)",
			EnvVars: []string{"ENRICHER_CONFIG"},
		},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "log errors only"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
		&cli.StringFlag{Name: "format", Value: "json", Usage: "report format: json or yaml"},
		&cli.StringFlag{Name: "backend", Usage: "store backend: sheets or xlsx", EnvVars: []string{"STORE_BACKEND"}},
		&cli.StringFlag{Name: "spreadsheet-id", Usage: "Google Sheets spreadsheet ID", EnvVars: []string{"SPREADSHEET_ID"}},
		&cli.StringFlag{Name: "credentials", Usage: "service account key file", EnvVars: []string{"SERVICE_ACCOUNT_FILE"}},
		&cli.StringFlag{Name: "workbook", Usage: "xlsx workbook path", EnvVars: []string{"WORKBOOK"}},
		&cli.StringFlag{Name: "sheet", Usage: "sheet name", EnvVars: []string{"SHEET_NAME"}},
		&cli.DurationFlag{Name: "store-timeout", Usage: "timeout of each store call"},
		&cli.StringFlag{Name: "url-column", Usage: "column holding the URLs"},
		&cli.StringFlag{Name: "analysis-column", Usage: "first column of language, country, text"},
		&cli.StringFlag{Name: "enrichment-column", Usage: "first column of the enrichment block"},
		&cli.StringFlag{Name: "ledger", Usage: "run ledger database path", EnvVars: []string{"ENRICHER_LEDGER"}},
		&cli.BoolFlag{Name: "no-ledger", Usage: "do not record runs"},
	}
}

// BatchFlags apply to every windowed pass.
func BatchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "start-row", Usage: "first sheet row to process"},
		&cli.IntFlag{Name: "batch-size", Usage: "rows per window"},
		&cli.DurationFlag{Name: "batch-delay", Usage: "pause between windows"},
		&cli.BoolFlag{Name: "resume", Usage: "start after the last window written by the previous run"},
	}
}

// ScrapeFlags apply to scrape and recheck.
func ScrapeFlags() []cli.Flag {
	return append(BatchFlags(),
		&cli.DurationFlag{Name: "row-delay", Usage: "pause between fetched rows"},
		&cli.DurationFlag{Name: "fetch-timeout", Usage: "timeout of each page fetch"},
		&cli.StringFlag{Name: "user-agent", Usage: "User-Agent header sent with fetches"},
		&cli.IntFlag{Name: "max-text-length", Usage: "characters of page text kept"},
		&cli.StringFlag{Name: "extract-mode", Usage: "text extraction: visible or readability"},
		&cli.StringSliceFlag{Name: "languages", Usage: "ISO 639-1 codes the detector chooses from"},
		&cli.BoolFlag{Name: "tld-fallback", Usage: "guess the country from the domain when no meta tag names one"},
		&cli.StringFlag{Name: "cache-dir", Usage: "directory of the page cache (disabled when empty)"},
		&cli.DurationFlag{Name: "cache-ttl", Usage: "how long cached pages stay fresh"},
	)
}

// EnrichFlags apply to enrich.
func EnrichFlags() []cli.Flag {
	return append(BatchFlags(),
		&cli.StringFlag{Name: "provider", Usage: "completion provider: openai or anthropic", EnvVars: []string{"COMPLETION_PROVIDER"}},
		&cli.StringFlag{Name: "model", Usage: "completion model", EnvVars: []string{"COMPLETION_MODEL"}},
		&cli.StringFlag{Name: "base-url", Usage: "completion API base URL", EnvVars: []string{"OPENAI_BASE_URL"}},
		&cli.StringFlag{Name: "openai-api-key", Usage: "OpenAI API key", EnvVars: []string{"OPENAI_API_KEY"}},
		&cli.StringFlag{Name: "anthropic-api-key", Usage: "Anthropic API key", EnvVars: []string{"ANTHROPIC_API_KEY"}},
		&cli.DurationFlag{Name: "completion-timeout", Usage: "timeout of each completion call"},
		&cli.DurationFlag{Name: "call-delay", Usage: "pause after every completion call"},
		&cli.StringSliceFlag{Name: "categories", Usage: "tag vocabulary (replaces the configured one)"},
		&cli.BoolFlag{Name: "no-suggested-tags", Usage: "skip the free-form suggested tags call"},
	)
}

// DedupeFlags apply to dedupe.
func DedupeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "start-row", Usage: "first data row"},
		&cli.StringFlag{Name: "from-column", Value: "A", Usage: "first column rewritten"},
		&cli.StringFlag{Name: "to-column", Value: "Z", Usage: "last column rewritten"},
		&cli.StringFlag{Name: "key-column", Usage: "column identifying a row (defaults to the URL column)"},
		&cli.BoolFlag{Name: "dry-run", Usage: "report duplicates without writing"},
	}
}
