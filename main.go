package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/llm-sheet-enricher/internal/common"
	"github.com/dtnitsch/llm-sheet-enricher/internal/enrich"
	"github.com/dtnitsch/llm-sheet-enricher/internal/runs"
	"github.com/dtnitsch/llm-sheet-enricher/internal/scrape"
	"github.com/dtnitsch/llm-sheet-enricher/internal/sheet"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Secrets usually live in .env next to the workbook.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: failed to load .env: %v\n", err)
		os.Exit(common.ExitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "sheet-enricher",
		Usage: "scrape, detect and enrich the URLs of a spreadsheet in resumable batches",
		Flags: common.GlobalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "scrape",
				Usage:  "Fetch every row's URL and write language, country and text",
				Flags:  common.ScrapeFlags(),
				Action: scrape.ScrapeAction,
			},
			{
				Name:   "recheck",
				Usage:  "Scrape again the rows whose text is blank, error or unknown",
				Flags:  common.ScrapeFlags(),
				Action: scrape.RecheckAction,
			},
			{
				Name:   "enrich",
				Usage:  "Write summary, tags and corrected language and country for every row",
				Flags:  common.EnrichFlags(),
				Action: enrich.EnrichAction,
			},
			{
				Name:   "dedupe",
				Usage:  "Drop rows whose URL repeats an earlier row",
				Flags:  common.DedupeFlags(),
				Action: sheet.DedupeAction,
			},
			{
				Name:  "runs",
				Usage: "Browse the run ledger",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List recent runs",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs shown"},
						},
						Action: runs.ListAction,
					},
					{
						Name:      "show",
						Usage:     "Show a run and its windows (latest when no ID is given)",
						ArgsUsage: "[run-id]",
						Action:    runs.ShowAction,
					},
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(common.ExitFailure)
	}
}
