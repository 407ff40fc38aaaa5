package common

import (
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"
)

// NewLogger returns the JSON logger every command writes to stderr.
// --quiet keeps errors only, --verbose adds debug output.
func NewLogger(c *cli.Context, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
