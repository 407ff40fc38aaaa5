package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Render writes v to w as indented JSON, or as YAML when format is "yaml".
func Render(w io.Writer, format string, v any) error {
	var outputData []byte
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		outputData, err = yaml.Marshal(v)
	case "", "json":
		outputData, err = json.MarshalIndent(v, "", "  ")
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(string(outputData), "\n"))
	return err
}
