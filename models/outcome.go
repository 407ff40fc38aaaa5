package models

import "strings"

// OutcomeKind is the closed set of things that can happen to a row.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeInputMissing
	OutcomeFetchFailed
	OutcomeServiceFailed
	OutcomeSkipped
	// OutcomeUnchanged rows are left out of the write set entirely.
	OutcomeUnchanged
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeInputMissing:
		return "input_missing"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeServiceFailed:
		return "service_failed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// Outcome is the result of processing one row: a kind, an optional cause,
// and the cells to write. Cells always has the processor's full width
// unless Kind is OutcomeUnchanged.
type Outcome struct {
	Kind  OutcomeKind
	Cause error
	Cells []string
}

func OK(cells ...string) Outcome {
	return Outcome{Kind: OutcomeOK, Cells: cells}
}

func InputMissing(cells []string) Outcome {
	return Outcome{Kind: OutcomeInputMissing, Cells: cells}
}

func FetchFailed(cause error, width int) Outcome {
	return Outcome{Kind: OutcomeFetchFailed, Cause: cause, Cells: ErrorCells(width)}
}

func ServiceFailed(cause error, width int) Outcome {
	return Outcome{Kind: OutcomeServiceFailed, Cause: cause, Cells: ErrorCells(width)}
}

func Skipped(cells []string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Cells: cells}
}

func Unchanged() Outcome {
	return Outcome{Kind: OutcomeUnchanged}
}

// Sentinel values written in place of real data.
const (
	SentinelError   = "Error"
	LanguageUnknown = "unknown"
	CountryUnknown  = "Unknown"
)

// MissingURLCells is written to the analysis block when a row has no URL.
var MissingURLCells = []string{"No Language", "No Country", "No Text"}

// SkippedEnrichmentCells is written to the enrichment block when a row has no usable text.
var SkippedEnrichmentCells = []string{"Skipped", "Skipped", "No Summary", "No Tags", "No Justification", "No Suggested Tags"}

// NoSuggestedTags fills the suggested tags field when that call is disabled.
const NoSuggestedTags = "No Suggested Tags"

// ErrorCells returns width copies of SentinelError.
func ErrorCells(width int) []string {
	cells := make([]string, width)
	for i := range cells {
		cells[i] = SentinelError
	}
	return cells
}

// NeedsRecheck reports whether an extracted text cell should be scraped again.
func NeedsRecheck(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "error", LanguageUnknown:
		return true
	}
	return false
}

// UnusableText reports whether text must not be sent for enrichment.
func UnusableText(text string) bool {
	return IsBlank(text) || strings.EqualFold(strings.TrimSpace(text), SentinelError)
}

// IsUnknown reports whether a language or country cell needs repair.
func IsUnknown(v string) bool {
	return IsBlank(v) || strings.EqualFold(strings.TrimSpace(v), LanguageUnknown)
}
