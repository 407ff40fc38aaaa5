package models

import "testing"

func TestNewLayout_DefaultColumns(t *testing.T) {
	l, err := NewLayout(DefaultConfig().Layout)
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"url", l.URL, 2},
		{"analysis language", l.AnalysisColumn(FieldLanguage), 8},
		{"analysis text", l.AnalysisColumn(FieldExtractedText), 10},
		{"enrichment language", l.EnrichmentColumn(FieldLanguage), 11},
		{"enrichment summary", l.EnrichmentColumn(FieldSummary), 13},
		{"enrichment suggested tags", l.EnrichmentColumn(FieldSuggestedTags), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("column = %d, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestNewLayout_RejectsBadLetters(t *testing.T) {
	_, err := NewLayout(LayoutConfig{URLColumn: "B", AnalysisColumn: "H1", EnrichmentColumn: "K"})
	if err == nil {
		t.Fatal("NewLayout() accepted an invalid column name")
	}
}

func TestRowCell(t *testing.T) {
	row := Row{Number: 5, FirstColumn: 2, Cells: []string{"example.com", "", "x"}}
	if got := row.Cell(2); got != "example.com" {
		t.Errorf("Cell(2) = %q", got)
	}
	if got := row.Cell(1); got != "" {
		t.Errorf("Cell(1) = %q, want empty", got)
	}
	if got := row.Cell(10); got != "" {
		t.Errorf("Cell(10) = %q, want empty beyond populated prefix", got)
	}
}

func TestNeedsRecheck(t *testing.T) {
	tests := map[string]bool{
		"":                     true,
		"   ":                  true,
		"Error":                true,
		"ERROR":                true,
		"unknown":              true,
		"Unknown":              true,
		"a valid article body": false,
		"No Text":              false,
	}
	for text, want := range tests {
		if got := NeedsRecheck(text); got != want {
			t.Errorf("NeedsRecheck(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestUnusableText(t *testing.T) {
	if !UnusableText("error") || !UnusableText("") || !UnusableText("Error") {
		t.Error("UnusableText() should reject blank and error text")
	}
	if UnusableText("unknown") {
		t.Error("UnusableText(unknown) = true, want false")
	}
}
