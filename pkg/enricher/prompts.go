package enricher

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/dtnitsch/llm-sheet-enricher/models"
)

// promptData is what every prompt template is rendered with.
type promptData struct {
	Text       string
	Categories string
}

type prompts struct {
	language      *template.Template
	country       *template.Template
	summary       *template.Template
	tags          *template.Template
	suggestedTags *template.Template
}

func parsePrompts(p models.Prompts) (*prompts, error) {
	out := &prompts{}
	sources := []struct {
		name string
		src  string
		dst  **template.Template
	}{
		{"language", p.Language, &out.language},
		{"country", p.Country, &out.country},
		{"summary", p.Summary, &out.summary},
		{"tags", p.Tags, &out.tags},
		{"suggested_tags", p.SuggestedTags, &out.suggestedTags},
	}

	for _, s := range sources {
		if strings.TrimSpace(s.src) == "" {
			return nil, fmt.Errorf("prompt %s is empty", s.name)
		}
		tmpl, err := template.New(s.name).Parse(s.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", s.name, err)
		}
		*s.dst = tmpl
	}
	return out, nil
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
