package enricher

import "strings"

const (
	categoryPrefix      = "Category:"
	justificationPrefix = "Justification:"
)

// Assignment is one category picked by the model, with the reasons given for it.
type Assignment struct {
	Category       string
	Justifications []string
}

// ParseCategories reads a tag-assignment reply made of "Category: <name>"
// lines, each optionally followed by "Justification: <reason>" lines.
// A justification belongs to the closest category line above it; one that
// appears before any category is dropped. Every other line is ignored.
func ParseCategories(reply string) []Assignment {
	var out []Assignment
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, categoryPrefix):
			name := strings.TrimSpace(strings.TrimPrefix(line, categoryPrefix))
			if name == "" {
				continue
			}
			out = append(out, Assignment{Category: name})
		case strings.HasPrefix(line, justificationPrefix):
			if len(out) == 0 {
				continue
			}
			reason := strings.TrimSpace(strings.TrimPrefix(line, justificationPrefix))
			last := &out[len(out)-1]
			last.Justifications = append(last.Justifications, reason)
		}
	}
	return out
}

// Tags joins the assigned category names with ", ".
func Tags(assignments []Assignment) string {
	names := make([]string, 0, len(assignments))
	for _, a := range assignments {
		names = append(names, a.Category)
	}
	return strings.Join(names, ", ")
}

// Justifications joins every reason as "category: reason" with "; ".
func Justifications(assignments []Assignment) string {
	var parts []string
	for _, a := range assignments {
		for _, reason := range a.Justifications {
			parts = append(parts, a.Category+": "+reason)
		}
	}
	return strings.Join(parts, "; ")
}
