package questions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Section is one named section of a question template. Question order is
// significant: questions are addressed by index.
type Section struct {
	Description string   `json:"description"`
	Order       int      `json:"order"`
	Questions   []string `json:"questions"`
}

// Template maps section names to their questions. Iteration order for
// rendering follows each section's Order field, not map order.
type Template map[string]Section

// NamedSection pairs a section with its name for ordered traversal.
type NamedSection struct {
	Name    string  `json:"name"`
	Section Section `json:"section"`
}

// Ordered returns the sections sorted by Order, ties broken by name so
// traversal stays deterministic.
func (t Template) Ordered() []NamedSection {
	out := make([]NamedSection, 0, len(t))
	for name, sec := range t {
		out = append(out, NamedSection{Name: name, Section: sec})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section.Order != out[j].Section.Order {
			return out[i].Section.Order < out[j].Section.Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TotalQuestions counts questions across all sections.
func (t Template) TotalQuestions() int {
	total := 0
	for _, sec := range t {
		total += len(sec.Questions)
	}
	return total
}

// clone copies the template one section deep so an edit never aliases the
// stored questions slice.
func (t Template) clone() Template {
	out := make(Template, len(t))
	for name, sec := range t {
		sec.Questions = append([]string(nil), sec.Questions...)
		out[name] = sec
	}
	return out
}

// ParseTemplate decodes a template_with_questions payload. Older backend
// responses carry the template as a JSON string rather than an object, so
// one level of quoting is tolerated.
func ParseTemplate(raw json.RawMessage) (Template, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("unquote template: %w", err)
		}
		raw = json.RawMessage(inner)
	}
	var t Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return t, nil
}
