package questions

import (
	"encoding/json"
	"testing"
)

func TestOrderedFollowsOrderField(t *testing.T) {
	tmpl := Template{
		"Zeta":  {Order: 1, Questions: []string{"a"}},
		"Alpha": {Order: 3},
		"Mid":   {Order: 2},
	}

	got := tmpl.Ordered()
	want := []string{"Zeta", "Mid", "Alpha"}
	for i, ns := range got {
		if ns.Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], ns.Name)
		}
	}
}

func TestOrderedTiesBreakByName(t *testing.T) {
	tmpl := Template{
		"B": {Order: 1},
		"A": {Order: 1},
	}
	got := tmpl.Ordered()
	if got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("expected name tiebreak, got %v", got)
	}
}

func TestTotalQuestions(t *testing.T) {
	tmpl := Template{
		"A": {Questions: []string{"1", "2"}},
		"B": {Questions: []string{"3"}},
		"C": {},
	}
	if got := tmpl.TotalQuestions(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestParseTemplateObject(t *testing.T) {
	raw := json.RawMessage(`{"Capital":{"description":"d","order":1,"questions":["q1","q2"]}}`)
	tmpl, err := ParseTemplate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tmpl["Capital"].Questions) != 2 {
		t.Fatalf("unexpected template %+v", tmpl)
	}
}

func TestParseTemplateQuotedString(t *testing.T) {
	inner := `{"Capital":{"description":"d","order":1,"questions":["q1"]}}`
	raw, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	tmpl, err := ParseTemplate(raw)
	if err != nil {
		t.Fatalf("parse quoted: %v", err)
	}
	if len(tmpl["Capital"].Questions) != 1 {
		t.Fatalf("unexpected template %+v", tmpl)
	}
}

func TestParseTemplateEmpty(t *testing.T) {
	tmpl, err := ParseTemplate(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if tmpl != nil {
		t.Fatalf("expected nil template, got %v", tmpl)
	}
}
