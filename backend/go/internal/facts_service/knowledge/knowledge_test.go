package knowledge

import (
	"strings"
	"testing"

	"country_facts/backend/go/internal/models"
)

func newBase(t *testing.T) *Base {
	t.Helper()
	b, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestLookup_Curated(t *testing.T) {
	b := newBase(t)
	for _, name := range []string{"Japan", "japan", "  JAPAN "} {
		set, curated := b.Lookup(name)
		if !curated {
			t.Fatalf("Lookup(%q): expected curated hit", name)
		}
		if set.SourceLabel != LookupLabel {
			t.Errorf("label = %q, want %q", set.SourceLabel, LookupLabel)
		}
		if len(set.Facts) != models.FactsPerSet {
			t.Fatalf("expected %d facts, got %d", models.FactsPerSet, len(set.Facts))
		}
		if set.Facts[0].Title != "Island Nation" {
			t.Errorf("unexpected first fact %+v", set.Facts[0])
		}
	}
}

func TestLookup_Generic(t *testing.T) {
	b := newBase(t)
	set, curated := b.Lookup("Wakanda")
	if curated {
		t.Fatalf("Wakanda should not be curated")
	}
	if set.SourceLabel != LookupLabel || set.Status != models.StatusFallback {
		t.Errorf("unexpected label/status %q/%q", set.SourceLabel, set.Status)
	}
	want := []string{"Geographic Uniqueness", "Cultural Heritage", "Global Contribution"}
	if len(set.Facts) != len(want) {
		t.Fatalf("expected %d facts, got %d", len(want), len(set.Facts))
	}
	for i, title := range want {
		if set.Facts[i].Title != title {
			t.Errorf("fact %d title = %q, want %q", i, set.Facts[i].Title, title)
		}
		if !strings.Contains(set.Facts[i].Content, "Wakanda") {
			t.Errorf("fact %d does not mention the country: %q", i, set.Facts[i].Content)
		}
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	b := newBase(t)
	set, _ := b.Lookup("France")
	set.Facts[0].Title = "mutated"
	again, _ := b.Lookup("France")
	if again.Facts[0].Title == "mutated" {
		t.Errorf("Lookup exposed the shared table")
	}
}

func TestAnswerQuestion(t *testing.T) {
	b := newBase(t)
	generic := b.AnswerQuestion("Wakanda", "anything").Text

	tests := []struct {
		name     string
		country  string
		question string
		want     string
		status   string
	}{
		{"capital", "Japan", "What is the capital?", "The capital of Japan is Tokyo.", models.StatusSuccess},
		{"capital multi-word", "United States", "Capital city please", "The capital of United States is Washington, D.C.", models.StatusSuccess},
		{"language", "Brazil", "Which LANGUAGE do they speak?", "The official language of Brazil is Portuguese.", models.StatusSuccess},
		{"currency", "Japan", "what currency is used", "The currency of Japan is the Japanese Yen.", models.StatusSuccess},
		// capital wins over language when both appear
		{"topic order", "France", "capital and language?", "The capital of France is Paris.", models.StatusSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.AnswerQuestion(tt.country, tt.question)
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
			if got.SourceLabel != AnswerLabel || got.Status != tt.status {
				t.Errorf("label/status = %q/%q", got.SourceLabel, got.Status)
			}
		})
	}

	if !strings.Contains(generic, "Wakanda") {
		t.Errorf("generic answer should mention the country: %q", generic)
	}
}

func TestAnswerQuestion_MissFallsThroughToGeneric(t *testing.T) {
	b := newBase(t)

	got := b.AnswerQuestion("Wakanda", "What is the capital?")
	if got.SourceLabel != AnswerLabel || got.Status != models.StatusFallback {
		t.Errorf("unexpected label/status %q/%q", got.SourceLabel, got.Status)
	}
	if got.Text != b.AnswerQuestion("Wakanda", "hello").Text {
		t.Errorf("dictionary miss should give the generic reply, got %q", got.Text)
	}

	// Kenya has a capital but no currency entry.
	if got := b.AnswerQuestion("Kenya", "currency?"); !strings.HasPrefix(got.Text, "That's a great question about Kenya") {
		t.Errorf("currency miss should give the generic reply, got %q", got.Text)
	}
}

func TestAnswerQuestion_Population(t *testing.T) {
	b := newBase(t)
	a := b.AnswerQuestion("Japan", "What's the population?")
	b2 := b.AnswerQuestion("Wakanda", "population")
	if !strings.Contains(a.Text, "Japan") || !strings.Contains(b2.Text, "Wakanda") {
		t.Errorf("population reply should mention the country: %q / %q", a.Text, b2.Text)
	}
	if a.Status != models.StatusFallback {
		t.Errorf("population reply status = %q", a.Status)
	}
}

func TestParse_RejectsWrongFactCount(t *testing.T) {
	raw := []byte("countries:\n  peru:\n    - title: A\n      content: B\n")
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for a country with one fact")
	}
}

func TestParse_RejectsEmptyFact(t *testing.T) {
	raw := []byte(`countries:
  peru:
    - {title: A, content: B}
    - {title: "", content: B}
    - {title: C, content: D}
`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for an empty title")
	}
}

func TestCountries_Sorted(t *testing.T) {
	got := newBase(t).Countries()
	if len(got) == 0 || got[0] != "australia" {
		t.Errorf("unexpected countries %v", got)
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := normalizeKey("  United \t  Kingdom "); got != "united kingdom" {
		t.Errorf("normalizeKey = %q", got)
	}
}
