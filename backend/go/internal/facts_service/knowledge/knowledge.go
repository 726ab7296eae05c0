// Package knowledge holds the curated country facts and the small
// capital/language/currency dictionaries used by chat.
package knowledge

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"country_facts/backend/go/internal/models"
)

const (
	// LookupLabel is the source label of every Lookup result.
	LookupLabel = "Enhanced Knowledge Base"
	// AnswerLabel is the source label of every chat answer.
	AnswerLabel = "Knowledge Base"
)

//go:embed knowledge.yaml
var defaultTable []byte

type table struct {
	Countries  map[string][]models.Fact `yaml:"countries"`
	Capitals   map[string]string        `yaml:"capitals"`
	Languages  map[string]string        `yaml:"languages"`
	Currencies map[string]string        `yaml:"currencies"`
}

// Base is read-only after construction and safe for concurrent use.
type Base struct {
	curated    map[string][]models.Fact
	capitals   map[string]string
	languages  map[string]string
	currencies map[string]string
}

// New loads the embedded table.
func New() (*Base, error) {
	return Parse(defaultTable)
}

// Parse builds a Base from a YAML document. Keys are normalized, so "United  States"
// and "united states" name the same country.
func Parse(raw []byte) (*Base, error) {
	var t table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge table: %w", err)
	}

	b := &Base{
		curated:    make(map[string][]models.Fact, len(t.Countries)),
		capitals:   normalizeKeys(t.Capitals),
		languages:  normalizeKeys(t.Languages),
		currencies: normalizeKeys(t.Currencies),
	}
	for country, facts := range t.Countries {
		if len(facts) != models.FactsPerSet {
			return nil, fmt.Errorf("country %q has %d facts, want %d", country, len(facts), models.FactsPerSet)
		}
		for i, f := range facts {
			if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Content) == "" {
				return nil, fmt.Errorf("country %q fact %d has an empty title or content", country, i+1)
			}
		}
		b.curated[normalizeKey(country)] = facts
	}
	return b, nil
}

// Lookup returns the curated facts for country, or three generic facts when
// the country is unknown. It always succeeds; the bool reports a curated hit.
func (b *Base) Lookup(country string) (models.FactSet, bool) {
	name := strings.TrimSpace(country)
	facts, curated := b.curated[normalizeKey(name)]
	if !curated {
		facts = genericFacts(name)
	}

	out := make([]models.Fact, len(facts))
	copy(out, facts)
	return models.FactSet{
		Facts:       out,
		SourceLabel: LookupLabel,
		Status:      models.StatusFallback,
	}, curated
}

// Countries lists the curated country keys in sorted order.
func (b *Base) Countries() []string {
	keys := make([]string, 0, len(b.curated))
	for k := range b.curated {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AnswerQuestion answers simple topic questions from the dictionaries. Topics
// are matched by substring in a fixed order; a dictionary miss falls through to
// the generic reply rather than trying the next topic.
func (b *Base) AnswerQuestion(country, question string) models.ChatAnswer {
	name := strings.TrimSpace(country)
	key := normalizeKey(name)
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "capital"):
		if capital, ok := b.capitals[key]; ok {
			return answer(fmt.Sprintf("The capital of %s is %s.", name, capital), models.StatusSuccess)
		}
	case strings.Contains(q, "population"):
		return answer(fmt.Sprintf("Population figures for %s change every year, so I'd suggest checking a recent census or the World Bank for current numbers.", name), models.StatusFallback)
	case strings.Contains(q, "language"):
		if language, ok := b.languages[key]; ok {
			return answer(fmt.Sprintf("The official language of %s is %s.", name, language), models.StatusSuccess)
		}
	case strings.Contains(q, "currency"):
		if currency, ok := b.currencies[key]; ok {
			return answer(fmt.Sprintf("The currency of %s is the %s.", name, currency), models.StatusSuccess)
		}
	}
	return answer(fmt.Sprintf("That's a great question about %s! I can tell you about its capital, official language or currency. Try asking about one of those.", name), models.StatusFallback)
}

func answer(text, status string) models.ChatAnswer {
	return models.ChatAnswer{Text: text, SourceLabel: AnswerLabel, Status: status}
}

func genericFacts(name string) []models.Fact {
	return []models.Fact{
		{
			Title:   "Geographic Uniqueness",
			Content: fmt.Sprintf("%s has a distinctive geography that has shaped its climate, settlements and way of life.", name),
		},
		{
			Title:   "Cultural Heritage",
			Content: fmt.Sprintf("%s carries a cultural heritage built over centuries, visible in its traditions, food and festivals.", name),
		},
		{
			Title:   "Global Contribution",
			Content: fmt.Sprintf("People from %s have contributed to science, art and trade far beyond its borders.", name),
		},
	}
}

func normalizeKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[normalizeKey(k)] = v
	}
	return out
}

// normalizeKey lower-cases s and collapses runs of whitespace to one space.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return b.String()
}
