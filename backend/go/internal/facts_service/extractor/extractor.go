// Package extractor turns free-form model output into exactly three facts.
//
// Model output is unreliable, so extraction is a cascade: each strategy is
// tried against the whole text and the first one producing at least one fact
// wins. Whatever it yields is truncated or padded to models.FactsPerSet.
package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"country_facts/backend/go/internal/models"
)

// MinSentenceLength is the length (in characters) a sentence must exceed to be
// used by the sentence fallback. It is a tuning value, not a correctness rule.
const MinSentenceLength = 20

// Strategy is one extraction attempt. Extract must be pure.
type Strategy struct {
	Name    string
	Extract func(text string) []models.Fact
}

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?(?:</think>|\z)`)
	// One or two digits so that years ending a sentence ("in 1990. ") are not markers.
	// A digit right after the dot is a decimal and is filtered in numberedMarkers.
	numberedMarker = regexp.MustCompile(`(?:^|\s)\d{1,2}\.`)
	bulletMarker   = regexp.MustCompile(`(?m)^[ \t]*[•*-][ \t]+`)
	// Title runs to the first colon, period, newline or spaced dash.
	segmentPattern = regexp.MustCompile(`(?s)^([^:.\n]+?)\s*(?::|\.|\n|\s[-–—]\s)\s*(.+)$`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	lineBreaks     = regexp.MustCompile(`\s*\n\s*`)
)

// Extractor runs an ordered list of strategies.
type Extractor struct {
	strategies []Strategy
}

// New returns an Extractor using DefaultStrategies.
func New() *Extractor {
	return NewWithStrategies(DefaultStrategies()...)
}

// NewWithStrategies returns an Extractor trying strategies in the given order.
func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// DefaultStrategies is numbered list, then bullet list, then sentence split.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "numbered", Extract: Numbered},
		{Name: "bullets", Extract: Bullets},
		{Name: "sentences", Extract: Sentences},
	}
}

// Extract always returns exactly models.FactsPerSet facts.
func (e *Extractor) Extract(rawText, countryName string) []models.Fact {
	facts, _ := e.ExtractWithStrategy(rawText, countryName)
	return facts
}

// ExtractWithStrategy is Extract plus the name of the strategy that matched,
// or "padding" when none did.
func (e *Extractor) ExtractWithStrategy(rawText, countryName string) ([]models.Fact, string) {
	text := thinkBlock.ReplaceAllString(rawText, "")

	var facts []models.Fact
	used := "padding"
	for _, s := range e.strategies {
		if found := s.Extract(text); len(found) > 0 {
			facts, used = found, s.Name
			break
		}
	}

	if len(facts) > models.FactsPerSet {
		facts = facts[:models.FactsPerSet]
	}
	return Pad(facts, countryName), used
}

// Pad appends generic facts about countryName until there are FactsPerSet.
func Pad(facts []models.Fact, countryName string) []models.Fact {
	name := strings.TrimSpace(countryName)
	if name == "" {
		name = "this country"
	}
	out := make([]models.Fact, 0, models.FactsPerSet)
	out = append(out, facts...)
	for len(out) < models.FactsPerSet {
		out = append(out, models.Fact{
			Title:   "About " + name,
			Content: fmt.Sprintf("%s has a rich history and culture worth exploring.", name),
		})
	}
	return out
}

// Numbered parses "1. Title: content" items. Content runs to the next marker.
// The space after the dot and the title separator are both optional.
func Numbered(text string) []models.Fact {
	return listItems(text, numberedMarkers(text))
}

// Bullets parses "- Title: content" items where the bullet starts a line.
func Bullets(text string) []models.Fact {
	return listItems(text, bulletMarker.FindAllStringIndex(text, -1))
}

func numberedMarkers(text string) [][]int {
	var locs [][]int
	for _, loc := range numberedMarker.FindAllStringIndex(text, -1) {
		if loc[1] < len(text) && text[loc[1]] >= '0' && text[loc[1]] <= '9' {
			continue
		}
		locs = append(locs, loc)
	}
	return locs
}

// Sentences uses the first sentences longer than MinSentenceLength as untitled facts.
func Sentences(text string) []models.Fact {
	var facts []models.Fact
	for _, fragment := range sentenceSplit.Split(text, -1) {
		sentence := strings.TrimSpace(lineBreaks.ReplaceAllString(fragment, " "))
		if utf8.RuneCountInString(sentence) <= MinSentenceLength {
			continue
		}
		facts = append(facts, models.Fact{
			Title:   fmt.Sprintf("Interesting Fact %d", len(facts)+1),
			Content: sentence + ".",
		})
		if len(facts) == models.FactsPerSet {
			break
		}
	}
	return facts
}

func listItems(text string, locs [][]int) []models.Fact {
	var facts []models.Fact
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if f, ok := parseSegment(text[loc[1]:end], len(facts)+1); ok {
			facts = append(facts, f)
		}
	}
	return facts
}

// parseSegment splits a list item into title and content. An item with no
// separator becomes untitled content, labelled like a sentence fact.
func parseSegment(segment string, n int) (models.Fact, bool) {
	segment = strings.TrimSpace(segment)
	if m := segmentPattern.FindStringSubmatch(segment); m != nil {
		title := trimDecoration(m[1])
		content := trimDecoration(lineBreaks.ReplaceAllString(m[2], " "))
		if title != "" && content != "" {
			return models.Fact{Title: title, Content: content}, true
		}
	}
	content := trimDecoration(strings.TrimRight(lineBreaks.ReplaceAllString(segment, " "), ":.-–— "))
	if content == "" {
		return models.Fact{}, false
	}
	if !strings.HasSuffix(content, "!") && !strings.HasSuffix(content, "?") {
		content += "."
	}
	return models.Fact{Title: fmt.Sprintf("Interesting Fact %d", n), Content: content}, true
}

// trimDecoration strips whitespace and markdown emphasis from both ends.
func trimDecoration(s string) string {
	return strings.Trim(s, " \t\r\n*_#\"")
}
