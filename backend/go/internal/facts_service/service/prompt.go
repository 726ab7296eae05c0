package service

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed prompt.tmpl
var factsPromptSource string

var factsPrompt = template.Must(template.New("facts").Parse(factsPromptSource))

// renderFactsPrompt asks for three numbered "Title: content" facts, the shape
// the numbered extraction strategy expects.
func renderFactsPrompt(country string) (string, error) {
	var buf bytes.Buffer
	if err := factsPrompt.Execute(&buf, struct{ Country string }{country}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
