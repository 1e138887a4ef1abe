package prompt

import (
	"bytes"
	"text/template"
)

// Grade 8 and below: one idea plus an example.
var simpleTemplate = template.Must(template.New("simple").Parse(
	`In your own words, what is {{.Concept}}? Tell me the main idea and give one example of it.`))

// Grade 9 and up: causal reasoning.
var reasoningTemplate = template.Must(template.New("reasoning").Parse(
	`In your own words, explain how {{.Concept}} works and why it happens. Walk me through the cause and effect.`))

// ReasoningGrade is the lowest grade that gets the reasoning register.
const ReasoningGrade = 9

func renderTemplate(concept string, grade int) (string, error) {
	tmpl := simpleTemplate
	if grade >= ReasoningGrade {
		tmpl = reasoningTemplate
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Concept string }{concept}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
