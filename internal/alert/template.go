package alert

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[High Consumption Alert]
Site: {{.Site}}
Account: {{.Account}}
Period: {{.Period}}
Consumption: {{.ConsumptionKWh}} kWh
Baseline: {{.BaselineKWh}} kWh ({{.SampleCount}} months)
Percent of Baseline: {{.PercentOfBaseline}}%
Amount Due: R$ {{.AmountDue}}
Due Date: {{.DueDate}}
Document: {{.SourceFile}}`

// TemplateData provides fields for rendering alert content.
type TemplateData struct {
	Site              string
	Account           string
	Period            string
	ConsumptionKWh    string
	BaselineKWh       string
	SampleCount       int
	PercentOfBaseline string
	AmountDue         string
	DueDate           string
	SourceFile        string
}

// Template renders alert content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses an alert template, falling back to
// DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("consumption-alert").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
