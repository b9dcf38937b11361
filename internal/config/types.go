package config

import (
	"git.home.luguber.info/inful/commentlink/internal/foundation/normalization"
)

// OutputFormat selects how scan and resolve results are rendered.
type OutputFormat string

const (
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
)

var outputFormatNormalizer = normalization.NewNormalizer("output format", map[string]OutputFormat{
	"text":     OutputText,
	"json":     OutputJSON,
	"markdown": OutputMarkdown,
	"md":       OutputMarkdown,
	"html":     OutputHTML,
}, OutputText)

// ParseOutputFormat converts user input; empty input yields text.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	return outputFormatNormalizer.Parse(raw)
}

// OutputFormats lists accepted format names for help text.
func OutputFormats() []string {
	return outputFormatNormalizer.ValidKeys()
}
