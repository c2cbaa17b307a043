package models

import "strings"

// Prompt is a named LLM instruction with an optional message template.
// Template placeholders use {name} syntax.
type Prompt struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	System      string `yaml:"system" json:"system"`
	Template    string `yaml:"template" json:"template,omitempty"`
}

// Render substitutes {key} placeholders in the template
func (p *Prompt) Render(vars map[string]string) string {
	out := p.Template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
