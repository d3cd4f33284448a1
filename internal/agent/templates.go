package agent

import (
	_ "embed"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a named prompt preset.
type Template struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	Prompt      string `json:"prompt" yaml:"prompt"`
}

// CategoryLabels are the display names of template categories.
var CategoryLabels = map[string]string{
	"competitor":  "Wettbewerber-Analyse",
	"technical":   "Technische Analyse",
	"seo":         "SEO-Analyse",
	"procurement": "E-Procurement",
}

//go:embed templates.yaml
var templatesYAML []byte

var templates = mustLoadTemplates(templatesYAML)

func mustLoadTemplates(raw []byte) []Template {
	var ts []Template
	if err := yaml.Unmarshal(raw, &ts); err != nil {
		panic("agent: parse templates.yaml: " + err.Error())
	}
	for i := range ts {
		ts[i].Prompt = strings.TrimSpace(ts[i].Prompt)
	}
	return ts
}

// Templates returns every preset, optionally limited to one category.
func Templates(category string) []Template {
	if category == "" {
		return slices.Clone(templates)
	}
	var out []Template
	for _, t := range templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// TemplateByID looks up a preset.
func TemplateByID(id string) (Template, bool) {
	i := slices.IndexFunc(templates, func(t Template) bool { return t.ID == id })
	if i < 0 {
		return Template{}, false
	}
	return templates[i], true
}
