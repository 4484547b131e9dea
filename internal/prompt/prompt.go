// Package prompt holds the system prompts sent with every translation request.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/BurntSushi/toml"
)

// Kind selects the prompt for a document family.
type Kind string

const (
	KindText Kind = "text"
	KindDocx Kind = "docx"
	KindPptx Kind = "pptx"
)

// Vars are available to every template as {{.TargetLanguage}} and {{.Delimiter}}.
type Vars struct {
	TargetLanguage string
	Delimiter      string
}

// Templates are the raw prompt templates, one per Kind.
type Templates struct {
	Text string `toml:"text"`
	Docx string `toml:"docx"`
	Pptx string `toml:"pptx"`
}

// Default returns the built-in templates.
func Default() Templates {
	return Templates{
		Text: "You are a professional translator. Translate the provided text to {{.TargetLanguage}} while " +
			"preserving markdown or plaintext structure. Return only the translation.",
		Docx: "You are a meticulous translator. Translate the user content into {{.TargetLanguage}}. " +
			"Do not add or remove any tags. Each segment is wrapped in <sX>...</sX> tags. " +
			"Keep tags identical and in the same order. When multiple paragraphs are provided, they are separated by " +
			"the token {{.Delimiter}}. Return paragraphs in the same order using the same delimiter.",
		Pptx: "You are a meticulous translator. Translate the slide text into {{.TargetLanguage}} while preserving " +
			"the <sX> tags exactly. Paragraphs are separated with {{.Delimiter}}. Return them in the same order " +
			"using the same delimiter.",
	}
}

// Load reads templates from a TOML file. Keys missing from the file keep their
// built-in value.
func Load(path string) (Templates, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var override Templates
	if err := toml.Unmarshal(content, &override); err != nil {
		return t, fmt.Errorf("failed to unmarshal prompts file: %w", err)
	}
	if override.Text != "" {
		t.Text = override.Text
	}
	if override.Docx != "" {
		t.Docx = override.Docx
	}
	if override.Pptx != "" {
		t.Pptx = override.Pptx
	}
	return t, nil
}

// Render executes the template for kind.
func (t Templates) Render(kind Kind, vars Vars) (string, error) {
	var src string
	switch kind {
	case KindText:
		src = t.Text
	case KindDocx:
		src = t.Docx
	case KindPptx:
		src = t.Pptx
	default:
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}

	tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("invalid %s prompt template: %w", kind, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", kind, err)
	}
	return buf.String(), nil
}

// Set holds rendered prompts.
type Set struct {
	Text string
	Docx string
	Pptx string
}

// RenderAll renders every template, failing on the first broken one.
func (t Templates) RenderAll(vars Vars) (Set, error) {
	var s Set
	var err error
	if s.Text, err = t.Render(KindText, vars); err != nil {
		return s, err
	}
	if s.Docx, err = t.Render(KindDocx, vars); err != nil {
		return s, err
	}
	if s.Pptx, err = t.Render(KindPptx, vars); err != nil {
		return s, err
	}
	return s, nil
}
