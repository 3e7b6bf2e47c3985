// Package templates renders the outbound planning prompt and the
// formatted plan from embedded text templates.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

//go:embed files/*.md.tmpl
var files embed.FS

// Template names.
const (
	Prompt = "prompt.md.tmpl"
	Plan   = "plan.md.tmpl"
)

// HistoryEntry is one earlier request shown to the model for context.
type HistoryEntry struct {
	Input    string
	Response string
}

// PromptData feeds the Prompt template.
type PromptData struct {
	Task    string
	Stack   stack.TechStack
	History []HistoryEntry
}

// PlanData feeds the Plan template. Stack is optional.
type PlanData struct {
	Task  string
	Body  string
	Stack *stack.TechStack
}

// Renderer renders a named template.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// EmbedRenderer renders the templates compiled into the binary.
type EmbedRenderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"truncate": truncate,
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*EmbedRenderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(files, "files/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &EmbedRenderer{tmpl: t}, nil
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	if r.tmpl.Lookup(name) == nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// truncate shortens s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
