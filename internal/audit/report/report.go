// Package report turns a composite audit record into human-readable
// output: a terminal rendering and a markdown narrative.
package report

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

//go:embed templates/audit.tmpl
var templateFS embed.FS

// Synthesizer renders one audit result.
type Synthesizer interface {
	Render(w io.Writer, result *schema.AuditResult) error
}

// MarkdownSynthesizer renders the audit as a markdown narrative from the
// embedded template.
type MarkdownSynthesizer struct {
	tmpl *template.Template
}

// NewMarkdownSynthesizer parses the embedded report template.
func NewMarkdownSynthesizer() (*MarkdownSynthesizer, error) {
	tmpl, err := template.New("audit.tmpl").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/audit.tmpl")
	if err != nil {
		return nil, fmt.Errorf("report: parse template: %w", err)
	}
	return &MarkdownSynthesizer{tmpl: tmpl}, nil
}

func (s *MarkdownSynthesizer) Render(w io.Writer, result *schema.AuditResult) error {
	if err := s.tmpl.Execute(w, result); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}
