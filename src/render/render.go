// Package render is the seam over the template engine. The core pipeline
// only needs one capability from it: given a template string and a variable
// context, return the rendered text or an error.
package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateError reports a template that failed to parse or execute. It
// carries the template name and the underlying engine diagnostic.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Renderer evaluates Go text templates with the sprig function map. Context
// keys are bound as top-level fields, so templates reference them as
// {{.KEY}}. Referencing an undefined key is an error.
type Renderer struct {
	funcs template.FuncMap
}

func New() *Renderer {
	return &Renderer{funcs: sprig.TxtFuncMap()}
}

// Render evaluates one template against ctx and returns the output trimmed
// of surrounding whitespace.
func (r *Renderer) Render(name, text string, ctx map[string]string) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(r.funcs).Parse(text)
	if err != nil {
		return "", &TemplateError{Template: name, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", &TemplateError{Template: name, Err: err}
	}
	return strings.TrimSpace(buf.String()), nil
}

// RenderAll evaluates every named template against ctx in lexicographic name
// order and returns the name → rendered value mapping. The first failure
// aborts the batch.
func (r *Renderer) RenderAll(templates map[string]string, ctx map[string]string) (map[string]string, error) {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	// Sorted so failures are reported deterministically.
	sort.Strings(names)

	rendered := make(map[string]string, len(templates))
	for _, name := range names {
		value, err := r.Render(name, templates[name], ctx)
		if err != nil {
			return nil, err
		}
		rendered[name] = value
	}
	return rendered, nil
}
