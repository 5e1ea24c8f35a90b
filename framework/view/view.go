// Package view renders html/template files from a single directory.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

// Engine resolves template names to <Dir>/<name><Ext>.
type Engine struct {
	Dir string
	Ext string

	layout string
	funcs  template.FuncMap
}

// New creates an Engine.
// dir is the templates directory (e.g. "views"), ext the file extension (e.g. ".html").
func New(dir, ext string) *Engine {
	return &Engine{Dir: dir, Ext: ext}
}

// WithLayout returns a copy of e that renders every view inside layout. The
// layout's template is executed; views define blocks it references.
//
//	engine.WithLayout("layout").Render(w, "docs", data)
func (e *Engine) WithLayout(layout string) *Engine {
	cp := *e
	cp.layout = layout
	return &cp
}

// Funcs returns a copy of e that registers fm on every parse.
func (e *Engine) Funcs(fm template.FuncMap) *Engine {
	cp := *e
	cp.funcs = make(template.FuncMap, len(e.funcs)+len(fm))
	for k, v := range e.funcs {
		cp.funcs[k] = v
	}
	for k, v := range fm {
		cp.funcs[k] = v
	}
	return &cp
}

// Path returns the file a view name maps to.
func (e *Engine) Path(name string) string {
	return filepath.Join(e.Dir, name+e.Ext)
}

// Exists reports whether the view file is present.
func (e *Engine) Exists(name string) bool {
	info, err := os.Stat(e.Path(name))
	return err == nil && !info.IsDir()
}

// Render executes the named view with data into w.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	files := []string{e.Path(name)}
	entry := filepath.Base(files[0])
	if e.layout != "" {
		files = append([]string{e.Path(e.layout)}, files...)
		entry = filepath.Base(files[0])
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("view: template not found: %s", f)
		}
	}

	tmpl, err := template.New(entry).Funcs(e.funcs).ParseFiles(files...)
	if err != nil {
		return fmt.Errorf("view: parsing %s: %w", name, err)
	}
	if err := tmpl.ExecuteTemplate(w, entry, data); err != nil {
		return fmt.Errorf("view: rendering %s: %w", name, err)
	}
	return nil
}

// String renders the named view into a string.
func (e *Engine) String(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
