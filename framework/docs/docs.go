// Package docs parses doc comments attached to registered types and renders
// them through the view engine.
package docs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/view"
)

// Doc is a parsed comment: free text plus @tag lines.
type Doc struct {
	Description string
	Tags        map[string]string
}

var (
	leader = regexp.MustCompile(`^\s*(?:\*|//)? ?`)
	tagRe  = regexp.MustCompile(`^@(\S+)(?:\s*(.+))?$`)
)

// Parse splits a comment into its description and tags. Block (/** ... */)
// and line (//) comments are accepted, as is bare text. A repeated tag keeps
// its last value.
//
//	docs.Parse("Gadget builds widgets.\n@since 1.2")
func Parse(comment string) Doc {
	comment = strings.ReplaceAll(comment, "\r\n", "\n")
	lines := strings.Split(comment, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "/*") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.HasSuffix(strings.TrimSpace(lines[n-1]), "*/") {
		lines = lines[:n-1]
	}

	doc := Doc{Tags: make(map[string]string)}
	var text []string
	for _, line := range lines {
		line = leader.ReplaceAllString(line, "")
		if m := tagRe.FindStringSubmatch(line); m != nil {
			doc.Tags[m[1]] = m[2]
			continue
		}
		text = append(text, line)
	}
	doc.Description = strings.TrimSpace(strings.Join(text, "\n"))
	return doc
}

// TagNames returns the tag names, sorted.
func (d Doc) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for k := range d.Tags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Param is one constructor parameter as shown on a page.
type Param struct {
	Name     string
	Type     string
	Default  string
	Optional bool
}

// Page is the data handed to a documentation view.
type Page struct {
	Type    string
	Doc     Doc
	Params  []Param
	Options map[string]any
}

// Document builds the page for a registered type.
func Document(d *container.Descriptor, options map[string]any) Page {
	p := Page{Type: d.Name, Doc: Parse(d.Doc), Options: options}
	for _, param := range d.Params {
		dp := Param{Name: param.Name, Type: param.Type.String(), Optional: param.Optional}
		if param.HasDefault {
			dp.Default = fmt.Sprintf("%v", param.Default)
		}
		p.Params = append(p.Params, dp)
	}
	return p
}

// Lookup documents typeName from types.
func Lookup(types *container.Types, typeName string, options map[string]any) (Page, error) {
	d, ok := types.Lookup(typeName)
	if !ok {
		return Page{}, fmt.Errorf("docs: %w: %s", container.ErrTypeNotFound, typeName)
	}
	return Document(d, options), nil
}

// Render renders p with the named view.
func Render(e *view.Engine, name string, p Page) (string, error) {
	return e.String(name, p)
}

// String is the plain-text form used when no view is available.
func (p Page) String() string {
	var sb strings.Builder
	sb.WriteString(p.Type)
	sb.WriteString("\n")
	if p.Doc.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(p.Doc.Description)
		sb.WriteString("\n")
	}
	if len(p.Params) > 0 {
		sb.WriteString("\nParameters:\n")
		for _, param := range p.Params {
			fmt.Fprintf(&sb, "  %s %s", param.Name, param.Type)
			if param.Default != "" {
				fmt.Fprintf(&sb, " = %s", param.Default)
			}
			if param.Optional {
				sb.WriteString(" (optional)")
			}
			sb.WriteString("\n")
		}
	}
	if len(p.Doc.Tags) > 0 {
		sb.WriteString("\n")
		for _, name := range p.Doc.TagNames() {
			fmt.Fprintf(&sb, "@%s %s\n", name, p.Doc.Tags[name])
		}
	}
	return sb.String()
}
