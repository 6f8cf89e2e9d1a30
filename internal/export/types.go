// Package export renders a canonical mind map into the formats it is shared
// in: standalone HTML pages for mermaid, markmap and Markdown, and the data
// only variants they are built from.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// Type names an export format.
type Type string

const (
	TypeMermaidHTML  Type = "mermaid_html"
	TypeMarkmapHTML  Type = "markmap_html"
	TypeMarkdownHTML Type = "markdown_html"
	TypeJSON         Type = "json"
	TypeYAML         Type = "yaml"
	TypeMermaid      Type = "mermaid"
	TypeMarkmap      Type = "markmap"
	TypeMarkdown     Type = "markdown"
)

// Types lists every supported export type.
var Types = []Type{
	TypeMermaidHTML, TypeMarkmapHTML, TypeMarkdownHTML,
	TypeJSON, TypeYAML, TypeMermaid, TypeMarkmap, TypeMarkdown,
}

// ErrUnknownExportType is returned for a type not in Types.
var ErrUnknownExportType = errors.New("unknown export type")

// ParseType validates s as an export type.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExportType, s)
}

// HTML reports whether the type produces a standalone page.
func (t Type) HTML() bool {
	return strings.HasSuffix(string(t), "_html")
}

// Extension is the file extension written for the type.
func (t Type) Extension() string {
	switch {
	case t.HTML():
		return ".htm"
	case t == TypeJSON:
		return ".json"
	case t == TypeYAML:
		return ".yaml"
	case t == TypeMermaid:
		return ".mmd"
	case t == TypeMarkmap, t == TypeMarkdown:
		return ".md"
	}
	return ".txt"
}

// Result is a finished export. Source is the data the output was built
// from; for data only types both are the same.
type Result struct {
	Type   Type
	Source string
	Output string
}
