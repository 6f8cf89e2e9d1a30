package export

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"regexp"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

// MarkmapColorFreezeLevel is the branch depth from which markmap keeps the
// colour of the parent branch.
const MarkmapColorFreezeLevel = 3

//go:embed templates/*
var templateFS embed.FS

var (
	pages    = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	markmaps = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.md"))

	scriptEnd = regexp.MustCompile(`(?i)</(script)`)
)

type pageData struct {
	Title            string
	Body             any
	ColorFreezeLevel int
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(set executor, name string, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildMarkmapData wraps Markdown in the markmap front matter.
func BuildMarkmapData(markdown string) (string, error) {
	return execute(markmaps, "markmap.md", pageData{Body: markdown, ColorFreezeLevel: MarkmapColorFreezeLevel})
}

// BuildMarkmapHTML embeds markmap data in a page that renders it. The data
// sits in a script element verbatim, so only closing script tags are broken
// up.
func BuildMarkmapHTML(markmap string) (string, error) {
	body := template.HTML(scriptEnd.ReplaceAllString(markmap, `<\/$1`))
	return execute(pages, "markmap.html", pageData{Title: "Markmap", Body: body})
}

// BuildMermaidHTML embeds a mermaid diagram in a page that renders it.
func BuildMermaidHTML(mermaid string) (string, error) {
	return execute(pages, "mermaid.html", pageData{Title: "Mermaid", Body: mermaid})
}

// BuildMarkdownHTML converts Markdown to HTML. Second level headings get a
// rule below them. Raw HTML in the Markdown is not rendered.
func BuildMarkdownHTML(markdown string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &body); err != nil {
		return "", err
	}
	html := strings.ReplaceAll(body.String(), "</h2>", "</h2><hr/>")
	return execute(pages, "markdown.html", pageData{Title: "Mindmap", Body: template.HTML(html)})
}
