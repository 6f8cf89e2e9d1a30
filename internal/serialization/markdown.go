package serialization

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"

	"mindm/internal/model"
)

var (
	xmlProlog = regexp.MustCompile(`<\?xml[^>]*\?>`)
	doctype   = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)

	// notesPolicy keeps the formatting a note can carry and drops scripts,
	// styles, event handlers and unsafe URLs.
	notesPolicy = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()

	notesConverter = md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "*",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "_",
		StrongDelimiter:  "**",
	})
)

// SerializeMarkdown renders the tree as a Markdown outline. Topics with
// children become numbered headings, leaves become list items. With
// includeNotes a "Notes:" line follows every topic that has notes.
func SerializeMarkdown(root *model.Topic, includeNotes bool) string {
	var lines []string
	visited := map[*model.Topic]bool{}

	var traverse func(t *model.Topic, level int, prefix string, index int)
	traverse = func(t *model.Topic, level int, prefix string, index int) {
		if visited[t] {
			return
		}
		visited[t] = true

		if level > 0 {
			if prefix == "" {
				prefix = fmt.Sprint(index)
			} else {
				prefix = fmt.Sprintf("%s.%d", prefix, index)
			}
		}

		notes := ""
		if includeNotes {
			if flat := NotesMarkdown(t.Notes); flat != "" {
				notes = "Notes: " + flat + "  "
			}
		}

		if t.HasSubtopics() {
			shown := ""
			if level > 0 {
				shown = prefix
			}
			lines = append(lines, fmt.Sprintf("%s %s %s  ", strings.Repeat("#", level+1), shown, t.Text))
			if notes != "" {
				lines = append(lines, notes)
			}
			for i, sub := range t.Subtopics {
				traverse(sub, level+1, prefix, i+1)
			}
			return
		}

		lines = append(lines, fmt.Sprintf("- %s  ", t.Text))
		if notes != "" {
			lines = append(lines, notes)
		}
	}

	if root != nil {
		traverse(root, 0, "", 0)
	}
	return strings.Join(lines, "\n")
}

// NotesMarkdown flattens notes to one Markdown string, preferring plain text,
// then XHTML, then RTF.
func NotesMarkdown(n *model.Notes) string {
	if n.Empty() {
		return ""
	}
	if n.Text != "" {
		return n.Text
	}
	if n.XHTML != "" {
		if md := XHTMLToMarkdown(n.XHTML); md != "" {
			return md
		}
	}
	if n.RTF != "" {
		return RTFToMarkdown(n.RTF)
	}
	return ""
}

// XHTMLToMarkdown unwraps the <root> or <body> element of a notes document,
// drops XML and DOCTYPE prologues, sanitizes the markup and converts it to
// Markdown. Markup the converter rejects is reduced to its text.
func XHTMLToMarkdown(xhtml string) string {
	clean := notesPolicy.Sanitize(unwrapNotes(xhtml))
	out, err := notesConverter.ConvertString(clean)
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(clean)))
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(out, "\n\n"))
}

// unwrapNotes returns the markup inside the document element of a notes
// document. Fragments without one come back unchanged apart from the
// prologues.
func unwrapNotes(xhtml string) string {
	xhtml = xmlProlog.ReplaceAllString(xhtml, "")
	xhtml = doctype.ReplaceAllString(xhtml, "")

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(xhtml), body)
	if err != nil {
		return xhtml
	}

	var b strings.Builder
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == "root" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if err := html.Render(&b, c); err != nil {
					return xhtml
				}
			}
			continue
		}
		if err := html.Render(&b, n); err != nil {
			return xhtml
		}
	}
	return b.String()
}

// rtfDestinations are groups that hold document data rather than text.
var rtfDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"header":     true,
	"footer":     true,
	"listtable":  true,
}

type rtfGroup struct {
	skip bool
	// uc is the number of fallback characters that follow a \u escape.
	uc int
}

// RTFToMarkdown extracts the text of an RTF document. Destination groups are
// dropped, paragraph marks become line breaks and \'hh and \u escapes are
// decoded, the former as Windows-1252.
func RTFToMarkdown(rtf string) string {
	var b strings.Builder
	groups := []rtfGroup{{uc: 1}}
	fallback := 0

	emit := func(r rune) {
		if fallback > 0 {
			fallback--
			return
		}
		if !groups[len(groups)-1].skip {
			b.WriteRune(r)
		}
	}

	for i := 0; i < len(rtf); {
		c := rtf[i]
		switch c {
		case '{':
			groups = append(groups, groups[len(groups)-1])
			i++
			continue
		case '}':
			if len(groups) > 1 {
				groups = groups[:len(groups)-1]
			}
			fallback = 0
			i++
			continue
		case '\r', '\n':
			i++
			continue
		case '\\':
		default:
			if fallback > 0 {
				fallback--
			} else if !groups[len(groups)-1].skip {
				b.WriteByte(c)
			}
			i++
			continue
		}

		i++
		if i >= len(rtf) {
			break
		}
		top := &groups[len(groups)-1]
		switch next := rtf[i]; {
		case next == '\'':
			if i+2 < len(rtf) {
				if v, err := strconv.ParseUint(rtf[i+1:i+3], 16, 8); err == nil {
					emit(charmap.Windows1252.DecodeByte(byte(v)))
				}
			}
			i += 3
		case next == '*':
			top.skip = true
			i++
		case next == '\\' || next == '{' || next == '}':
			emit(rune(next))
			i++
		case next == '~':
			emit(' ')
			i++
		case next == '_':
			emit('-')
			i++
		case next == '\n' || next == '\r':
			emit('\n')
			i++
		case isLetter(next):
			start := i
			for i < len(rtf) && isLetter(rtf[i]) {
				i++
			}
			word := rtf[start:i]
			pstart := i
			if i < len(rtf) && rtf[i] == '-' {
				i++
			}
			for i < len(rtf) && rtf[i] >= '0' && rtf[i] <= '9' {
				i++
			}
			param, perr := strconv.Atoi(rtf[pstart:i])
			if i < len(rtf) && rtf[i] == ' ' {
				i++
			}

			switch {
			case rtfDestinations[word]:
				top.skip = true
			case word == "par" || word == "line":
				emit('\n')
			case word == "tab":
				emit('\t')
			case word == "uc" && perr == nil:
				top.uc = param
			case word == "u" && perr == nil:
				if param < 0 {
					param += 65536
				}
				emit(rune(param))
				fallback = top.uc
			}
		default:
			i++
		}
	}
	return strings.TrimSpace(b.String())
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
