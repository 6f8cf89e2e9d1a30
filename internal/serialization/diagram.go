package serialization

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"

	"mindm/internal/model"
)

// IgnoreRTF suppresses the rtf attribute in diagram metadata.
var IgnoreRTF = true

const (
	header      = "mindmap"
	indentUnit  = "  "
	commentMark = "%%"
)

var (
	idLinePattern   = regexp.MustCompile(`^(id(\d+))\[(.*)\]$`)
	fullLinePattern = regexp.MustCompile(`^( *)\[(.*?)\]\s*%%\s*(\{.*\})\s*$`)
)

type linkAttrs struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
	ID   any    `json:"id,omitempty"`
}

type imageAttrs struct {
	Text string `json:"text"`
}

type iconAttrs struct {
	Text        string `json:"text,omitempty"`
	IsStockIcon bool   `json:"is_stock_icon"`
	Index       int    `json:"index"`
	Signature   string `json:"signature,omitempty"`
	Path        string `json:"path,omitempty"`
	Group       string `json:"group,omitempty"`
}

type notesAttrs struct {
	Text  string `json:"text,omitempty"`
	XHTML string `json:"xhtml,omitempty"`
	RTF   string `json:"rtf,omitempty"`
}

type referenceAttrs struct {
	ID1       any    `json:"id_1,omitempty"`
	ID2       any    `json:"id_2,omitempty"`
	Direction int    `json:"direction,omitempty"`
	Label     string `json:"label,omitempty"`
}

// topicAttrs is the metadata comment of one diagram line. Field order is the
// key order on the wire.
type topicAttrs struct {
	ID         any              `json:"id"`
	RTF        string           `json:"rtf,omitempty"`
	Selected   bool             `json:"selected,omitempty"`
	Links      []linkAttrs      `json:"links,omitempty"`
	Image      *imageAttrs      `json:"image,omitempty"`
	Icons      []iconAttrs      `json:"icons,omitempty"`
	Notes      *notesAttrs      `json:"notes,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
	References []referenceAttrs `json:"references,omitempty"`
}

// mappedID returns the numeric id of guid, or the guid itself when unmapped.
func mappedID(m Mapping, guid string) any {
	if id, ok := m[guid]; ok {
		return id
	}
	return guid
}

func newTopicAttrs(t *model.Topic, m Mapping) topicAttrs {
	a := topicAttrs{ID: mappedID(m, t.GUID)}
	if t.RTF != t.Text && !IgnoreRTF {
		a.RTF = t.RTF
	}
	a.Selected = t.Selected
	for _, l := range t.Links {
		la := linkAttrs{Text: l.Text, URL: l.URL}
		if l.GUID != "" {
			la.ID = mappedID(m, l.GUID)
		}
		a.Links = append(a.Links, la)
	}
	if t.Image != nil {
		a.Image = &imageAttrs{Text: t.Image.Text}
	}
	for _, i := range t.Icons {
		a.Icons = append(a.Icons, iconAttrs{
			Text:        i.Text,
			IsStockIcon: i.IsStockIcon,
			Index:       i.Index,
			Signature:   i.Signature,
			Path:        i.Path,
			Group:       i.Group,
		})
	}
	if !t.Notes.Empty() {
		a.Notes = &notesAttrs{Text: t.Notes.Text, XHTML: t.Notes.XHTML, RTF: t.Notes.RTF}
	}
	for _, tag := range t.Tags {
		a.Tags = append(a.Tags, tag.Text)
	}
	for _, r := range t.References {
		ra := referenceAttrs{Direction: r.Direction, Label: r.Label}
		if r.GUID1 != "" {
			ra.ID1 = mappedID(m, r.GUID1)
		}
		if r.GUID2 != "" {
			ra.ID2 = mappedID(m, r.GUID2)
		}
		a.References = append(a.References, ra)
	}
	return a
}

// Serialize renders the tree in the diagram format. With idOnly every line is
// id<N>[text]; otherwise every line is [text] followed by a %% comment holding
// the topic's metadata as ASCII-only JSON. Guids missing from m are written
// as-is.
func Serialize(root *model.Topic, m Mapping, idOnly bool) (string, error) {
	lines := []string{header}
	visited := map[*model.Topic]bool{}

	var traverse func(t *model.Topic, indent int) error
	traverse = func(t *model.Topic, indent int) error {
		if visited[t] {
			return nil
		}
		visited[t] = true

		prefix := strings.Repeat(indentUnit, indent)
		text := EscapeText(t.Text)
		if idOnly {
			lines = append(lines, fmt.Sprintf("%sid%v[%s]", prefix, mappedID(m, t.GUID), text))
		} else {
			comment, err := marshalASCII(newTopicAttrs(t, m))
			if err != nil {
				return fmt.Errorf("failed to encode attributes of topic %s: %w", t.GUID, err)
			}
			lines = append(lines, fmt.Sprintf("%s[%s] %s %s", prefix, text, commentMark, comment))
		}
		for _, sub := range t.Subtopics {
			if err := traverse(sub, indent+1); err != nil {
				return err
			}
		}
		return nil
	}

	if root != nil {
		if err := traverse(root, 1); err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

// nonBlankLines drops blank lines and a leading "mindmap" header.
func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 && strings.ToLower(strings.TrimSpace(lines[0])) == header {
		lines = lines[1:]
	}
	return lines
}

// treeAssembler rebuilds parent/child edges from indentation levels.
type treeAssembler struct {
	root  *model.Topic
	stack []*model.Topic
	depth []int
}

// add places node below the nearest open node with a smaller level. Nodes
// that close every open node are attached to the root.
func (a *treeAssembler) add(node *model.Topic, level int) {
	if a.root == nil {
		a.root = node
		a.stack = append(a.stack, node)
		a.depth = append(a.depth, level)
		return
	}
	for len(a.stack) > 0 && a.depth[len(a.depth)-1] >= level {
		a.stack = a.stack[:len(a.stack)-1]
		a.depth = a.depth[:len(a.depth)-1]
	}
	if len(a.stack) > 0 {
		a.stack[len(a.stack)-1].AddSubtopic(node)
	} else {
		a.root.AddSubtopic(node)
	}
	a.stack = append(a.stack, node)
	a.depth = append(a.depth, level)
}

// DeserializeWithID parses the id-only diagram format. Ids found in m resolve
// to their guids; unknown ids get fresh guids registered in m. Lines that do
// not match are skipped.
func DeserializeWithID(text string, m Mapping) *model.Topic {
	rev := newReverseMapping(m)
	var asm treeAssembler
	for _, line := range nonBlankLines(text) {
		stripped := strings.TrimLeft(line, " ")
		level := (len(line) - len(stripped)) / 2
		match := idLinePattern.FindStringSubmatch(strings.TrimRight(stripped, " "))
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		node := model.NewTopic(rev.guid(id), UnescapeText(match[3]))
		node.Level = level
		asm.add(node, level)
	}
	return asm.root
}

// DeserializeFull parses the diagram format with metadata comments. A comment
// that is not valid JSON leaves the node with no attributes and the bracket
// text as its label.
func DeserializeFull(text string, m Mapping) *model.Topic {
	rev := newReverseMapping(m)
	var asm treeAssembler
	for _, line := range nonBlankLines(text) {
		match := fullLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		level := len(match[1]) / 2
		attrs, ok := parseAttrs(match[3])
		if !ok {
			attrs = map[string]any{}
		}
		node := topicFromAttrs(attrs, UnescapeText(match[2]), rev)
		node.Level = level
		asm.add(node, level)
	}
	return asm.root
}

func parseAttrs(s string) (map[string]any, bool) {
	v, err := oj.ParseString(s)
	if err != nil {
		return nil, false
	}
	attrs, ok := v.(map[string]any)
	return attrs, ok
}

// restoreGUID maps a numeric id from the metadata back to a guid. Values that
// are not numbers produce an unregistered fresh guid.
func restoreGUID(v any, rev *reverseMapping) string {
	switch n := v.(type) {
	case int64:
		return rev.guid(int(n))
	case int:
		return rev.guid(n)
	case float64:
		if n == math.Trunc(n) {
			return rev.guid(int(n))
		}
	case string:
		if id, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return rev.guid(id)
		}
	}
	return uuid.NewString()
}

func str(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func integer(m map[string]any, key string, def int) int {
	switch n := m[key].(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}

func boolean(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func objects(m map[string]any, key string) []map[string]any {
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func topicFromAttrs(attrs map[string]any, fallbackText string, rev *reverseMapping) *model.Topic {
	guid := uuid.NewString()
	if id, ok := attrs["id"]; ok {
		guid = restoreGUID(id, rev)
	}
	text := fallbackText
	if _, ok := attrs["text"]; ok {
		text = str(attrs, "text")
	}

	node := model.NewTopic(guid, text)
	node.RTF = str(attrs, "rtf")
	node.Selected = boolean(attrs, "selected", false)

	for _, l := range objects(attrs, "links") {
		link := &model.Link{Text: str(l, "text"), URL: str(l, "url")}
		if id, ok := l["id"]; ok {
			link.GUID = restoreGUID(id, rev)
		}
		node.Links = append(node.Links, link)
	}

	if img, ok := attrs["image"].(map[string]any); ok {
		node.Image = &model.Image{Text: str(img, "text")}
	}

	for _, i := range objects(attrs, "icons") {
		node.Icons = append(node.Icons, &model.Icon{
			Text:        str(i, "text"),
			IsStockIcon: boolean(i, "is_stock_icon", true),
			Index:       integer(i, "index", 1),
			Signature:   str(i, "signature"),
			Path:        str(i, "path"),
			Group:       str(i, "group"),
		})
	}

	switch notes := attrs["notes"].(type) {
	case map[string]any:
		node.Notes = &model.Notes{Text: str(notes, "text"), XHTML: str(notes, "xhtml"), RTF: str(notes, "rtf")}
	case string:
		node.Notes = &model.Notes{Text: notes}
	}

	if tags, ok := attrs["tags"].([]any); ok {
		for _, item := range tags {
			var tagText string
			switch tag := item.(type) {
			case map[string]any:
				tagText = str(tag, "text")
			case string:
				tagText = tag
			default:
				tagText = fmt.Sprint(tag)
			}
			node.Tags = append(node.Tags, &model.Tag{Text: tagText})
		}
	}

	for _, r := range objects(attrs, "references") {
		ref := &model.Reference{Label: str(r, "label"), Direction: integer(r, "direction", 0)}
		if id, ok := r["id_1"]; ok {
			ref.GUID1 = restoreGUID(id, rev)
		}
		if id, ok := r["id_2"]; ok {
			ref.GUID2 = restoreGUID(id, rev)
		}
		node.References = append(node.References, ref)
	}
	return node
}
