package serialization

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"mindm/internal/model"
)

// bracketed matches an optional node id followed by a [label].
var bracketed = regexp.MustCompile(`^[A-Za-z0-9_-]*\[(.*)\]$`)

// SerializeSimple renders the tree as an indented outline without metadata.
// The root sits one indent below the header line.
func SerializeSimple(root *model.Topic) string {
	lines := []string{header}
	visited := map[*model.Topic]bool{}

	var traverse func(t *model.Topic, indent int)
	traverse = func(t *model.Topic, indent int) {
		if visited[t] {
			return
		}
		visited[t] = true
		lines = append(lines, strings.Repeat(indentUnit, indent)+EscapeText(t.Text))
		for _, sub := range t.Subtopics {
			traverse(sub, indent+1)
		}
	}

	if root != nil {
		traverse(root, 1)
	}
	return strings.Join(lines, "\n")
}

// DeserializeSimple parses an indented outline. Labels may be wrapped in
// brackets, trailing %% comments are dropped and a leading "mindmap" header is
// skipped. Nesting follows indentation relative to the enclosing lines, so
// any consistent indent width works. Every node gets a fresh guid.
func DeserializeSimple(text string) *model.Topic {
	var asm treeAssembler
	headerSeen := false
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.ReplaceAll(raw, "\t", indentUnit)
		if i := strings.Index(line, commentMark); i >= 0 {
			line = line[:i]
		}
		label := strings.TrimSpace(line)
		if label == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			if strings.ToLower(label) == header {
				continue
			}
		}
		if m := bracketed.FindStringSubmatch(label); m != nil {
			label = m[1]
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		node := model.NewTopic(uuid.NewString(), UnescapeText(strings.TrimSpace(label)))
		asm.add(node, indent)
	}
	if asm.root != nil {
		relevel(asm.root, 0, map[*model.Topic]bool{})
	}
	return asm.root
}

// relevel derives levels from tree position.
func relevel(t *model.Topic, level int, visited map[*model.Topic]bool) {
	if visited[t] {
		return
	}
	visited[t] = true
	t.Level = level
	for _, sub := range t.Subtopics {
		relevel(sub, level+1, visited)
	}
}
