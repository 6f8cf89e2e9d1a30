package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"mindm/internal/model"
)

func TestTreeLines(t *testing.T) {
	root := model.NewTopic("r", "Root")
	a := model.NewTopic("a", "A")
	a.Notes = &model.Notes{Text: "note"}
	a.AddTag("Duplicated")
	root.AddSubtopic(a)
	a.AddSubtopic(model.NewTopic("a1", "A1"))
	a.AddSubtopic(model.NewTopic("a2", "A2"))
	root.AddSubtopic(model.NewTopic("b", "B"))

	u := NewUI(&bytes.Buffer{}, false)
	assert.Equal(t, []string{
		"Root",
		"├── 1 A * #Duplicated",
		"│   ├── 1.1 A1",
		"│   └── 1.2 A2",
		"└── 2 B",
	}, u.TreeLines(root, false))

	lines := u.TreeLines(root, true)
	assert.Equal(t, "└── 2 B [b]", lines[4])
}

func TestTreeLinesStopsAtCycle(t *testing.T) {
	root := model.NewTopic("r", "Root")
	a := model.NewTopic("a", "A")
	root.AddSubtopic(a)
	a.Subtopics = append(a.Subtopics, root)

	u := NewUI(&bytes.Buffer{}, false)
	assert.Equal(t, []string{"Root", "└── 1 A", "    └── 1.1 Root"}, u.TreeLines(root, false))
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	u := NewUI(&buf, false)
	u.Error("failed")
	u.Warning("careful")
	u.Success("done")
	u.Message("%d topics\n", 3)
	assert.Equal(t, "! failed\n? careful\ndone\n3 topics\n", buf.String())
	assert.Equal(t, "local @ auto > ", u.Prompt("local", "auto"))
	assert.Equal(t, "> ", u.Prompt("", ""))
}
