package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopicNormalizesText(t *testing.T) {
	topic := NewTopic("g", "A \"B\"\nC")
	assert.Equal(t, "A `B`C", topic.Text)

	topic = NewTopic("g", "it's\r\n'quoted'")
	assert.Equal(t, "it`s`quoted`", topic.Text)

	topic.SetText("x\"y")
	assert.Equal(t, "x`y", topic.Text)
}

func TestAddSubtopicSetsParent(t *testing.T) {
	root := NewTopic("root", "Root")
	child := NewTopic("child", "Child")
	root.AddSubtopic(child)

	require.Len(t, root.Subtopics, 1)
	assert.Same(t, root, child.Parent)
	assert.True(t, root.HasSubtopics())
	assert.False(t, child.HasSubtopics())
}

func TestAddTagSkipsExisting(t *testing.T) {
	topic := NewTopic("g", "T")
	topic.AddTag(DuplicatedTag)
	topic.AddTag(DuplicatedTag)
	topic.AddTag("other")
	require.Len(t, topic.Tags, 2)
	assert.Equal(t, DuplicatedTag, topic.Tags[0].Text)
}

func TestCloneIsDeep(t *testing.T) {
	root := NewTopic("root", "Root")
	root.Notes = &Notes{Text: "note"}
	root.Links = []*Link{{Text: "l", URL: "http://x"}}
	root.Icons = []*Icon{NewIcon("i")}
	root.Tags = []*Tag{{Text: "t"}}
	root.References = []*Reference{{GUID1: "root", GUID2: "child", Direction: 1}}
	root.Image = &Image{Text: "/tmp/a.png"}
	child := NewTopic("child", "Child")
	root.AddSubtopic(child)

	parent := NewTopic("p", "P")
	c := root.Clone(parent)

	assert.NotSame(t, root, c)
	assert.Same(t, parent, c.Parent)
	assert.Equal(t, root.GUID, c.GUID)
	assert.Equal(t, root.Text, c.Text)
	require.Len(t, c.Subtopics, 1)
	assert.NotSame(t, child, c.Subtopics[0])
	assert.Same(t, c, c.Subtopics[0].Parent)

	c.Notes.Text = "changed"
	c.Links[0].URL = "changed"
	c.Tags[0].Text = "changed"
	c.Image.Text = "changed"
	assert.Equal(t, "note", root.Notes.Text)
	assert.Equal(t, "http://x", root.Links[0].URL)
	assert.Equal(t, "t", root.Tags[0].Text)
	assert.Equal(t, "/tmp/a.png", root.Image.Text)
}

func TestCloneStopsOnCycle(t *testing.T) {
	root := NewTopic("root", "Root")
	child := NewTopic("child", "Child")
	root.AddSubtopic(child)
	child.Subtopics = append(child.Subtopics, root)

	c := root.Clone(nil)
	require.Len(t, c.Subtopics, 1)
	assert.Empty(t, c.Subtopics[0].Subtopics)
}

func TestNotesEmpty(t *testing.T) {
	var n *Notes
	assert.True(t, n.Empty())
	assert.True(t, (&Notes{}).Empty())
	assert.False(t, (&Notes{XHTML: "<p/>"}).Empty())
}

func TestNewIconDefaults(t *testing.T) {
	icon := NewIcon("x")
	assert.True(t, icon.IsStockIcon)
	assert.Equal(t, 1, icon.Index)
}
