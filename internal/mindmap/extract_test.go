package mindmap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mindm/internal/model"
)

// cyclicTree returns r -> a -> b where b also lists r as a subtopic.
func cyclicTree() *model.Topic {
	r := model.NewTopic("r", "R")
	a := model.NewTopic("a", "A")
	b := model.NewTopic("b", "B")
	r.AddSubtopic(a)
	a.AddSubtopic(b)
	b.Subtopics = append(b.Subtopics, r)

	r.Tags = []*model.Tag{{Text: "x"}, {Text: ""}}
	a.Tags = []*model.Tag{{Text: "y"}, {Text: "x"}}
	a.Links = []*model.Link{{Text: "to b", GUID: "b"}, {Text: "web", URL: "https://example.com"}}
	b.References = []*model.Reference{
		{GUID1: "b", GUID2: "r", Direction: 1, Label: "back"},
		{GUID1: "b", GUID2: "a", Direction: 2, Label: "ignored"},
	}
	return r
}

func TestExtractorsOnCyclicTree(t *testing.T) {
	root := cyclicTree()

	assert.Equal(t, []model.Reference{{GUID1: "b", GUID2: "r", Direction: 1, Label: "back"}}, Relationships(root))
	assert.Equal(t, []model.Reference{{GUID1: "a", GUID2: "b", Direction: 1, Label: "to b"}}, TopicLinks(root))
	assert.Equal(t, []string{"x", "y"}, Tags(root))
	assert.Equal(t, ParentIndex{"a": "r", "b": "a"}, Parents(root))
}

func TestRelationshipsAreCopies(t *testing.T) {
	root := cyclicTree()
	refs := Relationships(root)
	refs[0].Label = "changed"
	assert.Equal(t, "back", root.Subtopics[0].Subtopics[0].References[0].Label)
}

func TestHasAncestor(t *testing.T) {
	idx := Parents(cyclicTree())
	assert.True(t, idx.HasAncestor("b", "a"))
	assert.True(t, idx.HasAncestor("b", "r"))
	assert.False(t, idx.HasAncestor("a", "b"))
	assert.False(t, idx.HasAncestor("r", "a"))

	looping := ParentIndex{"x": "y", "y": "x"}
	assert.False(t, looping.HasAncestor("x", "z"))
	assert.True(t, looping.HasAncestor("x", "y"))
}

func TestCountOccurrences(t *testing.T) {
	root := model.NewTopic("r", "R")
	a := model.NewTopic("a", "A")
	b := model.NewTopic("b", "B")
	blank := model.NewTopic("", "Blank")
	root.AddSubtopic(a)
	root.AddSubtopic(b)
	a.AddSubtopic(model.NewTopic("x", "X"))
	b.AddSubtopic(model.NewTopic("x", "X"))
	b.AddSubtopic(blank)

	counts := CountOccurrences(root)
	assert.NotEmpty(t, blank.GUID)
	assert.Equal(t, Occurrences{Parent: 2}, *counts["r"])
	assert.Equal(t, Occurrences{Child: 2}, *counts["x"])
	assert.Equal(t, Occurrences{Parent: 2, Child: 1}, *counts["b"])
	assert.Equal(t, Occurrences{Child: 1}, *counts[blank.GUID])
}

func TestCountOccurrencesOnCyclicTree(t *testing.T) {
	counts := CountOccurrences(cyclicTree())
	assert.Equal(t, Occurrences{Parent: 1, Child: 1}, *counts["r"])
}

func TestMapIconsSharesCustomIcons(t *testing.T) {
	root := model.NewTopic("r", "R")
	a := model.NewTopic("a", "A")
	b := model.NewTopic("b", "B")
	root.AddSubtopic(a)
	root.AddSubtopic(b)

	a.Icons = []*model.Icon{
		{Text: "Risk", Signature: "s1", Group: model.TypesIconGroup, Path: "/tmp/risk.png"},
		model.NewIcon("stock"),
	}
	b.Icons = []*model.Icon{
		{Text: "Risk again", Signature: "s1", Group: model.TypesIconGroup},
		{Text: "Other", Signature: "s2", Group: "Custom"},
	}

	icons := MapIcons(root)
	assert.Len(t, icons, 1)
	assert.Equal(t, "Risk", icons[0].Text)
	assert.Same(t, icons[0], a.Icons[0])
	assert.Same(t, icons[0], b.Icons[0])
	assert.Equal(t, "stock", a.Icons[1].Text)
	assert.Equal(t, "Other", b.Icons[1].Text)
}
