package mindmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindm/internal/model"
)

func child(parent *model.Topic, guid, text string) *model.Topic {
	t := model.NewTopic(guid, text)
	t.Level = parent.Level + 1
	parent.AddSubtopic(t)
	return t
}

// branchesSharingX returns Root with the branches A and B, both holding a
// topic with guid x.
func branchesSharingX() (root, a, b *model.Topic) {
	root = model.NewTopic("r", "Root")
	a = child(root, "a", "A")
	b = child(root, "b", "B")
	child(a, "x", "X")
	child(b, "x", "X")
	return root, a, b
}

func TestCreateRequiresMindmap(t *testing.T) {
	err := newFakeTarget().document().Create(context.Background())
	assert.ErrorIs(t, err, ErrNoMindmap)
}

func TestCreateLinksDuplicates(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	d.Mindmap, _, _ = branchesSharingX()

	require.NoError(t, d.Create(context.Background()))

	assert.Equal(t, "Root", f.central.text)
	assert.Equal(t, []string{model.DuplicatedTag}, f.createdTags)

	copies := f.copiesOf("x")
	require.Equal(t, []string{"r3", "r5"}, copies)
	assert.Equal(t, []edge{
		{"r5", "r3", model.DuplicateLabel},
		{"r3", "r5", model.DuplicateLabel},
	}, f.linksLabeled(model.DuplicateLabel))
	assert.Equal(t, []string{model.DuplicatedTag}, f.tagged["r3"])
	assert.Equal(t, []string{model.DuplicatedTag}, f.tagged["r5"])
	assert.Len(t, f.tagged, 2)
}

func TestCreateSingleOccurrence(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	root := model.NewTopic("r", "Root")
	child(child(root, "a", "A"), "x", "X")
	child(root, "b", "B")
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	assert.Len(t, f.copiesOf("x"), 1)
	assert.Empty(t, f.topicLinks)
	assert.Empty(t, f.tagged)
	assert.Len(t, f.nodes, 4)
}

func TestCreateTagsEveryThirdCopy(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	root, _, _ := branchesSharingX()
	child(child(root, "c", "C"), "x", "X")
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	copies := f.copiesOf("x")
	require.Len(t, copies, 3)
	assert.Len(t, f.linksLabeled(model.DuplicateLabel), 6)
	for _, guid := range copies {
		assert.Equal(t, []string{model.DuplicatedTag}, f.tagged[guid], guid)
	}
}

func TestCreateResolvesEdgesToEveryCopy(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	root, a, _ := branchesSharingX()
	a.References = []*model.Reference{{GUID1: "a", GUID2: "x", Direction: 1, Label: "rel"}}
	root.Links = []*model.Link{{Text: "jump", GUID: "x"}, {Text: "lost", GUID: "missing"}}
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	assert.ElementsMatch(t, []edge{{"r2", "r3", "rel"}, {"r2", "r5", "rel"}}, f.relationships)
	assert.ElementsMatch(t, []edge{{"r1", "r3", "jump"}, {"r1", "r5", "jump"}}, f.linksLabeled("jump"))
	assert.Empty(t, f.linksLabeled("lost"))
}

func TestCreateTurboMode(t *testing.T) {
	f := newFakeTarget()
	d := f.documentWith(Options{TurboMode: true})
	root, a, _ := branchesSharingX()
	a.References = []*model.Reference{{GUID1: "a", GUID2: "x", Direction: 1, Label: "rel"}}
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	assert.Empty(t, f.source)
	xs := f.withText("X")
	assert.Equal(t, []string{"r3", "r5"}, xs)
	assert.Empty(t, f.topicLinks)
	assert.Empty(t, f.tagged)
	assert.ElementsMatch(t, []edge{{"r2", "r3", "rel"}, {"r2", "r5", "rel"}}, f.relationships)
}

func TestCreateClonesRepeatInSameBranch(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	root := model.NewTopic("r", "Root")
	a := child(root, "a", "A")
	y := child(a, "y", "Y")
	nested := child(y, "x", "X")
	child(a, "x", "X")
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	assert.Equal(t, []string{"X", "Y"}, []string{a.Subtopics[0].Text, a.Subtopics[1].Text})
	assert.Same(t, nested, y.Subtopics[0])
	assert.Equal(t, []string{"r3", "r5"}, f.copiesOf("x"))
	assert.Len(t, f.linksLabeled(model.DuplicateLabel), 2)
}

func TestCreateSkipsRepeatedAncestor(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	root := model.NewTopic("r", "Root")
	b := child(child(root, "a", "A"), "b", "B")
	c := child(b, "c", "C")
	child(c, "b", "B")
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	assert.Equal(t, []string{"r3"}, f.copiesOf("b"))
	assert.Len(t, f.withText("B"), 1)
	assert.Empty(t, f.topicLinks)
}

func TestCreateHonorsLinkCeiling(t *testing.T) {
	f := newFakeTarget()
	d := f.documentWith(Options{DuplicateLinkCeiling: 2})
	d.Mindmap, _, _ = branchesSharingX()

	require.NoError(t, d.Create(context.Background()))

	assert.Empty(t, f.topicLinks)
	assert.Nil(t, f.tagged["r3"])
	assert.Equal(t, []string{model.DuplicatedTag}, f.tagged["r5"])
}

func TestCreateResetsBranchWithoutGuid(t *testing.T) {
	f := newFakeTarget()
	f.blankText = "B"
	d := f.document()
	root := model.NewTopic("r", "Root")
	child(child(root, "a", "A"), "p", "P").AddSubtopic(model.NewTopic("q", "Q"))
	child(child(root, "b", "B"), "q", "Q").AddSubtopic(model.NewTopic("p", "P"))
	d.Mindmap = root

	require.NoError(t, d.Create(context.Background()))

	assert.Len(t, f.copiesOf("q"), 2)
	assert.Len(t, f.copiesOf("p"), 2)
	assert.Empty(t, f.copiesOf("b"))
}

func TestCreateContinuesAfterRejectedSubtopic(t *testing.T) {
	f := newFakeTarget()
	f.rejectText = "B"
	d := f.document()
	d.Mindmap, _, _ = branchesSharingX()

	require.NoError(t, d.Create(context.Background()))

	assert.Equal(t, 1, d.Remote().Failures())
	assert.Equal(t, []string{"r3"}, f.copiesOf("x"))
	assert.Empty(t, f.tagged)
}

func TestCreateAndFinalize(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	d.Mindmap, _, _ = branchesSharingX()

	require.NoError(t, d.CreateAndFinalize(context.Background()))
	assert.Equal(t, []int{2}, f.finalized)
}

func TestCreateRoundTripsThroughBuild(t *testing.T) {
	f := newFakeTarget()
	d := f.document()
	d.Mindmap, _, _ = branchesSharingX()
	require.NoError(t, d.Create(context.Background()))

	ok, err := d.Load(context.Background(), ModeText)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Root", d.Mindmap.Text)
	require.Len(t, d.Mindmap.Subtopics, 2)
	assert.Equal(t, "X", d.Mindmap.Subtopics[1].Subtopics[0].Text)
	assert.Equal(t, 2, d.MaxLevel)
}
