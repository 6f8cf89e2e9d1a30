package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindm/internal/log"
	"mindm/internal/mindmap"
	"mindm/internal/model"
	"mindm/internal/remote"
	"mindm/internal/storage"
)

func openLocal(t *testing.T) (*storage.Local, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := storage.OpenLocal(context.Background(), remote.Options{
		DataSource: filepath.Join(dir, "maps.db"),
		Logger:     log.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, dir
}

func TestOpenLocalRequiresPath(t *testing.T) {
	_, err := storage.OpenLocal(context.Background(), remote.Options{})
	assert.Error(t, err)
}

func TestLocalWithoutDocument(t *testing.T) {
	l, _ := openLocal(t)
	ctx := context.Background()

	ok, err := l.DocumentExists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.CentralTopic(ctx)
	assert.ErrorIs(t, err, remote.ErrNoDocument)
}

func TestLocalTopics(t *testing.T) {
	l, _ := openLocal(t)
	ctx := context.Background()
	require.NoError(t, l.AddDocument(ctx, 0))

	central, err := l.CentralTopic(ctx)
	require.NoError(t, err)
	require.NoError(t, l.SetText(ctx, central, "Root"))

	a, err := l.AddSubtopic(ctx, central, "A")
	require.NoError(t, err)
	b, err := l.AddSubtopic(ctx, central, "B")
	require.NoError(t, err)

	subs, err := l.Subtopics(ctx, central)
	require.NoError(t, err)
	assert.Equal(t, []remote.Handle{a, b}, subs)

	level, err := l.Level(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, level)

	parent, err := l.Parent(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, central, parent)

	_, err = l.Parent(ctx, central)
	assert.ErrorIs(t, err, storage.ErrNoParent)

	text, err := l.Text(ctx, central)
	require.NoError(t, err)
	assert.Equal(t, "Root", text)

	assert.ErrorIs(t, l.SetText(ctx, "missing", "x"), storage.ErrTopicNotFound)
	_, err = l.Text(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrInvalidHandle)
}

func TestLocalSetTopicFromCanonical(t *testing.T) {
	l, _ := openLocal(t)
	ctx := context.Background()
	require.NoError(t, l.AddDocument(ctx, 0))
	central, err := l.CentralTopic(ctx)
	require.NoError(t, err)
	h, err := l.AddSubtopic(ctx, central, "")
	require.NoError(t, err)

	topic := model.NewTopic("src", "Topic")
	topic.RTF = "Topic title"
	topic.Notes = &model.Notes{Text: "plain", XHTML: "<p>plain</p>"}
	topic.Links = []*model.Link{{Text: "site", URL: "https://example.com"}, {Text: "inner", GUID: "other"}}
	topic.Image = &model.Image{Text: "/tmp/pic.png"}
	topic.Icons = []*model.Icon{
		model.NewIcon("star"),
		{Text: "type", Signature: "sig", Group: model.TypesIconGroup},
	}
	topic.AddTag("one")
	topic.AddTag("two")
	mapIcons := []*model.Icon{{Text: "shared type", Signature: "sig", Group: model.TypesIconGroup}}

	_, guid, err := l.SetTopicFromCanonical(ctx, h, topic, mapIcons)
	require.NoError(t, err)
	assert.Equal(t, h, remote.Handle(guid))

	title, err := l.Title(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "Topic title", title)

	notes, err := l.Notes(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, &model.Notes{Text: "plain", XHTML: "<p>plain</p>"}, notes)

	links, err := l.Links(ctx, h)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com", links[0].URL)

	img, err := l.Image(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pic.png", img.Text)

	icons, err := l.Icons(ctx, h)
	require.NoError(t, err)
	require.Len(t, icons, 2)
	assert.True(t, icons[0].IsStockIcon)
	assert.Equal(t, "shared type", icons[1].Text)

	tags, err := l.Tags(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, []*model.Tag{{Text: "one"}, {Text: "two"}}, tags)

	vocabulary, err := l.DocumentTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, vocabulary)

	// Writing again replaces instead of appending.
	topic.Notes = nil
	topic.Tags = nil
	_, _, err = l.SetTopicFromCanonical(ctx, h, topic, mapIcons)
	require.NoError(t, err)
	notes, err = l.Notes(ctx, h)
	require.NoError(t, err)
	assert.Nil(t, notes)
	tags, err = l.Tags(ctx, h)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestLocalEdges(t *testing.T) {
	l, _ := openLocal(t)
	ctx := context.Background()
	require.NoError(t, l.AddDocument(ctx, 0))
	central, err := l.CentralTopic(ctx)
	require.NoError(t, err)
	a, err := l.AddSubtopic(ctx, central, "A")
	require.NoError(t, err)
	b, err := l.AddSubtopic(ctx, central, "B")
	require.NoError(t, err)

	require.NoError(t, l.AddRelationship(ctx, a.(string), b.(string), "rel"))
	require.NoError(t, l.AddTopicLink(ctx, b.(string), a.(string), "jump"))
	assert.ErrorIs(t, l.AddRelationship(ctx, a.(string), "missing", ""), storage.ErrTopicNotFound)

	refs, err := l.References(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []*model.Reference{{GUID1: a.(string), GUID2: b.(string), Direction: 1, Label: "rel"}}, refs)

	links, err := l.Links(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []*model.Link{{Text: "jump", GUID: a.(string)}}, links)

	require.NoError(t, l.AddTagToTopic(ctx, nil, "Duplicated", a.(string)))
	require.NoError(t, l.AddTagToTopic(ctx, b, "Other", ""))
	tags, err := l.Tags(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []*model.Tag{{Text: "Duplicated"}}, tags)
}

func TestLocalSelection(t *testing.T) {
	l, _ := openLocal(t)
	ctx := context.Background()
	require.NoError(t, l.AddDocument(ctx, 0))
	central, err := l.CentralTopic(ctx)
	require.NoError(t, err)
	a, err := l.AddSubtopic(ctx, central, "A")
	require.NoError(t, err)

	require.NoError(t, l.Select(ctx, a.(string), central.(string)))
	sel, err := l.Selection(ctx)
	require.NoError(t, err)
	assert.Equal(t, []remote.Handle{a, central}, sel)

	assert.ErrorIs(t, l.Select(ctx, "missing"), storage.ErrTopicNotFound)
	sel, err = l.Selection(ctx)
	require.NoError(t, err)
	assert.Len(t, sel, 2)
}

func TestLocalDocumentSettings(t *testing.T) {
	l, dir := openLocal(t)
	ctx := context.Background()
	require.NoError(t, l.AddDocument(ctx, 0))

	lib, err := l.LibraryFolder(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "library"), lib)
	assert.DirExists(t, lib)

	assert.Error(t, l.SetBackgroundImage(ctx, filepath.Join(dir, "none.png")))
	bg := filepath.Join(dir, "bg.png")
	require.NoError(t, os.WriteFile(bg, []byte("png"), 0644))
	require.NoError(t, l.SetBackgroundImage(ctx, bg))
	require.NoError(t, l.Finalize(ctx, 3))

	info, err := l.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, "auto", info.ChartType)
	assert.Equal(t, bg, info.Background)
	assert.Equal(t, 3, info.MaxLevel)
	assert.True(t, info.Finalized)
}

func TestIconSignature(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.png")
	p2 := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(p1, []byte("icon"), 0644))
	require.NoError(t, os.WriteFile(p2, []byte("icon"), 0644))

	s1, err := storage.IconSignature(p1)
	require.NoError(t, err)
	s2, err := storage.IconSignature(p2)
	require.NoError(t, err)
	assert.Len(t, s1, 64)
	assert.Equal(t, s1, s2)

	_, err = storage.IconSignature(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	l, _ := openLocal(t)
	ctx := context.Background()
	require.NoError(t, l.AddDocument(ctx, 0))
	icon := &model.Icon{Text: "custom", Path: p1, Group: model.TypesIconGroup}
	require.NoError(t, l.CreateMapIcons(ctx, []*model.Icon{icon, model.NewIcon("stock")}))
	assert.Equal(t, s1, icon.Signature)

	icons, err := l.MapIcons(ctx)
	require.NoError(t, err)
	require.Len(t, icons, 1)
	assert.Equal(t, "custom", icons[0].Text)
}

func TestLocalCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	acc, err := remote.Open(ctx, storage.TargetName, remote.Options{DataSource: filepath.Join(dir, "maps.db")})
	require.NoError(t, err)
	defer acc.(*storage.Local).Close()

	root := model.NewTopic("r", "Root")
	a := model.NewTopic("a", "A")
	b := model.NewTopic("b", "B")
	root.AddSubtopic(a)
	root.AddSubtopic(b)
	a.AddSubtopic(model.NewTopic("x", "X"))
	b.AddSubtopic(model.NewTopic("x", "X"))
	a.Notes = &model.Notes{Text: "about A"}
	a.References = []*model.Reference{{GUID1: "a", GUID2: "b", Direction: 1, Label: "rel"}}

	doc := mindmap.NewDocument(remote.NewGuard(acc, log.NewNop()), log.NewNop(), mindmap.Options{})
	doc.Mindmap = root
	require.NoError(t, doc.CreateAndFinalize(ctx))
	assert.Zero(t, doc.Remote().Failures())

	loaded := mindmap.NewDocument(remote.NewGuard(acc, log.NewNop()), log.NewNop(), mindmap.Options{})
	ok, err := loaded.Load(ctx, mindmap.ModeFull)
	require.NoError(t, err)
	require.True(t, ok)

	got := loaded.Mindmap
	assert.Equal(t, "Root", got.Text)
	assert.Equal(t, 2, loaded.MaxLevel)
	require.Len(t, got.Subtopics, 2)
	gotA, gotB := got.Subtopics[0], got.Subtopics[1]
	assert.Equal(t, "A", gotA.Text)
	assert.Equal(t, "about A", gotA.Notes.Text)
	require.Len(t, gotA.References, 1)
	assert.Equal(t, gotB.GUID, gotA.References[0].GUID2)

	x1, x2 := gotA.Subtopics[0], gotB.Subtopics[0]
	assert.Equal(t, []*model.Tag{{Text: model.DuplicatedTag}}, x1.Tags)
	assert.Equal(t, []*model.Tag{{Text: model.DuplicatedTag}}, x2.Tags)
	assert.Equal(t, []*model.Link{{Text: model.DuplicateLabel, GUID: x2.GUID}}, x1.Links)
	assert.Equal(t, []*model.Link{{Text: model.DuplicateLabel, GUID: x1.GUID}}, x2.Links)

	info, err := acc.(*storage.Local).Document(ctx)
	require.NoError(t, err)
	assert.True(t, info.Finalized)
}
