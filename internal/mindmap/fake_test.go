package mindmap

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mindm/internal/log"
	"mindm/internal/model"
	"mindm/internal/remote"
)

var errRejected = errors.New("rejected")

type fakeNode struct {
	guid   string
	text   string
	title  string
	level  int
	parent *fakeNode
	subs   []*fakeNode
	links  []*model.Link
	image  *model.Image
	icons  []*model.Icon
	notes  *model.Notes
	tags   []*model.Tag
	refs   []*model.Reference
}

type edge struct {
	from, to, label string
}

// fakeTarget is an in-memory automation target that records every write.
type fakeTarget struct {
	central    *fakeNode
	selection  []*fakeNode
	noDocument bool
	rejectText string
	// blankText names the topic text whose update reports an empty guid.
	blankText string
	next       int

	nodes         []*fakeNode
	source        map[string]string
	topicLinks    []edge
	relationships []edge
	tagged        map[string][]string
	mapIcons      []*model.Icon
	createdTags   []string
	finalized     []int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{source: map[string]string{}, tagged: map[string][]string{}}
}

func (f *fakeTarget) document() *Document {
	return NewDocument(remote.NewGuard(f, log.NewNop()), log.NewNop(), Options{})
}

func (f *fakeTarget) documentWith(opts Options) *Document {
	return NewDocument(remote.NewGuard(f, log.NewNop()), log.NewNop(), opts)
}

// add appends a read-side node below parent (or makes it the central topic).
func (f *fakeTarget) add(parent *fakeNode, guid, text string) *fakeNode {
	n := &fakeNode{guid: guid, text: text, title: text, parent: parent}
	if parent == nil {
		f.central = n
	} else {
		n.level = parent.level + 1
		parent.subs = append(parent.subs, n)
	}
	return n
}

func (f *fakeTarget) newNode(parent *fakeNode, text string) *fakeNode {
	f.next++
	n := &fakeNode{guid: fmt.Sprintf("r%d", f.next), text: text, parent: parent}
	if parent != nil {
		n.level = parent.level + 1
		parent.subs = append(parent.subs, n)
	}
	f.nodes = append(f.nodes, n)
	return n
}

// copiesOf lists the remote guids created for a canonical guid.
func (f *fakeTarget) copiesOf(guid string) []string {
	var out []string
	for remoteGUID, src := range f.source {
		if src == guid {
			out = append(out, remoteGUID)
		}
	}
	sort.Strings(out)
	return out
}

// withText lists the remote guids of created nodes carrying text.
func (f *fakeTarget) withText(text string) []string {
	var out []string
	for _, n := range f.nodes {
		if n.text == text {
			out = append(out, n.guid)
		}
	}
	return out
}

func (f *fakeTarget) linksLabeled(label string) []edge {
	var out []edge
	for _, e := range f.topicLinks {
		if e.label == label {
			out = append(out, e)
		}
	}
	return out
}

func node(h remote.Handle) *fakeNode {
	n, _ := h.(*fakeNode)
	return n
}

func (f *fakeTarget) DocumentExists(context.Context) (bool, error) {
	return !f.noDocument && f.central != nil, nil
}

func (f *fakeTarget) CentralTopic(context.Context) (remote.Handle, error) {
	if f.central == nil {
		return nil, errRejected
	}
	return f.central, nil
}

func (f *fakeTarget) Selection(context.Context) ([]remote.Handle, error) {
	out := make([]remote.Handle, 0, len(f.selection))
	for _, n := range f.selection {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeTarget) Guid(_ context.Context, h remote.Handle) (string, error) {
	return node(h).guid, nil
}

func (f *fakeTarget) Text(_ context.Context, h remote.Handle) (string, error) {
	return node(h).text, nil
}

func (f *fakeTarget) Title(_ context.Context, h remote.Handle) (string, error) {
	return node(h).title, nil
}

func (f *fakeTarget) Level(_ context.Context, h remote.Handle) (int, error) {
	return node(h).level, nil
}

func (f *fakeTarget) Subtopics(_ context.Context, h remote.Handle) ([]remote.Handle, error) {
	var out []remote.Handle
	for _, s := range node(h).subs {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeTarget) Links(_ context.Context, h remote.Handle) ([]*model.Link, error) {
	return node(h).links, nil
}

func (f *fakeTarget) Image(_ context.Context, h remote.Handle) (*model.Image, error) {
	return node(h).image, nil
}

func (f *fakeTarget) Icons(_ context.Context, h remote.Handle) ([]*model.Icon, error) {
	return node(h).icons, nil
}

func (f *fakeTarget) Notes(_ context.Context, h remote.Handle) (*model.Notes, error) {
	return node(h).notes, nil
}

func (f *fakeTarget) Tags(_ context.Context, h remote.Handle) ([]*model.Tag, error) {
	return node(h).tags, nil
}

func (f *fakeTarget) References(_ context.Context, h remote.Handle) ([]*model.Reference, error) {
	return node(h).refs, nil
}

func (f *fakeTarget) Parent(_ context.Context, h remote.Handle) (remote.Handle, error) {
	if p := node(h).parent; p != nil {
		return p, nil
	}
	return nil, errRejected
}

func (f *fakeTarget) SetText(_ context.Context, h remote.Handle, text string) error {
	node(h).text = text
	return nil
}

func (f *fakeTarget) SetTitle(_ context.Context, h remote.Handle, title string) error {
	node(h).title = title
	return nil
}

func (f *fakeTarget) AddSubtopic(_ context.Context, h remote.Handle, text string) (remote.Handle, error) {
	if text == f.rejectText {
		return nil, errRejected
	}
	return f.newNode(node(h), text), nil
}

func (f *fakeTarget) AddTagToTopic(_ context.Context, h remote.Handle, tag, guid string) error {
	if h != nil {
		guid = node(h).guid
	}
	f.tagged[guid] = append(f.tagged[guid], tag)
	return nil
}

func (f *fakeTarget) SetTopicFromCanonical(_ context.Context, h remote.Handle, topic *model.Topic, _ []*model.Icon) (remote.Handle, string, error) {
	n := node(h)
	n.text = topic.Text
	n.notes = topic.Notes
	if topic.Text == f.blankText {
		return n, "", nil
	}
	f.source[n.guid] = topic.GUID
	return n, n.guid, nil
}

func (f *fakeTarget) AddRelationship(_ context.Context, guid1, guid2, label string) error {
	f.relationships = append(f.relationships, edge{guid1, guid2, label})
	return nil
}

func (f *fakeTarget) AddTopicLink(_ context.Context, guid1, guid2, label string) error {
	f.topicLinks = append(f.topicLinks, edge{guid1, guid2, label})
	return nil
}

func (f *fakeTarget) CreateMapIcons(_ context.Context, icons []*model.Icon) error {
	f.mapIcons = icons
	return nil
}

func (f *fakeTarget) CreateTags(_ context.Context, tags []string, duplicatedTag string) error {
	f.createdTags = append(append([]string{}, tags...), duplicatedTag)
	return nil
}

func (f *fakeTarget) AddDocument(context.Context, int) error {
	f.next = 0
	f.nodes = nil
	f.central = f.newNode(nil, "")
	return nil
}

func (f *fakeTarget) Finalize(_ context.Context, maxLevel int) error {
	f.finalized = append(f.finalized, maxLevel)
	return nil
}

func (f *fakeTarget) LibraryFolder(context.Context) (string, error) {
	return "/library", nil
}

func (f *fakeTarget) SetBackgroundImage(context.Context, string) error {
	return nil
}
