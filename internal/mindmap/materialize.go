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

// ErrNoMindmap is returned when a document is created before a tree was set.
var ErrNoMindmap = errors.New("no mindmap to create")

// materialization is the state of one Create call.
type materialization struct {
	// done maps a source guid to the remote guids created for it within the
	// current top level branch.
	done map[string][]string
	// doneGlobal maps a source guid to every remote guid created for it.
	doneGlobal map[string][]string

	counts   map[string]*Occurrences
	parents  ParentIndex
	mapIcons []*model.Icon
	path     map[*model.Topic]bool
}

// Create writes Mindmap into a new document of the target. A topic that
// appears more than once is created once per occurrence; its copies are
// tagged as duplicated and linked to each other. Relationships and topic
// links are added last, between every pair of copies of their endpoints.
func (d *Document) Create(ctx context.Context) error {
	if d.Mindmap == nil {
		return ErrNoMindmap
	}
	r := d.remote
	m := &materialization{
		done:       map[string][]string{},
		doneGlobal: map[string][]string{},
		path:       map[*model.Topic]bool{},
	}

	m.counts = CountOccurrences(d.Mindmap)
	m.parents = Parents(d.Mindmap)
	tags := Tags(d.Mindmap)
	m.mapIcons = MapIcons(d.Mindmap)
	relationships := Relationships(d.Mindmap)
	links := TopicLinks(d.Mindmap)

	r.AddDocument(ctx, 0)
	r.CreateMapIcons(ctx, m.mapIcons)
	r.CreateTags(ctx, tags, model.DuplicatedTag)

	central := r.CentralTopic(ctx)
	if central == nil {
		return fmt.Errorf("failed to create document: %w", remote.ErrNoDocument)
	}
	r.SetText(ctx, central, d.Mindmap.Text)

	d.materialize(ctx, m, central, d.Mindmap, 0)

	d.connect(ctx, m, relationships, "relationship", r.AddRelationship)
	d.connect(ctx, m, links, "topic link", r.AddTopicLink)

	d.logger.Info(ctx, "Document created", log.Fields{
		"topics":        len(m.doneGlobal),
		"relationships": len(relationships),
		"links":         len(links),
		"turbo":         d.opts.TurboMode,
	})
	return nil
}

// CreateAndFinalize creates the document and finalizes its layout.
func (d *Document) CreateAndFinalize(ctx context.Context) error {
	if err := d.Create(ctx); err != nil {
		return err
	}
	d.Finalize(ctx)
	return nil
}

// Finalize lets the target lay out the document down to the deepest level.
func (d *Document) Finalize(ctx context.Context) {
	if d.MaxLevel == 0 {
		d.MaxLevel = MaxTopicLevel(d.Mindmap)
	}
	d.remote.Finalize(ctx, d.MaxLevel)
}

func (d *Document) materialize(ctx context.Context, m *materialization, h remote.Handle, t *model.Topic, level int) {
	if m.path[t] {
		d.logger.Warn(ctx, "Topic is its own ancestor", log.Fields{"guid": t.GUID, "level": level})
		return
	}
	m.path[t] = true
	defer delete(m.path, t)

	r := d.remote
	if d.opts.TurboMode {
		d.recordOccurrence(ctx, m, r.Guid(ctx, h), t, level, false)
		for _, sub := range t.Subtopics {
			child := r.AddSubtopic(ctx, h, sub.Text)
			if child == nil {
				d.logger.Warn(ctx, "Subtopic skipped", log.Fields{"parent": t.GUID, "guid": sub.GUID})
				continue
			}
			d.materialize(ctx, m, child, sub, level+1)
		}
		return
	}

	h, guid := r.SetTopicFromCanonical(ctx, h, t, m.mapIcons)
	d.recordOccurrence(ctx, m, guid, t, level, true)

	sort.SliceStable(t.Subtopics, func(i, j int) bool {
		return t.Subtopics[i].Text < t.Subtopics[j].Text
	})
	for _, sub := range t.Subtopics {
		next := sub
		if _, ok := m.done[sub.GUID]; ok {
			if m.parents.HasAncestor(t.GUID, sub.GUID) {
				d.logger.Debug(ctx, "Ancestor not repeated", log.Fields{"parent": t.GUID, "guid": sub.GUID})
				continue
			}
			next = sub.Clone(t)
		}
		child := r.AddSubtopic(ctx, h, next.Text)
		if child == nil {
			d.logger.Warn(ctx, "Subtopic skipped", log.Fields{"parent": t.GUID, "guid": sub.GUID})
			continue
		}
		d.materialize(ctx, m, child, next, level+1)
	}
}

// recordOccurrence books remoteGUID as a copy of t. With link set, a repeated
// topic gets duplicate links to its earlier copies and every copy is tagged.
func (d *Document) recordOccurrence(ctx context.Context, m *materialization, remoteGUID string, t *model.Topic, level int, link bool) {
	// Every top level branch starts over, even when its topic yields no guid.
	if level <= 1 {
		m.done = map[string][]string{}
	}
	if t.GUID == "" {
		return
	}
	if remoteGUID == "" {
		d.logger.Warn(ctx, "Created topic has no guid", log.Fields{"guid": t.GUID})
		return
	}
	if level > 1 {
		m.done[t.GUID] = append(m.done[t.GUID], remoteGUID)
	}

	prior, seen := m.doneGlobal[t.GUID]
	m.doneGlobal[t.GUID] = append(prior, remoteGUID)
	if !seen || !link {
		return
	}

	r := d.remote
	if occ := m.counts[t.GUID]; occ == nil || occ.Child < d.opts.DuplicateLinkCeiling {
		for _, other := range prior {
			r.AddTopicLink(ctx, remoteGUID, other, model.DuplicateLabel)
			r.AddTopicLink(ctx, other, remoteGUID, model.DuplicateLabel)
		}
		if len(prior) == 1 {
			r.AddTagToTopic(ctx, nil, model.DuplicatedTag, prior[0])
		}
	}
	r.AddTagToTopic(ctx, nil, model.DuplicatedTag, remoteGUID)
}

// connect adds an edge between every copy of each endpoint pair.
func (d *Document) connect(ctx context.Context, m *materialization, refs []model.Reference, kind string, add func(ctx context.Context, guid1, guid2, label string)) {
	for _, ref := range refs {
		from, ok1 := m.doneGlobal[ref.GUID1]
		to, ok2 := m.doneGlobal[ref.GUID2]
		if !ok1 || !ok2 {
			d.logger.Warn(ctx, "Unresolved "+kind, log.Fields{"guid_1": ref.GUID1, "guid_2": ref.GUID2})
			continue
		}
		for _, g1 := range from {
			for _, g2 := range to {
				add(ctx, g1, g2, ref.Label)
			}
		}
	}
}
