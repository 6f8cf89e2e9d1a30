package mindmap

import (
	"context"
	"fmt"

	"mindm/internal/model"
	"mindm/internal/remote"
)

// Mode selects how much of every topic Build reads.
type Mode int

const (
	// ModeText reads guid, text and level.
	ModeText Mode = iota
	// ModeContent adds notes and the rich text title.
	ModeContent
	// ModeFull adds links, image, icons, tags and references.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeContent:
		return "content"
	case ModeFull:
		return "full"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts text, content or full into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "text":
		return ModeText, nil
	case "content":
		return ModeContent, nil
	case "full":
		return ModeFull, nil
	}
	return ModeText, fmt.Errorf("invalid mode %q: expected text, content or full", s)
}

// Build reads the subtree below h depth first. A topic whose guid was
// already read is not descended into again.
func (d *Document) Build(ctx context.Context, h remote.Handle, mode Mode) *model.Topic {
	return d.build(ctx, h, mode, nil, map[string]bool{})
}

func (d *Document) build(ctx context.Context, h remote.Handle, mode Mode, parent *model.Topic, visited map[string]bool) *model.Topic {
	r := d.remote
	t := model.NewTopic(r.Guid(ctx, h), r.Text(ctx, h))
	t.Level = r.Level(ctx, h)
	t.Parent = parent

	if mode >= ModeContent {
		t.RTF = r.Title(ctx, h)
		t.Notes = r.Notes(ctx, h)
	}
	if mode >= ModeFull {
		t.Links = r.Links(ctx, h)
		t.Image = r.Image(ctx, h)
		t.Icons = r.Icons(ctx, h)
		t.Tags = r.Tags(ctx, h)
		t.References = r.References(ctx, h)
	}

	if t.GUID != "" {
		if visited[t.GUID] {
			return t
		}
		visited[t.GUID] = true
	}
	for _, sub := range r.Subtopics(ctx, h) {
		t.Subtopics = append(t.Subtopics, d.build(ctx, sub, mode, t, visited))
	}
	return t
}

// MaxTopicLevel returns the deepest level found below root.
func MaxTopicLevel(root *model.Topic) int {
	if root == nil {
		return 0
	}
	return maxTopicLevel(root, 0, map[string]bool{})
}

func maxTopicLevel(t *model.Topic, deepest int, visited map[string]bool) int {
	if visited[t.GUID] {
		return deepest
	}
	visited[t.GUID] = true
	for _, sub := range t.Subtopics {
		if sub.Level > deepest {
			deepest = sub.Level
		}
		deepest = maxTopicLevel(sub, deepest, visited)
	}
	return deepest
}

// Selection reads the selected topics. Each one carries a standalone chain
// of its ancestors up to the central topic.
func (d *Document) Selection(ctx context.Context) []*model.Topic {
	var topics []*model.Topic
	for _, h := range d.remote.Selection(ctx) {
		t := model.NewTopic(d.remote.Guid(ctx, h), d.remote.Text(ctx, h))
		t.Level = d.remote.Level(ctx, h)
		t.Selected = true
		t.Parent = d.parentChain(ctx, h, map[string]bool{t.GUID: true})
		topics = append(topics, t)
	}
	return topics
}

func (d *Document) parentChain(ctx context.Context, h remote.Handle, visited map[string]bool) *model.Topic {
	if d.remote.Level(ctx, h) == 0 {
		return nil
	}
	p := d.remote.Parent(ctx, h)
	if p == nil {
		return nil
	}
	t := model.NewTopic(d.remote.Guid(ctx, p), d.remote.Text(ctx, p))
	t.Level = d.remote.Level(ctx, p)
	if visited[t.GUID] {
		return t
	}
	visited[t.GUID] = true
	t.Parent = d.parentChain(ctx, p, visited)
	return t
}

// ClassifySelection splits a selection into the central topic flag and the
// text, level and guid of every other selected topic, in selection order.
func ClassifySelection(topics []*model.Topic) model.SelectionInfo {
	var info model.SelectionInfo
	for _, t := range topics {
		if !t.Selected {
			continue
		}
		if t.Level == 0 {
			info.CentralSelected = true
			continue
		}
		info.Texts = append(info.Texts, t.Text)
		info.Levels = append(info.Levels, t.Level)
		info.GUIDs = append(info.GUIDs, t.GUID)
	}
	return info
}
