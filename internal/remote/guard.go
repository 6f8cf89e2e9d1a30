package remote

import (
	"context"

	"mindm/internal/log"
	"mindm/internal/model"
)

// Guard calls an Accessor and replaces every failure with a logged safe
// default: empty string, zero, nil or an empty slice.
type Guard struct {
	acc      Accessor
	logger   *log.Logger
	failures int
}

// NewGuard wraps acc. A nil logger discards failure reports.
func NewGuard(acc Accessor, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Guard{acc: acc, logger: logger}
}

// Accessor returns the wrapped accessor.
func (g *Guard) Accessor() Accessor {
	return g.acc
}

// Failures returns how many calls failed since the guard was created.
func (g *Guard) Failures() int {
	return g.failures
}

func (g *Guard) fail(ctx context.Context, op string, err error, fields log.Fields) {
	g.failures++
	if fields == nil {
		fields = log.Fields{}
	}
	fields["op"] = op
	fields["error"] = err
	g.logger.Warn(ctx, "Remote call failed", fields)
}

func (g *Guard) DocumentExists(ctx context.Context) bool {
	ok, err := g.acc.DocumentExists(ctx)
	if err != nil {
		g.fail(ctx, "DocumentExists", err, nil)
		return false
	}
	return ok
}

func (g *Guard) CentralTopic(ctx context.Context) Handle {
	h, err := g.acc.CentralTopic(ctx)
	if err != nil {
		g.fail(ctx, "CentralTopic", err, nil)
		return nil
	}
	return h
}

func (g *Guard) Selection(ctx context.Context) []Handle {
	hs, err := g.acc.Selection(ctx)
	if err != nil {
		g.fail(ctx, "Selection", err, nil)
		return nil
	}
	return hs
}

func (g *Guard) Guid(ctx context.Context, h Handle) string {
	s, err := g.acc.Guid(ctx, h)
	if err != nil {
		g.fail(ctx, "Guid", err, nil)
		return ""
	}
	return s
}

func (g *Guard) Text(ctx context.Context, h Handle) string {
	s, err := g.acc.Text(ctx, h)
	if err != nil {
		g.fail(ctx, "Text", err, nil)
		return ""
	}
	return s
}

func (g *Guard) Title(ctx context.Context, h Handle) string {
	s, err := g.acc.Title(ctx, h)
	if err != nil {
		g.fail(ctx, "Title", err, nil)
		return ""
	}
	return s
}

func (g *Guard) Level(ctx context.Context, h Handle) int {
	n, err := g.acc.Level(ctx, h)
	if err != nil {
		g.fail(ctx, "Level", err, nil)
		return 0
	}
	return n
}

func (g *Guard) Subtopics(ctx context.Context, h Handle) []Handle {
	hs, err := g.acc.Subtopics(ctx, h)
	if err != nil {
		g.fail(ctx, "Subtopics", err, nil)
		return nil
	}
	return hs
}

func (g *Guard) Links(ctx context.Context, h Handle) []*model.Link {
	v, err := g.acc.Links(ctx, h)
	if err != nil {
		g.fail(ctx, "Links", err, nil)
		return nil
	}
	return v
}

func (g *Guard) Image(ctx context.Context, h Handle) *model.Image {
	v, err := g.acc.Image(ctx, h)
	if err != nil {
		g.fail(ctx, "Image", err, nil)
		return nil
	}
	return v
}

func (g *Guard) Icons(ctx context.Context, h Handle) []*model.Icon {
	v, err := g.acc.Icons(ctx, h)
	if err != nil {
		g.fail(ctx, "Icons", err, nil)
		return nil
	}
	return v
}

func (g *Guard) Notes(ctx context.Context, h Handle) *model.Notes {
	v, err := g.acc.Notes(ctx, h)
	if err != nil {
		g.fail(ctx, "Notes", err, nil)
		return nil
	}
	return v
}

func (g *Guard) Tags(ctx context.Context, h Handle) []*model.Tag {
	v, err := g.acc.Tags(ctx, h)
	if err != nil {
		g.fail(ctx, "Tags", err, nil)
		return nil
	}
	return v
}

func (g *Guard) References(ctx context.Context, h Handle) []*model.Reference {
	v, err := g.acc.References(ctx, h)
	if err != nil {
		g.fail(ctx, "References", err, nil)
		return nil
	}
	return v
}

func (g *Guard) Parent(ctx context.Context, h Handle) Handle {
	p, err := g.acc.Parent(ctx, h)
	if err != nil {
		g.fail(ctx, "Parent", err, nil)
		return nil
	}
	return p
}

func (g *Guard) SetText(ctx context.Context, h Handle, text string) {
	if err := g.acc.SetText(ctx, h, text); err != nil {
		g.fail(ctx, "SetText", err, log.Fields{"text": text})
	}
}

func (g *Guard) SetTitle(ctx context.Context, h Handle, title string) {
	if err := g.acc.SetTitle(ctx, h, title); err != nil {
		g.fail(ctx, "SetTitle", err, nil)
	}
}

// AddSubtopic returns nil when the subtopic could not be created.
func (g *Guard) AddSubtopic(ctx context.Context, h Handle, text string) Handle {
	sub, err := g.acc.AddSubtopic(ctx, h, text)
	if err != nil {
		g.fail(ctx, "AddSubtopic", err, log.Fields{"text": text})
		return nil
	}
	return sub
}

func (g *Guard) AddTagToTopic(ctx context.Context, h Handle, tag, guid string) {
	if err := g.acc.AddTagToTopic(ctx, h, tag, guid); err != nil {
		g.fail(ctx, "AddTagToTopic", err, log.Fields{"tag": tag, "guid": guid})
	}
}

// SetTopicFromCanonical falls back to the unchanged handle and its current
// guid when the target rejects the update.
func (g *Guard) SetTopicFromCanonical(ctx context.Context, h Handle, topic *model.Topic, mapIcons []*model.Icon) (Handle, string) {
	refreshed, guid, err := g.acc.SetTopicFromCanonical(ctx, h, topic, mapIcons)
	if err != nil {
		g.fail(ctx, "SetTopicFromCanonical", err, log.Fields{"guid": topic.GUID})
		return h, g.Guid(ctx, h)
	}
	return refreshed, guid
}

func (g *Guard) AddRelationship(ctx context.Context, guid1, guid2, label string) {
	if err := g.acc.AddRelationship(ctx, guid1, guid2, label); err != nil {
		g.fail(ctx, "AddRelationship", err, log.Fields{"guid_1": guid1, "guid_2": guid2})
	}
}

func (g *Guard) AddTopicLink(ctx context.Context, guid1, guid2, label string) {
	if err := g.acc.AddTopicLink(ctx, guid1, guid2, label); err != nil {
		g.fail(ctx, "AddTopicLink", err, log.Fields{"guid_1": guid1, "guid_2": guid2})
	}
}

func (g *Guard) CreateMapIcons(ctx context.Context, icons []*model.Icon) {
	if err := g.acc.CreateMapIcons(ctx, icons); err != nil {
		g.fail(ctx, "CreateMapIcons", err, log.Fields{"count": len(icons)})
	}
}

func (g *Guard) CreateTags(ctx context.Context, tags []string, duplicatedTag string) {
	if err := g.acc.CreateTags(ctx, tags, duplicatedTag); err != nil {
		g.fail(ctx, "CreateTags", err, log.Fields{"count": len(tags)})
	}
}

func (g *Guard) AddDocument(ctx context.Context, maxLevel int) {
	if err := g.acc.AddDocument(ctx, maxLevel); err != nil {
		g.fail(ctx, "AddDocument", err, nil)
	}
}

func (g *Guard) Finalize(ctx context.Context, maxLevel int) {
	if err := g.acc.Finalize(ctx, maxLevel); err != nil {
		g.fail(ctx, "Finalize", err, log.Fields{"max_level": maxLevel})
	}
}
