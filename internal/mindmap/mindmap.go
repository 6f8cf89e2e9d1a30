// Package mindmap reads canonical mind map trees from an automation target
// and replays them onto it.
package mindmap

import (
	"context"
	"fmt"

	"mindm/internal/log"
	"mindm/internal/model"
	"mindm/internal/remote"
)

// DefaultDuplicateLinkCeiling is the child occurrence count at which
// duplicate links stop being created for a topic.
const DefaultDuplicateLinkCeiling = 11

// Options control how a Document writes to the target.
type Options struct {
	// TurboMode creates subtopics from their text only.
	TurboMode bool
	// DuplicateLinkCeiling gates duplicate links; zero selects the default.
	DuplicateLinkCeiling int
}

// Document is the canonical view of one document of the automation target.
type Document struct {
	remote *remote.Guard
	logger *log.Logger
	opts   Options

	// Mindmap is the tree read by Load or assigned before Create.
	Mindmap *model.Topic
	// SelectionInfo is the flattened selection captured by Load.
	SelectionInfo model.SelectionInfo
	// MaxLevel is the deepest topic level of Mindmap.
	MaxLevel int
}

// NewDocument binds a document to a guarded accessor.
func NewDocument(g *remote.Guard, logger *log.Logger, opts Options) *Document {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.DuplicateLinkCeiling <= 0 {
		opts.DuplicateLinkCeiling = DefaultDuplicateLinkCeiling
	}
	return &Document{remote: g, logger: logger, opts: opts}
}

// Remote returns the guarded accessor the document works on.
func (d *Document) Remote() *remote.Guard {
	return d.remote
}

// Load reads the whole document starting at the central topic, together with
// the current selection. It returns false when the target has no open
// document.
func (d *Document) Load(ctx context.Context, mode Mode) (bool, error) {
	if !d.remote.DocumentExists(ctx) {
		d.logger.Info(ctx, "No document found", nil)
		return false, nil
	}
	central := d.remote.CentralTopic(ctx)
	if central == nil {
		return false, fmt.Errorf("failed to read central topic: %w", remote.ErrNoDocument)
	}

	root := d.Build(ctx, central, mode)
	d.SelectionInfo = ClassifySelection(d.Selection(ctx))
	d.MaxLevel = MaxTopicLevel(root)
	d.Mindmap = root

	d.logger.Debug(ctx, "Document loaded", log.Fields{
		"mode":      mode.String(),
		"max_level": d.MaxLevel,
		"selected":  len(d.SelectionInfo.GUIDs),
	})
	return true, nil
}

// LibraryFolder returns the target's library folder.
func (d *Document) LibraryFolder(ctx context.Context) (string, error) {
	return d.remote.Accessor().LibraryFolder(ctx)
}

// SetBackgroundImage sets the background image of the open document.
func (d *Document) SetBackgroundImage(ctx context.Context, path string) error {
	return d.remote.Accessor().SetBackgroundImage(ctx, path)
}
