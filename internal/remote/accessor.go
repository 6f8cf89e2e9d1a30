// Package remote describes the automation target a mind map is read from and
// written to.
//
// The target is reached through an Accessor. Every call is a blocking round
// trip that may fail on its own: the application may not be running, a
// handle may have gone stale or the call may simply be rejected. Callers
// that walk whole documents use Guard, which turns each failure into a log
// entry and a safe default so one bad call never aborts the walk.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"mindm/internal/log"
	"mindm/internal/model"
)

// Handle is an opaque reference to a topic inside the automation target.
type Handle any

// Accessor is the capability a concrete automation target provides.
type Accessor interface {
	DocumentExists(ctx context.Context) (bool, error)
	CentralTopic(ctx context.Context) (Handle, error)
	Selection(ctx context.Context) ([]Handle, error)

	Guid(ctx context.Context, h Handle) (string, error)
	Text(ctx context.Context, h Handle) (string, error)
	Title(ctx context.Context, h Handle) (string, error)
	Level(ctx context.Context, h Handle) (int, error)
	Subtopics(ctx context.Context, h Handle) ([]Handle, error)
	Links(ctx context.Context, h Handle) ([]*model.Link, error)
	Image(ctx context.Context, h Handle) (*model.Image, error)
	Icons(ctx context.Context, h Handle) ([]*model.Icon, error)
	Notes(ctx context.Context, h Handle) (*model.Notes, error)
	Tags(ctx context.Context, h Handle) ([]*model.Tag, error)
	References(ctx context.Context, h Handle) ([]*model.Reference, error)
	Parent(ctx context.Context, h Handle) (Handle, error)

	SetText(ctx context.Context, h Handle, text string) error
	SetTitle(ctx context.Context, h Handle, title string) error
	AddSubtopic(ctx context.Context, h Handle, text string) (Handle, error)
	// AddTagToTopic tags the topic given by h, or by guid when h is nil.
	AddTagToTopic(ctx context.Context, h Handle, tag, guid string) error
	SetTopicFromCanonical(ctx context.Context, h Handle, topic *model.Topic, mapIcons []*model.Icon) (Handle, string, error)
	AddRelationship(ctx context.Context, guid1, guid2, label string) error
	AddTopicLink(ctx context.Context, guid1, guid2, label string) error
	CreateMapIcons(ctx context.Context, icons []*model.Icon) error
	CreateTags(ctx context.Context, tags []string, duplicatedTag string) error
	AddDocument(ctx context.Context, maxLevel int) error
	Finalize(ctx context.Context, maxLevel int) error

	LibraryFolder(ctx context.Context) (string, error)
	SetBackgroundImage(ctx context.Context, path string) error
}

// Options are passed to a target factory.
type Options struct {
	// ChartType is the layout used for new documents: auto, orgchart or radial.
	ChartType string
	// DataSource locates the target's backing store, if it has one.
	DataSource string
	Logger     *log.Logger
}

// Factory opens a concrete Accessor.
type Factory func(ctx context.Context, opts Options) (Accessor, error)

var (
	// ErrUnknownTarget is returned by Open for a target nobody registered.
	ErrUnknownTarget = errors.New("unknown automation target")
	// ErrNoDocument is returned when the target has no open document.
	ErrNoDocument = errors.New("no document found")

	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a target available to Open. It panics on duplicate names.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("remote: Register called twice for target " + name)
	}
	registry[name] = f
}

// Targets lists the registered target names.
func Targets() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open selects the accessor implementation for target.
func Open(ctx context.Context, target string, opts Options) (Accessor, error) {
	registryMu.RLock()
	f, ok := registry[target]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	return f(ctx, opts)
}

// ValidChartType reports whether s names a supported layout.
func ValidChartType(s string) bool {
	switch s {
	case "auto", "orgchart", "radial":
		return true
	}
	return false
}
