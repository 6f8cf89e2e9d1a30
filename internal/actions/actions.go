// Package actions implements the high level operations offered by the
// command line, the shell and the tool servers. Every action opens the
// configured automation target, does its work and reports failures as an
// *Error payload instead of a bare error.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mindm/internal/export"
	"mindm/internal/log"
	"mindm/internal/mindmap"
	"mindm/internal/model"
	"mindm/internal/remote"
	"mindm/internal/serialization"
)

// Error kinds.
const (
	KindMindManager  = "MindManager Error"
	KindInvalidInput = "Invalid Input"
	KindInternal     = "Internal Error"
)

const noDocumentMessage = "No document found or MindManager not running."

var (
	// ErrEmptyInput is returned for blank diagram text.
	ErrEmptyInput = errors.New("Mermaid content is required.")
	// ErrNoInput is returned when no diagram source was given.
	ErrNoInput = errors.New("Provide --text, --input, or pipe Mermaid via stdin.")
)

// Error is the payload reported for a failed action.
type Error struct {
	Kind    string `json:"error"`
	Message string `json:"message"`

	err error
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// IsInvalidInput reports whether err is an Invalid Input payload.
func IsInvalidInput(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidInput
}

func invalidInput(err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: err.Error(), err: err}
}

// failure turns err into the payload reported for op.
func failure(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, remote.ErrNoDocument) {
		return &Error{Kind: KindMindManager, Message: noDocumentMessage, err: err}
	}
	return &Error{Kind: KindMindManager, Message: fmt.Sprintf("Error during MindManager operation '%s': %v", op, err), err: err}
}

// Options select the target and how documents are read and written.
type Options struct {
	Target               string
	DataSource           string
	ChartType            string
	DuplicateLinkCeiling int
	IgnoreRTF            bool
}

// Service runs actions against one target configuration.
type Service struct {
	logger *log.Logger
	opts   Options
}

// New returns a Service. An empty chart type selects auto.
func New(logger *log.Logger, opts Options) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.ChartType == "" {
		opts.ChartType = "auto"
	}
	return &Service{logger: logger, opts: opts}
}

// Options returns the options the service was created with.
func (s *Service) Options() Options {
	return s.opts
}

// session is a document bound to a freshly opened accessor.
type session struct {
	doc *mindmap.Document
	acc remote.Accessor
}

func (s *session) Close() {
	if c, ok := s.acc.(io.Closer); ok {
		c.Close()
	}
}

func (s *Service) open(ctx context.Context, turbo bool) (*session, error) {
	if !remote.ValidChartType(s.opts.ChartType) {
		return nil, invalidInput(fmt.Errorf("invalid chart type %q: expected auto, orgchart or radial", s.opts.ChartType))
	}
	acc, err := remote.Open(ctx, s.opts.Target, remote.Options{
		ChartType:  s.opts.ChartType,
		DataSource: s.opts.DataSource,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}
	doc := mindmap.NewDocument(remote.NewGuard(acc, s.logger), s.logger, mindmap.Options{
		TurboMode:            turbo,
		DuplicateLinkCeiling: s.opts.DuplicateLinkCeiling,
	})
	return &session{doc: doc, acc: acc}, nil
}

// load opens the target and reads its document in the given mode.
func (s *Service) load(ctx context.Context, mode string, turbo bool) (*session, error) {
	m, err := mindmap.ParseMode(mode)
	if err != nil {
		return nil, invalidInput(err)
	}
	sess, err := s.open(ctx, turbo)
	if err != nil {
		return nil, err
	}
	ok, err := sess.doc.Load(ctx, m)
	if err == nil && !ok {
		err = remote.ErrNoDocument
	}
	if err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// GetMindmap returns the whole document as nested objects.
func (s *Service) GetMindmap(ctx context.Context, mode string, turbo bool) (any, error) {
	sess, err := s.load(ctx, mode, turbo)
	if err != nil {
		return nil, failure("get_mindmap", err)
	}
	defer sess.Close()
	return serialization.SerializeObjectSimple(sess.doc.Mindmap, s.opts.IgnoreRTF), nil
}

// Mindmap returns the canonical tree of the document.
func (s *Service) Mindmap(ctx context.Context, mode string, turbo bool) (*model.Topic, error) {
	sess, err := s.load(ctx, mode, turbo)
	if err != nil {
		return nil, failure("get_mindmap", err)
	}
	defer sess.Close()
	return sess.doc.Mindmap, nil
}

// GetSelection returns the selected topics, each with its ancestor chain.
func (s *Service) GetSelection(ctx context.Context, turbo bool) (any, error) {
	sess, err := s.open(ctx, turbo)
	if err != nil {
		return nil, failure("get_selection", err)
	}
	defer sess.Close()
	if !sess.doc.Remote().DocumentExists(ctx) {
		return nil, failure("get_selection", remote.ErrNoDocument)
	}
	return serialization.SerializeObjectsSimple(sess.doc.Selection(ctx), s.opts.IgnoreRTF), nil
}

// GetGroundingInformation returns the top_most and subtopics context
// strings derived from the selection.
func (s *Service) GetGroundingInformation(ctx context.Context, mode string, turbo bool) (any, error) {
	sess, err := s.load(ctx, mode, turbo)
	if err != nil {
		if errors.Is(err, remote.ErrNoDocument) || IsInvalidInput(err) {
			return nil, failure("get_grounding_information", err)
		}
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("Failed to get grounding information: %v", err), err: err}
	}
	defer sess.Close()

	topMost, subtopics := sess.doc.Grounding()
	out := serialization.NewObject()
	out.Set("top_most", topMost)
	out.Set("subtopics", subtopics)
	return out, nil
}

// GetLibraryFolder returns the library folder of the target.
func (s *Service) GetLibraryFolder(ctx context.Context) (any, error) {
	sess, err := s.open(ctx, false)
	if err != nil {
		return nil, failure("get_library_folder", err)
	}
	defer sess.Close()
	dir, err := sess.doc.LibraryFolder(ctx)
	if err != nil {
		return nil, failure("get_library_folder", err)
	}
	return dir, nil
}

// SerializeMermaid returns the document as a diagram. Full mode carries the
// metadata comments (or only ids with idOnly), other modes the outline.
func (s *Service) SerializeMermaid(ctx context.Context, idOnly bool, mode string, turbo bool) (any, error) {
	const op = "serialize_current_mindmap_to_mermaid"
	sess, err := s.load(ctx, mode, turbo)
	if err != nil {
		return nil, failure(op, err)
	}
	defer sess.Close()

	if mode != mindmap.ModeFull.String() {
		return serialization.SerializeSimple(sess.doc.Mindmap), nil
	}
	m := serialization.Mapping{}
	serialization.BuildMapping(sess.doc.Mindmap, m)
	text, err := serialization.Serialize(sess.doc.Mindmap, m, idOnly)
	if err != nil {
		return nil, failure(op, err)
	}
	return text, nil
}

// IsFullMermaid reports whether text carries metadata comments.
func IsFullMermaid(text string) bool {
	return strings.Contains(text, "%%")
}

// CreateFromMermaid builds a new document from diagram text, full or
// outline form.
func (s *Service) CreateFromMermaid(ctx context.Context, text string, turbo bool) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput(ErrEmptyInput)
	}

	tree, message := serialization.DeserializeSimple(text), "Mindmap created from Mermaid diagram (simple)."
	if IsFullMermaid(text) {
		tree, message = serialization.DeserializeFull(text, serialization.Mapping{}), "Mindmap created from Mermaid diagram."
	}
	if tree == nil {
		return nil, invalidInput(errors.New("Mermaid content has no topics."))
	}

	sess, err := s.open(ctx, turbo)
	if err != nil {
		return nil, failure("create_mindmap_from_mermaid", err)
	}
	defer sess.Close()

	sess.doc.Mindmap = tree
	if err := sess.doc.Create(ctx); err != nil {
		return nil, failure("create_mindmap_from_mermaid", err)
	}
	s.logger.Info(ctx, "Mindmap created", log.Fields{"full": IsFullMermaid(text), "turbo": turbo})

	out := serialization.NewObject()
	out.Set("status", "success")
	out.Set("message", message)
	return out, nil
}

// Export renders the document, read in content mode, as typ.
func (s *Service) Export(ctx context.Context, typ string) (*export.Result, error) {
	t, err := export.ParseType(typ)
	if err != nil {
		return nil, invalidInput(err)
	}
	sess, err := s.load(ctx, mindmap.ModeContent.String(), false)
	if err != nil {
		return nil, failure("export_mindmap", err)
	}
	defer sess.Close()

	r, err := export.Export(sess.doc.Mindmap, t)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: err.Error(), err: err}
	}
	return r, nil
}
