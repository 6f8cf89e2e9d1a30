package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mindm/internal/log"
	"mindm/internal/model"
	"mindm/internal/remote"
)

// TargetName is the name the local target is registered under.
const TargetName = "local"

var (
	ErrInvalidHandle = errors.New("invalid topic handle")
	ErrTopicNotFound = errors.New("topic not found")
	ErrNoParent      = errors.New("central topic has no parent")
)

func init() {
	remote.Register(TargetName, func(ctx context.Context, opts remote.Options) (remote.Accessor, error) {
		return OpenLocal(ctx, opts)
	})
}

// Local is an automation target backed by a SQLite database. Handles are
// topic guids and the most recently added document is the open one.
type Local struct {
	db         Database
	logger     *log.Logger
	chartType  string
	dataSource string
}

// OpenLocal opens, and if needed creates, the database at opts.DataSource.
func OpenLocal(ctx context.Context, opts remote.Options) (*Local, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.DataSource == "" {
		return nil, fmt.Errorf("local target needs a database path")
	}

	db, err := NewDatabase(SQLite, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Open(ctx, opts.DataSource); err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	chartType := opts.ChartType
	if chartType == "" {
		chartType = "auto"
	}
	return &Local{db: db, logger: logger, chartType: chartType, dataSource: opts.DataSource}, nil
}

// Close closes the database.
func (l *Local) Close() error {
	return l.db.Close()
}

func handleGUID(h remote.Handle) (string, error) {
	if guid, ok := h.(string); ok && guid != "" {
		return guid, nil
	}
	return "", fmt.Errorf("%w: %v", ErrInvalidHandle, h)
}

func (l *Local) activeDocument(ctx context.Context) (int64, error) {
	var id int64
	err := l.db.QueryRow(ctx, "SELECT id FROM documents ORDER BY id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, remote.ErrNoDocument
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get active document: %w", err)
	}
	return id, nil
}

type topicRow struct {
	guid       string
	documentID int64
	parent     sql.NullString
	level      int
	text       string
	title      string
	image      string
}

func (l *Local) topic(ctx context.Context, h remote.Handle) (*topicRow, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	var r topicRow
	err = l.db.QueryRow(ctx,
		"SELECT guid, document_id, parent_guid, level, text, title, image FROM topics WHERE guid = ?", guid,
	).Scan(&r.guid, &r.documentID, &r.parent, &r.level, &r.text, &r.title, &r.image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, guid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic %s: %w", guid, err)
	}
	return &r, nil
}

// strings runs a query returning one text column.
func (l *Local) strings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func handles(guids []string) []remote.Handle {
	out := make([]remote.Handle, 0, len(guids))
	for _, g := range guids {
		out = append(out, g)
	}
	return out
}

func (l *Local) DocumentExists(ctx context.Context) (bool, error) {
	_, err := l.activeDocument(ctx)
	if errors.Is(err, remote.ErrNoDocument) {
		return false, nil
	}
	return err == nil, err
}

func (l *Local) CentralTopic(ctx context.Context) (remote.Handle, error) {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return nil, err
	}
	var guid string
	err = l.db.QueryRow(ctx, "SELECT guid FROM topics WHERE document_id = ? AND parent_guid IS NULL", doc).Scan(&guid)
	if err != nil {
		return nil, fmt.Errorf("failed to get central topic: %w", err)
	}
	return guid, nil
}

func (l *Local) Selection(ctx context.Context) ([]remote.Handle, error) {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return nil, err
	}
	guids, err := l.strings(ctx, `
		SELECT s.topic_guid FROM selection s
		JOIN topics t ON t.guid = s.topic_guid
		WHERE t.document_id = ?
		ORDER BY s.position`, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get selection: %w", err)
	}
	return handles(guids), nil
}

// Select replaces the selection of the open document.
func (l *Local) Select(ctx context.Context, guids ...string) error {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return err
	}
	return l.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM selection"); err != nil {
			return fmt.Errorf("failed to clear selection: %w", err)
		}
		for i, guid := range guids {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO selection (topic_guid, position) SELECT guid, ? FROM topics WHERE guid = ? AND document_id = ?",
				i, guid, doc)
			if err != nil {
				return fmt.Errorf("failed to select topic %s: %w", guid, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: %s", ErrTopicNotFound, guid)
			}
		}
		return nil
	})
}

func (l *Local) Guid(ctx context.Context, h remote.Handle) (string, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return "", err
	}
	return r.guid, nil
}

func (l *Local) Text(ctx context.Context, h remote.Handle) (string, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return "", err
	}
	return r.text, nil
}

func (l *Local) Title(ctx context.Context, h remote.Handle) (string, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return "", err
	}
	return r.title, nil
}

func (l *Local) Level(ctx context.Context, h remote.Handle) (int, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return 0, err
	}
	return r.level, nil
}

func (l *Local) Subtopics(ctx context.Context, h remote.Handle) ([]remote.Handle, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	guids, err := l.strings(ctx, "SELECT guid FROM topics WHERE parent_guid = ? ORDER BY position", guid)
	if err != nil {
		return nil, fmt.Errorf("failed to get subtopics of %s: %w", guid, err)
	}
	return handles(guids), nil
}

func (l *Local) Links(ctx context.Context, h remote.Handle) ([]*model.Link, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, "SELECT text, url, target_guid FROM topic_links WHERE topic_guid = ? ORDER BY id", guid)
	if err != nil {
		return nil, fmt.Errorf("failed to get links of %s: %w", guid, err)
	}
	defer rows.Close()

	var links []*model.Link
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(&link.Text, &link.URL, &link.GUID); err != nil {
			return nil, err
		}
		links = append(links, &link)
	}
	return links, rows.Err()
}

func (l *Local) Image(ctx context.Context, h remote.Handle) (*model.Image, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return nil, err
	}
	if r.image == "" {
		return nil, nil
	}
	return &model.Image{Text: r.image}, nil
}

func (l *Local) Icons(ctx context.Context, h remote.Handle) ([]*model.Icon, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, `
		SELECT text, is_stock, stock_index, signature, path, icon_group
		FROM topic_icons WHERE topic_guid = ? ORDER BY id`, guid)
	if err != nil {
		return nil, fmt.Errorf("failed to get icons of %s: %w", guid, err)
	}
	defer rows.Close()

	var icons []*model.Icon
	for rows.Next() {
		var i model.Icon
		if err := rows.Scan(&i.Text, &i.IsStockIcon, &i.Index, &i.Signature, &i.Path, &i.Group); err != nil {
			return nil, err
		}
		icons = append(icons, &i)
	}
	return icons, rows.Err()
}

func (l *Local) Notes(ctx context.Context, h remote.Handle) (*model.Notes, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	var n model.Notes
	err = l.db.QueryRow(ctx, "SELECT text, xhtml, rtf FROM topic_notes WHERE topic_guid = ?", guid).Scan(&n.Text, &n.XHTML, &n.RTF)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notes of %s: %w", guid, err)
	}
	return &n, nil
}

func (l *Local) Tags(ctx context.Context, h remote.Handle) ([]*model.Tag, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	texts, err := l.strings(ctx, "SELECT tag FROM topic_tags WHERE topic_guid = ? ORDER BY position", guid)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags of %s: %w", guid, err)
	}
	tags := make([]*model.Tag, 0, len(texts))
	for _, t := range texts {
		tags = append(tags, &model.Tag{Text: t})
	}
	return tags, nil
}

func (l *Local) References(ctx context.Context, h remote.Handle) ([]*model.Reference, error) {
	guid, err := handleGUID(h)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, "SELECT guid_1, guid_2, label FROM relationships WHERE guid_1 = ? ORDER BY id", guid)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships of %s: %w", guid, err)
	}
	defer rows.Close()

	var refs []*model.Reference
	for rows.Next() {
		ref := model.Reference{Direction: 1}
		if err := rows.Scan(&ref.GUID1, &ref.GUID2, &ref.Label); err != nil {
			return nil, err
		}
		refs = append(refs, &ref)
	}
	return refs, rows.Err()
}

func (l *Local) Parent(ctx context.Context, h remote.Handle) (remote.Handle, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return nil, err
	}
	if !r.parent.Valid {
		return nil, ErrNoParent
	}
	return r.parent.String, nil
}

// updateTopic runs an UPDATE on one topic and reports a missing topic.
func (l *Local) updateTopic(ctx context.Context, h remote.Handle, column, value string) error {
	guid, err := handleGUID(h)
	if err != nil {
		return err
	}
	res, err := l.db.Exec(ctx, "UPDATE topics SET "+column+" = ? WHERE guid = ?", value, guid)
	if err != nil {
		return fmt.Errorf("failed to set %s of %s: %w", column, guid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, guid)
	}
	return nil
}

func (l *Local) SetText(ctx context.Context, h remote.Handle, text string) error {
	return l.updateTopic(ctx, h, "text", text)
}

func (l *Local) SetTitle(ctx context.Context, h remote.Handle, title string) error {
	return l.updateTopic(ctx, h, "title", title)
}

func (l *Local) AddSubtopic(ctx context.Context, h remote.Handle, text string) (remote.Handle, error) {
	parent, err := l.topic(ctx, h)
	if err != nil {
		return nil, err
	}
	guid := uuid.NewString()
	err = l.db.WithTx(ctx, func(tx *sql.Tx) error {
		var position int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM topics WHERE parent_guid = ?", parent.guid,
		).Scan(&position); err != nil {
			return fmt.Errorf("failed to get subtopic position: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO topics (guid, document_id, parent_guid, position, level, text) VALUES (?, ?, ?, ?, ?, ?)",
			guid, parent.documentID, parent.guid, position, parent.level+1, text)
		if err != nil {
			return fmt.Errorf("failed to insert subtopic: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return guid, nil
}

func addTag(ctx context.Context, tx *sql.Tx, documentID int64, guid, tag string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO topic_tags (topic_guid, tag, position)
		VALUES (?, ?, (SELECT COUNT(*) FROM topic_tags WHERE topic_guid = ?))`, guid, tag, guid); err != nil {
		return fmt.Errorf("failed to tag topic %s: %w", guid, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (document_id, tag) VALUES (?, ?)", documentID, tag); err != nil {
		return fmt.Errorf("failed to register tag %q: %w", tag, err)
	}
	return nil
}

func (l *Local) AddTagToTopic(ctx context.Context, h remote.Handle, tag, guid string) error {
	target := remote.Handle(guid)
	if h != nil {
		target = h
	}
	r, err := l.topic(ctx, target)
	if err != nil {
		return err
	}
	return l.db.WithTx(ctx, func(tx *sql.Tx) error {
		return addTag(ctx, tx, r.documentID, r.guid, tag)
	})
}

// sharedIcon returns the map icon a custom Types icon was registered as.
func sharedIcon(icon *model.Icon, mapIcons []*model.Icon) *model.Icon {
	if icon.IsStockIcon || icon.Group != model.TypesIconGroup {
		return icon
	}
	for _, m := range mapIcons {
		if m.Signature == icon.Signature {
			return m
		}
	}
	return icon
}

// SetTopicFromCanonical replaces the content of the topic with that of t.
// Links to other topics are left to AddTopicLink.
func (l *Local) SetTopicFromCanonical(ctx context.Context, h remote.Handle, t *model.Topic, mapIcons []*model.Icon) (remote.Handle, string, error) {
	r, err := l.topic(ctx, h)
	if err != nil {
		return nil, "", err
	}
	title := t.RTF
	if title == "" {
		title = t.Text
	}
	image := ""
	if t.Image != nil {
		image = t.Image.Text
	}

	err = l.db.WithTx(ctx, func(tx *sql.Tx) error {
		exec := func(query string, args ...interface{}) error {
			_, err := tx.ExecContext(ctx, query, args...)
			return err
		}
		if err := exec("UPDATE topics SET text = ?, title = ?, image = ? WHERE guid = ?", t.Text, title, image, r.guid); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}
		for _, table := range []string{"topic_notes", "topic_links", "topic_icons", "topic_tags"} {
			if err := exec("DELETE FROM "+table+" WHERE topic_guid = ?", r.guid); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		if !t.Notes.Empty() {
			if err := exec("INSERT INTO topic_notes (topic_guid, text, xhtml, rtf) VALUES (?, ?, ?, ?)",
				r.guid, t.Notes.Text, t.Notes.XHTML, t.Notes.RTF); err != nil {
				return fmt.Errorf("failed to set notes: %w", err)
			}
		}
		for _, link := range t.Links {
			if link.GUID != "" {
				continue
			}
			if err := exec("INSERT INTO topic_links (topic_guid, text, url) VALUES (?, ?, ?)", r.guid, link.Text, link.URL); err != nil {
				return fmt.Errorf("failed to add link: %w", err)
			}
		}
		for _, icon := range t.Icons {
			i := sharedIcon(icon, mapIcons)
			if err := exec(`
				INSERT INTO topic_icons (topic_guid, text, is_stock, stock_index, signature, path, icon_group)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				r.guid, i.Text, i.IsStockIcon, i.Index, i.Signature, i.Path, i.Group); err != nil {
				return fmt.Errorf("failed to add icon: %w", err)
			}
		}
		for _, tag := range t.Tags {
			if tag.Text == "" {
				continue
			}
			if err := addTag(ctx, tx, r.documentID, r.guid, tag.Text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return r.guid, r.guid, nil
}

func (l *Local) AddRelationship(ctx context.Context, guid1, guid2, label string) error {
	from, err := l.topic(ctx, guid1)
	if err != nil {
		return err
	}
	if _, err := l.topic(ctx, guid2); err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, "INSERT INTO relationships (document_id, guid_1, guid_2, label) VALUES (?, ?, ?, ?)",
		from.documentID, guid1, guid2, label)
	if err != nil {
		return fmt.Errorf("failed to add relationship: %w", err)
	}
	return nil
}

func (l *Local) AddTopicLink(ctx context.Context, guid1, guid2, label string) error {
	if _, err := l.topic(ctx, guid1); err != nil {
		return err
	}
	if _, err := l.topic(ctx, guid2); err != nil {
		return err
	}
	_, err := l.db.Exec(ctx, "INSERT INTO topic_links (topic_guid, text, target_guid) VALUES (?, ?, ?)", guid1, label, guid2)
	if err != nil {
		return fmt.Errorf("failed to add topic link: %w", err)
	}
	return nil
}

// CreateMapIcons registers the custom icons of the open document. Icons
// with a path but no signature are signed from their image file.
func (l *Local) CreateMapIcons(ctx context.Context, icons []*model.Icon) error {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return err
	}
	for _, icon := range icons {
		if icon.IsStockIcon {
			continue
		}
		if icon.Signature == "" && icon.Path != "" {
			sig, err := IconSignature(icon.Path)
			if err != nil {
				return err
			}
			icon.Signature = sig
		}
		if icon.Signature == "" {
			l.logger.Warn(ctx, "Icon without signature skipped", log.Fields{"text": icon.Text})
			continue
		}
		_, err := l.db.Exec(ctx,
			"INSERT OR REPLACE INTO map_icons (document_id, signature, text, path, icon_group) VALUES (?, ?, ?, ?, ?)",
			doc, icon.Signature, icon.Text, icon.Path, icon.Group)
		if err != nil {
			return fmt.Errorf("failed to create map icon: %w", err)
		}
	}
	return nil
}

// MapIcons lists the custom icons registered for the open document.
func (l *Local) MapIcons(ctx context.Context) ([]*model.Icon, error) {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, "SELECT signature, text, path, icon_group FROM map_icons WHERE document_id = ? ORDER BY signature", doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get map icons: %w", err)
	}
	defer rows.Close()

	var icons []*model.Icon
	for rows.Next() {
		i := model.Icon{IsStockIcon: false}
		if err := rows.Scan(&i.Signature, &i.Text, &i.Path, &i.Group); err != nil {
			return nil, err
		}
		icons = append(icons, &i)
	}
	return icons, rows.Err()
}

func (l *Local) CreateTags(ctx context.Context, tags []string, duplicatedTag string) error {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return err
	}
	if duplicatedTag != "" {
		tags = append(append([]string{}, tags...), duplicatedTag)
	}
	return l.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, tag := range tags {
			if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (document_id, tag) VALUES (?, ?)", doc, tag); err != nil {
				return fmt.Errorf("failed to create tag %q: %w", tag, err)
			}
		}
		return nil
	})
}

// DocumentTags lists the tag vocabulary of the open document.
func (l *Local) DocumentTags(ctx context.Context) ([]string, error) {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return nil, err
	}
	return l.strings(ctx, "SELECT tag FROM tags WHERE document_id = ? ORDER BY tag", doc)
}

// AddDocument opens a new document holding an empty central topic.
func (l *Local) AddDocument(ctx context.Context, maxLevel int) error {
	now := time.Now().UTC()
	err := l.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO documents (charttype, max_level, created, updated) VALUES (?, ?, ?, ?)",
			l.chartType, maxLevel, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		doc, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get document id: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO topics (guid, document_id, parent_guid, position, level, text) VALUES (?, ?, NULL, 0, 0, '')",
			uuid.NewString(), doc)
		if err != nil {
			return fmt.Errorf("failed to insert central topic: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Info(ctx, "Document added", log.Fields{"charttype": l.chartType})
	return nil
}

func (l *Local) Finalize(ctx context.Context, maxLevel int) error {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, "UPDATE documents SET max_level = ?, finalized = 1, updated = ? WHERE id = ?",
		maxLevel, time.Now().UTC(), doc)
	if err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}
	return nil
}

// LibraryFolder is the library directory next to the database file.
func (l *Local) LibraryFolder(ctx context.Context) (string, error) {
	dir := filepath.Join(filepath.Dir(l.dataSource), "library")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create library folder: %w", err)
	}
	return dir, nil
}

func (l *Local) SetBackgroundImage(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("background image: %w", err)
	}
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, "UPDATE documents SET background = ?, updated = ? WHERE id = ?", path, time.Now().UTC(), doc)
	if err != nil {
		return fmt.Errorf("failed to set background image: %w", err)
	}
	return nil
}

// DocumentInfo describes the open document.
type DocumentInfo struct {
	ID         int64
	ChartType  string
	MaxLevel   int
	Background string
	Finalized  bool
}

// Document returns the state of the open document.
func (l *Local) Document(ctx context.Context) (*DocumentInfo, error) {
	doc, err := l.activeDocument(ctx)
	if err != nil {
		return nil, err
	}
	info := DocumentInfo{ID: doc}
	err = l.db.QueryRow(ctx, "SELECT charttype, max_level, background, finalized FROM documents WHERE id = ?", doc).
		Scan(&info.ChartType, &info.MaxLevel, &info.Background, &info.Finalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &info, nil
}
