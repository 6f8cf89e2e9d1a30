// Package model defines the data structures used throughout the mindm application.
package model

import "strings"

const (
	// DuplicatedTag marks every materialized occurrence of a repeated topic.
	DuplicatedTag = "Duplicated"
	// DuplicateLabel labels the topic links joining the occurrences of a repeated topic.
	DuplicateLabel = "DUPLICATE"
	// TypesIconGroup is the icon group whose custom icons are shared across the map.
	TypesIconGroup = "Types"
)

var textReplacer = strings.NewReplacer(`"`, "`", "'", "`", "\r", "", "\n", "")

// NormalizeText makes a topic label safe to embed in every text format.
func NormalizeText(text string) string {
	return textReplacer.Replace(text)
}

// Link is a hyperlink attached to a topic. A non-empty GUID points at another
// topic of the same map instead of an external URL.
type Link struct {
	Text string
	URL  string
	GUID string
}

// Image is the picture attached to a topic.
type Image struct {
	Text string
}

// Notes holds the alternate representations of a topic's notes.
type Notes struct {
	Text  string
	XHTML string
	RTF   string
}

// Empty reports whether none of the representations carries content.
func (n *Notes) Empty() bool {
	return n == nil || (n.Text == "" && n.XHTML == "" && n.RTF == "")
}

// Icon is either a stock icon addressed by index or a custom, image backed icon
// identified by its signature.
type Icon struct {
	Text        string
	IsStockIcon bool
	Index       int
	Signature   string
	Path        string
	Group       string
}

// NewIcon returns an icon with the stock defaults applied.
func NewIcon(text string) *Icon {
	return &Icon{Text: text, IsStockIcon: true, Index: 1}
}

// Tag is a flat label from the document's tag vocabulary.
type Tag struct {
	Text string
}

// Reference is a relationship edge between two topics. Only Direction 1 is
// carried over when relationships are extracted.
type Reference struct {
	GUID1     string
	GUID2     string
	Direction int
	Label     string
}

// Topic is a single node of the canonical mind map tree.
type Topic struct {
	GUID     string
	Text     string
	RTF      string
	Level    int
	Selected bool

	// Parent is a back-reference only and never owns the parent.
	Parent *Topic

	Subtopics  []*Topic
	Links      []*Link
	Image      *Image
	Icons      []*Icon
	Notes      *Notes
	Tags       []*Tag
	References []*Reference
}

// NewTopic creates a topic with normalized text.
func NewTopic(guid, text string) *Topic {
	return &Topic{GUID: guid, Text: NormalizeText(text)}
}

// SetText replaces the topic text, applying the same normalization as NewTopic.
func (t *Topic) SetText(text string) {
	t.Text = NormalizeText(text)
}

// AddSubtopic appends child and points its parent back at t.
func (t *Topic) AddSubtopic(child *Topic) {
	child.Parent = t
	t.Subtopics = append(t.Subtopics, child)
}

// HasSubtopics reports whether the topic has children.
func (t *Topic) HasSubtopics() bool {
	return len(t.Subtopics) > 0
}

// AddTag appends a tag unless the topic already carries it.
func (t *Topic) AddTag(text string) {
	for _, tag := range t.Tags {
		if tag.Text == text {
			return
		}
	}
	t.Tags = append(t.Tags, &Tag{Text: text})
}

// Clone returns a deep copy of t attached to parent. The copy keeps the GUID
// and content but shares no memory with t.
func (t *Topic) Clone(parent *Topic) *Topic {
	return t.clone(parent, map[*Topic]bool{})
}

func (t *Topic) clone(parent *Topic, visited map[*Topic]bool) *Topic {
	visited[t] = true
	c := &Topic{
		GUID:   t.GUID,
		Text:   t.Text,
		RTF:    t.RTF,
		Level:  t.Level,
		Parent: parent,
	}
	for _, l := range t.Links {
		link := *l
		c.Links = append(c.Links, &link)
	}
	if t.Image != nil {
		img := *t.Image
		c.Image = &img
	}
	for _, i := range t.Icons {
		icon := *i
		c.Icons = append(c.Icons, &icon)
	}
	if t.Notes != nil {
		notes := *t.Notes
		c.Notes = &notes
	}
	for _, tag := range t.Tags {
		c.Tags = append(c.Tags, &Tag{Text: tag.Text})
	}
	for _, r := range t.References {
		ref := *r
		c.References = append(c.References, &ref)
	}
	for _, sub := range t.Subtopics {
		if visited[sub] {
			continue
		}
		c.Subtopics = append(c.Subtopics, sub.clone(c, visited))
	}
	return c
}

// SelectionInfo is the flattened selection sidecar of a document.
type SelectionInfo struct {
	CentralSelected bool
	Texts           []string
	Levels          []int
	GUIDs           []string
}
