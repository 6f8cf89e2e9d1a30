package mindmap

import (
	"github.com/google/uuid"

	"mindm/internal/model"
)

// Relationships collects every forward reference (direction 1) of the tree.
func Relationships(root *model.Topic) []model.Reference {
	var refs []model.Reference
	walk(root, func(t *model.Topic) {
		for _, r := range t.References {
			if r.Direction == 1 {
				refs = append(refs, *r)
			}
		}
	})
	return refs
}

// TopicLinks turns every link that targets another topic into a reference
// from the owning topic to the target, labeled with the link text.
func TopicLinks(root *model.Topic) []model.Reference {
	var refs []model.Reference
	walk(root, func(t *model.Topic) {
		for _, l := range t.Links {
			if l.GUID != "" {
				refs = append(refs, model.Reference{GUID1: t.GUID, GUID2: l.GUID, Direction: 1, Label: l.Text})
			}
		}
	})
	return refs
}

// Tags returns the distinct non-empty tag texts in first seen order.
func Tags(root *model.Topic) []string {
	var tags []string
	seen := map[string]bool{}
	walk(root, func(t *model.Topic) {
		for _, tag := range t.Tags {
			if tag.Text != "" && !seen[tag.Text] {
				seen[tag.Text] = true
				tags = append(tags, tag.Text)
			}
		}
	})
	return tags
}

// walk visits every topic once per guid in pre-order.
func walk(root *model.Topic, fn func(*model.Topic)) {
	if root == nil {
		return
	}
	visited := map[string]bool{}
	var visit func(t *model.Topic)
	visit = func(t *model.Topic) {
		if visited[t.GUID] {
			return
		}
		visited[t.GUID] = true
		fn(t)
		for _, sub := range t.Subtopics {
			visit(sub)
		}
	}
	visit(root)
}

// ParentIndex maps a child guid to the guid of the first parent it was seen
// under.
type ParentIndex map[string]string

// Parents indexes the parent of every topic below root.
func Parents(root *model.Topic) ParentIndex {
	idx := ParentIndex{}
	if root == nil {
		return idx
	}
	visited := map[string]bool{}
	var visit func(t *model.Topic)
	visit = func(t *model.Topic) {
		if visited[t.GUID] {
			return
		}
		visited[t.GUID] = true
		for _, sub := range t.Subtopics {
			if _, ok := idx[sub.GUID]; ok || visited[sub.GUID] {
				continue
			}
			idx[sub.GUID] = t.GUID
			visit(sub)
		}
	}
	visit(root)
	return idx
}

// HasAncestor reports whether ancestor is reached by following the parent
// chain of candidate.
func (p ParentIndex) HasAncestor(candidate, ancestor string) bool {
	visited := map[string]bool{}
	for guid := candidate; !visited[guid]; {
		visited[guid] = true
		parent, ok := p[guid]
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		guid = parent
	}
	return false
}

// Occurrences counts how often a guid appears as a parent of a subtopic and
// as a subtopic of some parent.
type Occurrences struct {
	Parent int
	Child  int
}

// CountOccurrences assigns a fresh guid to every topic without one and
// counts parent and child occurrences per guid.
func CountOccurrences(root *model.Topic) map[string]*Occurrences {
	counts := map[string]*Occurrences{}
	if root == nil {
		return counts
	}
	entry := func(guid string) *Occurrences {
		o, ok := counts[guid]
		if !ok {
			o = &Occurrences{}
			counts[guid] = o
		}
		return o
	}

	visited := map[string]bool{}
	var visit func(t *model.Topic)
	visit = func(t *model.Topic) {
		if t.GUID == "" {
			t.GUID = uuid.NewString()
		}
		if visited[t.GUID] {
			return
		}
		visited[t.GUID] = true
		entry(t.GUID)
		for _, sub := range t.Subtopics {
			entry(t.GUID).Parent++
			if sub.GUID == "" {
				sub.GUID = uuid.NewString()
			}
			entry(sub.GUID).Child++
			visit(sub)
		}
	}
	visit(root)
	return counts
}

// MapIcons collects the custom icons of the Types group, one per signature,
// and points every topic icon at its shared instance.
func MapIcons(root *model.Topic) []*model.Icon {
	var icons []*model.Icon
	bySignature := map[string]*model.Icon{}
	walk(root, func(t *model.Topic) {
		for i, icon := range t.Icons {
			if icon.IsStockIcon || icon.Group != model.TypesIconGroup {
				continue
			}
			shared, ok := bySignature[icon.Signature]
			if !ok {
				c := *icon
				shared = &c
				bySignature[icon.Signature] = shared
				icons = append(icons, shared)
			}
			t.Icons[i] = shared
		}
	})
	return icons
}
