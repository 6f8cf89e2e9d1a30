package serialization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"mindm/internal/model"
)

// ErrUnmappedGUID is returned by SerializeObject for a guid missing from the mapping.
var ErrUnmappedGUID = errors.New("guid has no numeric id")

// Object is a mapping that remembers insertion order, so JSON and YAML output
// list attributes in declaration order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: map[string]any{}}
}

// Set adds or replaces key.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON writes the keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val bytes.Buffer
		enc := json.NewEncoder(&val)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(o.values[k]); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}
		buf.Write(bytes.TrimRight(val.Bytes(), "\n"))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML emits a mapping node with the keys in insertion order.
func (o *Object) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range o.keys {
		val := &yaml.Node{}
		if err := val.Encode(o.values[k]); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return node, nil
}

// objectSerializer renders topics into Objects. A nil mapping keeps guids
// literally; otherwise guid fields are renamed to id fields and mapped.
type objectSerializer struct {
	mapping   Mapping
	ignoreRTF bool
	visited   map[*model.Topic]bool
}

func (s *objectSerializer) guid(o *Object, name, guid string) error {
	if guid == "" {
		return nil
	}
	if s.mapping == nil {
		o.Set(name, guid)
		return nil
	}
	id, ok := s.mapping[guid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnmappedGUID, guid)
	}
	switch name {
	case "guid":
		o.Set("id", id)
	case "guid_1":
		o.Set("id_1", id)
	case "guid_2":
		o.Set("id_2", id)
	}
	return nil
}

func setString(o *Object, key, value string) {
	if value != "" {
		o.Set(key, value)
	}
}

// setObject skips sub-objects that ended up without any attribute.
func setObject(o *Object, key string, value *Object) {
	if value != nil && value.Len() > 0 {
		o.Set(key, value)
	}
}

func (s *objectSerializer) rtf(o *Object, value string) {
	if !s.ignoreRTF {
		setString(o, "rtf", value)
	}
}

func (s *objectSerializer) topic(t *model.Topic) (*Object, error) {
	if s.visited[t] {
		return nil, nil
	}
	s.visited[t] = true

	o := NewObject()
	if err := s.guid(o, "guid", t.GUID); err != nil {
		return nil, err
	}
	setString(o, "text", t.Text)
	if t.RTF != t.Text {
		s.rtf(o, t.RTF)
	}

	if len(t.Links) > 0 {
		links := make([]any, 0, len(t.Links))
		for _, l := range t.Links {
			lo := NewObject()
			setString(lo, "text", l.Text)
			setString(lo, "url", l.URL)
			if err := s.guid(lo, "guid", l.GUID); err != nil {
				return nil, err
			}
			links = append(links, lo)
		}
		o.Set("links", links)
	}

	if t.Image != nil {
		img := NewObject()
		setString(img, "text", t.Image.Text)
		setObject(o, "image", img)
	}

	if len(t.Icons) > 0 {
		icons := make([]any, 0, len(t.Icons))
		for _, i := range t.Icons {
			io := NewObject()
			setString(io, "text", i.Text)
			io.Set("is_stock_icon", i.IsStockIcon)
			io.Set("index", i.Index)
			setString(io, "signature", i.Signature)
			setString(io, "path", i.Path)
			setString(io, "group", i.Group)
			icons = append(icons, io)
		}
		o.Set("icons", icons)
	}

	if t.Notes != nil {
		notes := NewObject()
		setString(notes, "text", t.Notes.Text)
		setString(notes, "xhtml", t.Notes.XHTML)
		s.rtf(notes, t.Notes.RTF)
		setObject(o, "notes", notes)
	}

	if len(t.Tags) > 0 {
		tags := make([]any, 0, len(t.Tags))
		for _, tag := range t.Tags {
			to := NewObject()
			setString(to, "text", tag.Text)
			tags = append(tags, to)
		}
		o.Set("tags", tags)
	}

	if len(t.References) > 0 {
		refs := make([]any, 0, len(t.References))
		for _, r := range t.References {
			ro := NewObject()
			if err := s.guid(ro, "guid_1", r.GUID1); err != nil {
				return nil, err
			}
			if err := s.guid(ro, "guid_2", r.GUID2); err != nil {
				return nil, err
			}
			if r.Direction != 0 {
				ro.Set("direction", r.Direction)
			}
			setString(ro, "label", r.Label)
			refs = append(refs, ro)
		}
		o.Set("references", refs)
	}

	if len(t.Subtopics) > 0 {
		subs := make([]any, 0, len(t.Subtopics))
		for _, sub := range t.Subtopics {
			so, err := s.topic(sub)
			if err != nil {
				return nil, err
			}
			if so == nil {
				subs = append(subs, nil)
				continue
			}
			subs = append(subs, so)
		}
		o.Set("subtopics", subs)
	}
	return o, nil
}

// SerializeObjectSimple renders t and its subtree as nested Objects with
// literal guids. Parent, level and selection state are left out, as are
// empty values and, when ignoreRTF is set, every rtf attribute.
func SerializeObjectSimple(t *model.Topic, ignoreRTF bool) *Object {
	s := &objectSerializer{ignoreRTF: ignoreRTF, visited: map[*model.Topic]bool{}}
	o, _ := s.topic(t)
	return o
}

// SerializeObjectsSimple renders a list of topics, e.g. a selection.
func SerializeObjectsSimple(topics []*model.Topic, ignoreRTF bool) []any {
	s := &objectSerializer{ignoreRTF: ignoreRTF, visited: map[*model.Topic]bool{}}
	out := make([]any, 0, len(topics))
	for _, t := range topics {
		o, _ := s.topic(t)
		if o == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, o)
	}
	return out
}

// SerializeObject is SerializeObjectSimple with guid, guid_1 and guid_2 renamed
// to id, id_1 and id_2 and replaced by their numeric ids from m.
func SerializeObject(t *model.Topic, m Mapping, ignoreRTF bool) (*Object, error) {
	if m == nil {
		m = Mapping{}
	}
	s := &objectSerializer{mapping: m, ignoreRTF: ignoreRTF, visited: map[*model.Topic]bool{}}
	return s.topic(t)
}
