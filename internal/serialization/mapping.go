// Package serialization converts canonical mind map trees to and from their
// text formats: the indented outline, the diagram markup with inline JSON
// metadata, Markdown and plain nested objects for JSON and YAML export.
package serialization

import (
	"github.com/google/uuid"

	"mindm/internal/model"
)

// Mapping assigns the short numeric ids used in the diagram format to topic
// guids.
type Mapping map[string]int

// BuildMapping assigns len(m)+1 to every guid not yet in m, walking the tree
// in pre-order. Repeated guids keep their first id.
func BuildMapping(root *model.Topic, m Mapping) {
	buildMapping(root, m, map[*model.Topic]bool{})
}

func buildMapping(t *model.Topic, m Mapping, visited map[*model.Topic]bool) {
	if t == nil || visited[t] {
		return
	}
	visited[t] = true
	if _, ok := m[t.GUID]; !ok {
		m[t.GUID] = len(m) + 1
	}
	for _, sub := range t.Subtopics {
		buildMapping(sub, m, visited)
	}
}

// reverseMapping resolves numeric ids back to guids. Ids that were never
// mapped get a fresh guid, which is registered in both directions.
type reverseMapping struct {
	forward Mapping
	byID    map[int]string
}

func newReverseMapping(m Mapping) *reverseMapping {
	if m == nil {
		m = Mapping{}
	}
	r := &reverseMapping{forward: m, byID: make(map[int]string, len(m))}
	for guid, id := range m {
		r.byID[id] = guid
	}
	return r
}

func (r *reverseMapping) guid(id int) string {
	if guid, ok := r.byID[id]; ok {
		return guid
	}
	guid := uuid.NewString()
	r.byID[id] = guid
	r.forward[guid] = id
	return guid
}
