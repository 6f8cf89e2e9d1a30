package mindmap

import "strings"

// Grounding returns the context of the current selection. Without a
// selection it is the central topic alone. When the central topic or only
// topics of one level are selected, the selected texts become the subtopics
// of the central topic. Otherwise the selected topics above the deepest
// selected level form the top most path and the deepest ones the subtopics.
func (d *Document) Grounding() (topMost, subtopics string) {
	central := ""
	if d.Mindmap != nil {
		central = d.Mindmap.Text
	}
	sel := d.SelectionInfo
	if len(sel.Texts) == 0 {
		return central, ""
	}
	if sel.CentralSelected {
		return central, strings.Join(sel.Texts, ",")
	}

	minLevel, maxLevel := sel.Levels[0], sel.Levels[0]
	for _, l := range sel.Levels[1:] {
		minLevel = min(minLevel, l)
		maxLevel = max(maxLevel, l)
	}
	if minLevel == maxLevel {
		return central, strings.Join(sel.Texts, ",")
	}

	var path, leaves []string
	for i, text := range sel.Texts {
		if sel.Levels[i] != maxLevel {
			path = append(path, text)
		} else {
			leaves = append(leaves, text)
		}
	}
	return strings.Join(path, "/"), strings.Join(leaves, ",")
}
