package ui

import (
	"fmt"
	"strings"

	"mindm/internal/model"
)

// TreeLines draws the topic tree with box drawing branches. Every topic
// below the root carries its position path, e.g. 2.1, and optionally its
// guid. Tags follow the text; a topic with notes is marked with an asterisk.
func (u *UI) TreeLines(root *model.Topic, showGUID bool) []string {
	if root == nil {
		return nil
	}
	var lines []string
	visited := map[*model.Topic]bool{root: true}
	branch := Style(ColorBrown)

	label := func(t *model.Topic) string {
		var line strings.Builder
		line.WriteString(t.Text)
		if !t.Notes.Empty() {
			line.WriteString(u.colorize(" *", Style(ColorGray)))
		}
		for _, tag := range t.Tags {
			line.WriteString(u.colorize(" #"+tag.Text, Style(ColorLightPurple)))
		}
		if showGUID && t.GUID != "" {
			line.WriteString(u.colorize(fmt.Sprintf(" [%s]", t.GUID), Style(ColorOrange)))
		}
		return line.String()
	}

	var buildTree func(t *model.Topic, index, prefix string, isLast bool)
	buildTree = func(t *model.Topic, index, prefix string, isLast bool) {
		var line strings.Builder
		line.WriteString(prefix)
		if isLast {
			line.WriteString(u.colorize("└── ", branch))
			prefix += "    "
		} else {
			line.WriteString(u.colorize("├── ", branch))
			prefix += u.colorize("│   ", branch)
		}
		line.WriteString(u.colorize(index, Style(ColorYellow)))
		line.WriteString(" " + label(t))
		lines = append(lines, line.String())

		if visited[t] {
			return
		}
		visited[t] = true
		for i, sub := range t.Subtopics {
			buildTree(sub, fmt.Sprintf("%s.%d", index, i+1), prefix, i == len(t.Subtopics)-1)
		}
	}

	lines = append(lines, label(root))
	for i, sub := range root.Subtopics {
		buildTree(sub, fmt.Sprint(i+1), "", i == len(root.Subtopics)-1)
	}
	return lines
}

// Tree prints TreeLines.
func (u *UI) Tree(root *model.Topic, showGUID bool) {
	if root == nil {
		u.Println("No topics to display")
		return
	}
	for _, line := range u.TreeLines(root, showGUID) {
		u.Println(line)
	}
}
