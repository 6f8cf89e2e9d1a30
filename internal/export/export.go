package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mindm/internal/model"
	"mindm/internal/serialization"
)

// Mermaid is the outline form of the diagram.
func Mermaid(root *model.Topic) string {
	return serialization.SerializeSimple(root)
}

// Markmap is the Markdown outline without notes, behind markmap front matter.
func Markmap(root *model.Topic) (string, error) {
	return BuildMarkmapData(serialization.SerializeMarkdown(root, false))
}

// Markdown is the Markdown outline including notes.
func Markdown(root *model.Topic) string {
	return serialization.SerializeMarkdown(root, true)
}

func mappedObject(root *model.Topic) (*serialization.Object, error) {
	m := serialization.Mapping{}
	serialization.BuildMapping(root, m)
	return serialization.SerializeObject(root, m, serialization.IgnoreRTF)
}

// JSON is the attribute tree with numeric ids, indented by one space.
func JSON(root *model.Topic) (string, error) {
	obj, err := mappedObject(root)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// YAML is the attribute tree with numeric ids, keys in serialization order.
func YAML(root *model.Topic) (string, error) {
	obj, err := mappedObject(root)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Export renders root as t.
func Export(root *model.Topic, t Type) (*Result, error) {
	if root == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	var (
		source string
		output string
		err    error
	)
	switch t {
	case TypeMermaid, TypeMermaidHTML:
		source = Mermaid(root)
		if t == TypeMermaidHTML {
			output, err = BuildMermaidHTML(source)
		}
	case TypeMarkmap, TypeMarkmapHTML:
		source, err = Markmap(root)
		if err == nil && t == TypeMarkmapHTML {
			output, err = BuildMarkmapHTML(source)
		}
	case TypeMarkdown, TypeMarkdownHTML:
		source = Markdown(root)
		if t == TypeMarkdownHTML {
			output, err = BuildMarkdownHTML(source)
		}
	case TypeJSON:
		source, err = JSON(root)
	case TypeYAML:
		source, err = YAML(root)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExportType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", t, err)
	}
	if !t.HTML() {
		output = source
	}
	return &Result{Type: t, Source: source, Output: output}, nil
}
