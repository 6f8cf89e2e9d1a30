package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindm/internal/model"
)

func sampleTree() *model.Topic {
	root := model.NewTopic("g-root", "Root")
	a := model.NewTopic("g-a", "A")
	a.Notes = &model.Notes{Text: "a note"}
	root.AddSubtopic(a)
	a.AddSubtopic(model.NewTopic("g-a1", "A1"))
	root.AddSubtopic(model.NewTopic("g-b", "B"))
	return root
}

func TestExtension(t *testing.T) {
	tests := map[Type]string{
		TypeMermaidHTML:  ".htm",
		TypeMarkmapHTML:  ".htm",
		TypeMarkdownHTML: ".htm",
		TypeJSON:         ".json",
		TypeYAML:         ".yaml",
		TypeMermaid:      ".mmd",
		TypeMarkmap:      ".md",
		TypeMarkdown:     ".md",
		Type("other"):    ".txt",
	}
	for typ, ext := range tests {
		assert.Equal(t, ext, typ.Extension(), string(typ))
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("yaml")
	require.NoError(t, err)
	assert.Equal(t, TypeYAML, typ)

	_, err = ParseType("pdf")
	assert.ErrorIs(t, err, ErrUnknownExportType)
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("docs dir", func(t *testing.T) {
		docs := filepath.Join(dir, "docs")
		path, err := ResolveOutputPath("", TypeJSON, docs)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, docs))
		assert.Equal(t, ".json", filepath.Ext(path))
		assert.DirExists(t, docs)
	})

	t.Run("existing directory", func(t *testing.T) {
		path, err := ResolveOutputPath(dir, TypeMarkdownHTML, "")
		require.NoError(t, err)
		assert.Equal(t, dir, filepath.Dir(path))
		assert.Equal(t, ".htm", filepath.Ext(path))
	})

	t.Run("file in new directory", func(t *testing.T) {
		want := filepath.Join(dir, "nested", "out.htm")
		path, err := ResolveOutputPath(want, TypeMermaidHTML, "")
		require.NoError(t, err)
		assert.Equal(t, want, path)
		assert.DirExists(t, filepath.Join(dir, "nested"))
	})
}

func TestBuildPages(t *testing.T) {
	data, err := BuildMarkmapData("# Title")
	require.NoError(t, err)
	assert.Equal(t, "---\nmarkmap:\ncolorFreezeLevel: 3\ninitialExpandLevel: -1\n---\n# Title\n", data)

	html, err := BuildMarkdownHTML("## Title\n\n- item\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Title</h2><hr/>")
	assert.Contains(t, html, "<title>Mindmap</title>")

	html, err = BuildMermaidHTML("mindmap\n  A")
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="mermaid">`)
	assert.Contains(t, html, "mermaid.min.js")
	assert.Contains(t, html, "mindmap\n  A\n</div>")

	html, err = BuildMarkmapHTML("## Title")
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="markmap">`)
	assert.Contains(t, html, "markmap-autoloader")
}

func TestBuildPagesEscapeTopicText(t *testing.T) {
	html, err := BuildMermaidHTML("mindmap\n  </div><script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;/div&gt;&lt;script&gt;alert(1)")

	html, err = BuildMarkmapHTML("# A </SCRIPT><script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "</SCRIPT>")
	assert.Contains(t, html, `# A <\/SCRIPT><script>alert(1)<\/script>`)

	html, err = BuildMarkdownHTML("## </div><script>alert(1)</script>\n")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert")
}

func TestExportDataTypes(t *testing.T) {
	root := sampleTree()

	r, err := Export(root, TypeMermaid)
	require.NoError(t, err)
	assert.Equal(t, "mindmap\n  Root\n    A\n      A1\n    B", r.Output)
	assert.Equal(t, r.Source, r.Output)

	r, err = Export(root, TypeJSON)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Output, "{\n \"id\": 1,\n \"text\": \"Root\","), r.Output)
	assert.NotContains(t, r.Output, "g-a")

	r, err = Export(root, TypeYAML)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Output, "id: 1\ntext: Root\nsubtopics:\n"), r.Output)

	r, err = Export(root, TypeMarkdown)
	require.NoError(t, err)
	assert.Contains(t, r.Output, "a note")

	r, err = Export(root, TypeMarkmap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Output, "---\nmarkmap:"))
	assert.NotContains(t, r.Output, "a note")

	_, err = Export(root, Type("pdf"))
	assert.ErrorIs(t, err, ErrUnknownExportType)
}

func TestExportHTMLKeepsSource(t *testing.T) {
	r, err := Export(sampleTree(), TypeMarkdownHTML)
	require.NoError(t, err)
	assert.Contains(t, r.Source, "a note")
	assert.Contains(t, r.Output, "<!DOCTYPE html>")

	path := filepath.Join(t.TempDir(), "map.htm")
	require.NoError(t, Write(path, r))

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Output, string(page))

	source, err := os.ReadFile(CompanionPath(path))
	require.NoError(t, err)
	assert.Equal(t, r.Source, string(source))
}

func TestWriteWithoutCompanion(t *testing.T) {
	r, err := Export(sampleTree(), TypeMermaidHTML)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "map.htm")
	require.NoError(t, Write(path, r))
	assert.NoFileExists(t, CompanionPath(path))
}

func TestOpenCommand(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, []string{"open", "/tmp/x.htm"}, openCommand(ctx, "darwin", "/tmp/x.htm").Args)
	assert.Equal(t, []string{"xdg-open", "/tmp/x.htm"}, openCommand(ctx, "linux", "/tmp/x.htm").Args)
	assert.Equal(t, []string{"cmd", "/c", "start", "", "x.htm"}, openCommand(ctx, "windows", "x.htm").Args)
}

func TestRender(t *testing.T) {
	r, err := Export(sampleTree(), TypeJSON)
	require.NoError(t, err)
	out, err := Render(r, 80, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, `"Root"`)

	r, err = Export(sampleTree(), TypeMarkdown)
	require.NoError(t, err)
	out, err = Render(r, 80, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "Root")
}
