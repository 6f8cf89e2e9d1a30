package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindm/internal/actions"
	"mindm/internal/log"
	"mindm/internal/storage"
	"mindm/internal/ui"
)

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	svc := actions.New(log.NewNop(), actions.Options{
		Target:     storage.TargetName,
		DataSource: filepath.Join(dir, "maps.db"),
		IgnoreRTF:  true,
	})
	var out bytes.Buffer
	c := NewCLI(svc, ui.NewUI(&out, false), nil, nil)
	c.DocsDir = filepath.Join(dir, "docs")
	return c, &out
}

func TestParseArgs(t *testing.T) {
	c := &CLI{}
	assert.Equal(t, []string{"create", "--text", "mindmap\\n  A B"}, c.ParseArgs(`create --text "mindmap\n  A B"`))
	assert.Equal(t, []string{"get", "full"}, c.ParseArgs("  get   full "))
	assert.Equal(t, []string{"a", ""}, c.ParseArgs(`a ""`))
}

func TestPrompt(t *testing.T) {
	c, _ := newTestCLI(t)
	assert.Equal(t, "local @ auto > ", c.Prompt)
}

func TestCreateAndShow(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()

	require.NoError(t, c.ExecuteLine(ctx, `create --text "mindmap\n  Root\n    B\n    A"`))
	assert.Equal(t, "Mindmap created from Mermaid diagram (simple).\n", out.String())

	out.Reset()
	require.NoError(t, c.ExecuteLine(ctx, "show text"))
	assert.Equal(t, "Root\n├── 1 A\n└── 2 B\n", out.String())

	out.Reset()
	require.NoError(t, c.ExecuteLine(ctx, "mermaid"))
	assert.Equal(t, "mindmap\n  Root\n    A\n    B\n", out.String())

	out.Reset()
	require.NoError(t, c.ExecuteLine(ctx, "grounding"))
	assert.Contains(t, out.String(), `"top_most": "Root"`)
}

func TestNoDocumentReported(t *testing.T) {
	c, _ := newTestCLI(t)
	err := c.ExecuteLine(context.Background(), "get")
	var e *actions.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, actions.KindMindManager, e.Kind)
}

func TestExport(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()
	require.NoError(t, c.ExecuteLine(ctx, `create --text "mindmap\n  Root\n    A"`))

	out.Reset()
	require.NoError(t, c.ExecuteLine(ctx, "export mermaid --stream"))
	assert.Equal(t, "mindmap\n  Root\n    A\n", out.String())

	out.Reset()
	require.NoError(t, c.ExecuteLine(ctx, "export markdown_html"))
	path := strings.TrimSpace(out.String())
	assert.Equal(t, c.DocsDir, filepath.Dir(path))
	assert.FileExists(t, path)
	assert.FileExists(t, strings.TrimSuffix(path, ".htm")+".md")

	assert.Error(t, c.ExecuteLine(ctx, "export"))
	assert.Error(t, c.ExecuteLine(ctx, "export json --open --stream"))
	err := c.ExecuteLine(ctx, "export pdf")
	assert.True(t, actions.IsInvalidInput(err))
}

func TestHelpAndExit(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()

	require.NoError(t, c.ExecuteLine(ctx, "help"))
	assert.Contains(t, out.String(), "Available commands:")
	for _, name := range Commands() {
		assert.Contains(t, out.String(), name)
	}

	out.Reset()
	require.NoError(t, c.ExecuteLine(ctx, "help export"))
	assert.Contains(t, out.String(), "Syntax: export <type>")
	assert.Error(t, c.ExecuteLine(ctx, "help nothing"))

	assert.ErrorIs(t, c.ExecuteLine(ctx, "quit"), ErrExit)
	assert.EqualError(t, c.ExecuteLine(ctx, "jump"), "unknown command: jump")
	assert.NoError(t, c.ExecuteLine(ctx, "# comment"))
}

func TestExecuteScript(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()
	script := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(script, []byte("# setup\ncreate --text \"mindmap\\n  Root\"\n\nmermaid\n"), 0644))

	require.NoError(t, c.ExecuteScript(ctx, script))
	assert.Contains(t, out.String(), "mindmap\n  Root\n")

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("help\nbogus\n"), 0644))
	err := c.ExecuteScript(ctx, bad)
	assert.ErrorContains(t, err, "bad.txt:2: unknown command: bogus")
}
