package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
)

// ResolveOutputPath decides where an export of type t is written. An
// existing directory gets a fresh file name inside it, any other output is
// taken as the file path. Without output the file goes to docsDir, or to
// ./docs when docsDir is empty. Missing directories are created.
func ResolveOutputPath(output string, t Type, docsDir string) (string, error) {
	name := uuid.NewString() + t.Extension()

	if output != "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return filepath.Join(abs, name), nil
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		return abs, nil
	}

	if docsDir == "" {
		docsDir = "docs"
	}
	abs, err := filepath.Abs(docsDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create docs directory: %w", err)
	}
	return filepath.Join(abs, name), nil
}

// CompanionPath is the Markdown file written next to a markdown_html page.
func CompanionPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
}

// Write stores the export at path. A markdown_html export also keeps its
// Markdown source in the companion file.
func Write(path string, r *Result) error {
	if err := os.WriteFile(path, []byte(r.Output), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if r.Type == TypeMarkdownHTML {
		if err := os.WriteFile(CompanionPath(path), []byte(r.Source), 0644); err != nil {
			return fmt.Errorf("failed to write markdown source: %w", err)
		}
	}
	return nil
}

func openCommand(ctx context.Context, goos, path string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.CommandContext(ctx, "open", path)
	case "windows":
		return exec.CommandContext(ctx, "cmd", "/c", "start", "", path)
	default:
		return exec.CommandContext(ctx, "xdg-open", path)
	}
}

// Open hands path to the platform's default application without waiting
// for it. The opener outlives cancellation of ctx.
func Open(ctx context.Context, path string) error {
	cmd := openCommand(context.WithoutCancel(ctx), runtime.GOOS, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	go cmd.Wait()
	return nil
}

func fenceLanguage(t Type) string {
	switch t {
	case TypeJSON:
		return "json"
	case TypeYAML:
		return "yaml"
	case TypeMermaid, TypeMermaidHTML:
		return "mermaid"
	}
	return ""
}

// Render formats the source of an export for a terminal. Markdown based
// types are rendered as Markdown, the others as a fenced code block. An
// empty style picks one from the terminal background.
func Render(r *Result, width int, style string) (string, error) {
	text := r.Source
	if lang := fenceLanguage(r.Type); lang != "" {
		text = "```" + lang + "\n" + text + "\n```\n"
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return renderer.Render(text)
}
