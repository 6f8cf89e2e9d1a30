package actions

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
)

// Input names where diagram text comes from. Text wins over Path; with
// neither, Stdin is read unless it is a terminal.
type Input struct {
	Text    string
	HasText bool
	Path    string
	Stdin   io.Reader
	// Interactive is set when Stdin is attached to a terminal.
	Interactive bool
}

// ReadInput returns the diagram text selected by in.
func ReadInput(in Input) (string, error) {
	if in.HasText {
		return in.Text, nil
	}
	if in.Path != "" {
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return "", invalidInput(fmt.Errorf("failed to read %s: %w", in.Path, err))
		}
		return string(data), nil
	}
	if in.Stdin == nil || in.Interactive {
		return "", invalidInput(ErrNoInput)
	}
	data, err := io.ReadAll(in.Stdin)
	if err != nil {
		return "", invalidInput(fmt.Errorf("failed to read stdin: %w", err))
	}
	return string(data), nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return readline.IsTerminal(int(f.Fd()))
}
