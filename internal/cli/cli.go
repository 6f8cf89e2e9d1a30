// Package cli provides the interactive shell: a readline loop whose commands
// map onto the actions and the exporters.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"mindm/internal/actions"
	"mindm/internal/log"
	"mindm/internal/ui"
)

// ErrExit is returned by ExecuteCommand when the shell should stop.
var ErrExit = errors.New("exit requested")

type CLI struct {
	Actions *actions.Service
	UI      *ui.UI
	RL      *readline.Instance
	Logger  *log.Logger
	Prompt  string

	// DocsDir receives exports without an explicit output path.
	DocsDir string
	// Width is the word wrap width of rendered exports.
	Width int
}

func NewCLI(svc *actions.Service, u *ui.UI, rl *readline.Instance, logger *log.Logger) *CLI {
	if logger == nil {
		logger = log.NewNop()
	}
	c := &CLI{Actions: svc, UI: u, RL: rl, Logger: logger, DocsDir: "docs", Width: 80}
	c.UpdatePrompt()
	return c
}

// UpdatePrompt refreshes the prompt from the service options.
func (c *CLI) UpdatePrompt() {
	opts := c.Actions.Options()
	c.Prompt = c.UI.Prompt(opts.Target, opts.ChartType)
	if c.RL != nil {
		c.RL.SetPrompt(c.Prompt)
	}
}

// Run reads and executes one line.
func (c *CLI) Run(ctx context.Context) error {
	line, err := c.RL.Readline()
	if err != nil {
		return err
	}
	return c.ExecuteLine(ctx, line)
}

// Loop runs the shell until exit, EOF or a closed readline.
func (c *CLI) Loop(ctx context.Context) error {
	for {
		err := c.Run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, readline.ErrInterrupt):
			c.UI.Info("Use 'exit' or 'quit' to exit the program.")
		case errors.Is(err, io.EOF), errors.Is(err, ErrExit):
			return nil
		default:
			c.UI.Error(err.Error())
		}
		c.UpdatePrompt()
	}
}

// ExecuteLine parses and executes one command line. Blank lines and
// comments starting with # are ignored.
func (c *CLI) ExecuteLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	c.Logger.Command(ctx, line, nil)
	return c.ExecuteCommand(ctx, c.ParseArgs(line))
}

// ParseArgs splits input on spaces. Double quotes group words and are
// dropped.
func (c *CLI) ParseArgs(input string) []string {
	var args []string
	var currentArg strings.Builder
	inQuotes := false
	quoted := false

	for _, char := range input {
		switch char {
		case '"':
			inQuotes = !inQuotes
			quoted = true
		case ' ', '\t':
			if !inQuotes {
				if currentArg.Len() > 0 || quoted {
					args = append(args, currentArg.String())
					currentArg.Reset()
					quoted = false
				}
			} else {
				currentArg.WriteRune(char)
			}
		default:
			currentArg.WriteRune(char)
		}
	}

	if currentArg.Len() > 0 || quoted {
		args = append(args, currentArg.String())
	}
	return args
}

func (c *CLI) ExecuteCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "get":
		return c.handleGet(ctx, args[1:])
	case "show":
		return c.handleShow(ctx, args[1:])
	case "selection":
		return c.handleSelection(ctx, args[1:])
	case "grounding":
		return c.handleGrounding(ctx, args[1:])
	case "library":
		return c.handleLibrary(ctx, args[1:])
	case "mermaid":
		return c.handleMermaid(ctx, args[1:])
	case "create":
		return c.handleCreate(ctx, args[1:])
	case "export":
		return c.handleExport(ctx, args[1:])
	case "source":
		return c.handleSource(ctx, args[1:])
	case "help":
		return c.HandleHelp(args[1:])
	case "exit", "quit":
		c.UI.Println("Exiting...")
		return ErrExit
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// ExecuteScript runs every line of a script file, stopping at the first
// failing command or at exit.
func (c *CLI) ExecuteScript(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	for i, line := range strings.Split(string(data), "\n") {
		if err := c.ExecuteLine(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return err
			}
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
	}
	return nil
}

// NewReadline creates the line editor with history and command completion.
func NewReadline(prompt, historyFile string) (*readline.Instance, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commandHelps))
	for _, name := range Commands() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}
