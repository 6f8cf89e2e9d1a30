package cli

import "fmt"

// CommandHelp represents the structure of help information for a specific command.
type CommandHelp struct {
	Command   string
	ShortDesc string
	LongDesc  string
	Syntax    string
	Arguments []string
	Options   []string
	Examples  []string
}

// HandleHelp shows the command overview, or the details of one command.
func (c *CLI) HandleHelp(args []string) error {
	switch len(args) {
	case 0:
		return c.showGeneralHelp()
	case 1:
		return c.showCommandHelp(args[0])
	default:
		return fmt.Errorf("invalid help command. Use 'help [command]'")
	}
}

func (c *CLI) showGeneralHelp() error {
	c.UI.Message("Available commands:")
	for _, cmd := range commandHelps {
		c.UI.Message("  %-10s %s", cmd.Command, cmd.ShortDesc)
	}
	c.UI.Message("\nUse 'help <command>' for more information about a specific command.")
	return nil
}

func (c *CLI) showCommandHelp(command string) error {
	for _, cmd := range commandHelps {
		if cmd.Command != command {
			continue
		}
		c.UI.Message("Command: %s", cmd.Command)
		c.UI.Message("Description: %s", cmd.LongDesc)
		c.UI.Message("Syntax: %s", cmd.Syntax)
		if len(cmd.Arguments) > 0 {
			c.UI.Message("Arguments:")
			for _, arg := range cmd.Arguments {
				c.UI.Message("  %s", arg)
			}
		}
		if len(cmd.Options) > 0 {
			c.UI.Message("Options:")
			for _, opt := range cmd.Options {
				c.UI.Message("  %s", opt)
			}
		}
		if len(cmd.Examples) > 0 {
			c.UI.Message("Examples:")
			for _, ex := range cmd.Examples {
				c.UI.Message("  %s", ex)
			}
		}
		return nil
	}
	return fmt.Errorf("no help found for %s", command)
}

// Commands lists the shell command names, e.g. for completion.
func Commands() []string {
	names := make([]string, 0, len(commandHelps))
	for _, cmd := range commandHelps {
		names = append(names, cmd.Command)
	}
	return names
}

var commandHelps = []CommandHelp{
	{
		Command:   "get",
		ShortDesc: "Print the document as JSON",
		LongDesc:  "Reads the open document and prints its topics as nested JSON objects.",
		Syntax:    "get [text|content|full] [--turbo]",
		Arguments: []string{"mode: (Optional) How much of every topic to read. Defaults to full"},
		Options:   []string{"--turbo: Text only operations"},
		Examples:  []string{"get", "get content"},
	},
	{
		Command:   "show",
		ShortDesc: "Draw the document tree",
		LongDesc:  "Reads the open document and draws its topics as a tree. Topics with notes are marked with an asterisk.",
		Syntax:    "show [text|content|full] [--guid]",
		Arguments: []string{"mode: (Optional) How much of every topic to read. Defaults to full"},
		Options:   []string{"--guid: Show topic guids"},
		Examples:  []string{"show", "show text --guid"},
	},
	{
		Command:   "selection",
		ShortDesc: "Print the selected topics",
		LongDesc:  "Prints the selected topics as JSON objects.",
		Syntax:    "selection",
		Examples:  []string{"selection"},
	},
	{
		Command:   "grounding",
		ShortDesc: "Print the selection context",
		LongDesc:  "Prints the top most path and the subtopics derived from the selection.",
		Syntax:    "grounding [text|content|full]",
		Examples:  []string{"grounding"},
	},
	{
		Command:   "library",
		ShortDesc: "Print the library folder",
		LongDesc:  "Prints the library folder of the automation target.",
		Syntax:    "library",
		Examples:  []string{"library"},
	},
	{
		Command:   "mermaid",
		ShortDesc: "Print the document as a mermaid diagram",
		LongDesc:  "Full mode carries every attribute in metadata comments; other modes print the plain outline.",
		Syntax:    "mermaid [text|content|full] [--id-only]",
		Arguments: []string{"mode: (Optional) Defaults to content"},
		Options:   []string{"--id-only: Numeric ids instead of metadata (full mode)"},
		Examples:  []string{"mermaid", "mermaid full", "mermaid full --id-only"},
	},
	{
		Command:   "create",
		ShortDesc: "Create a document from a mermaid diagram",
		LongDesc:  "Creates a new document from a diagram file or inline text. Diagrams with metadata comments keep their attributes.",
		Syntax:    "create <file> | create --text <diagram> [--turbo]",
		Arguments: []string{"file: Path of the diagram", "diagram: Inline diagram; \\n separates lines"},
		Options:   []string{"--turbo: Create topics from their text only"},
		Examples:  []string{"create map.mmd", "create --text \"mindmap\\n  Root\\n    Idea\""},
	},
	{
		Command:   "export",
		ShortDesc: "Export the document",
		LongDesc:  "Exports the document as mermaid_html, markmap_html, markdown_html, json, yaml, mermaid, markmap or markdown.",
		Syntax:    "export <type> [output] [--open|--stream|--render]",
		Arguments: []string{"type: The export type", "output: (Optional) File or directory. Defaults to the docs folder"},
		Options:   []string{"--open: Open the file after writing it", "--stream: Print instead of writing a file", "--render: Print the source rendered for the terminal"},
		Examples:  []string{"export markdown_html", "export json out/map.json", "export markdown --render"},
	},
	{
		Command:   "source",
		ShortDesc: "Run a script",
		LongDesc:  "Runs every line of a script file as a shell command.",
		Syntax:    "source <script>",
		Examples:  []string{"source setup.txt"},
	},
	{
		Command:   "help",
		ShortDesc: "Show help",
		LongDesc:  "Shows the command overview or the details of one command.",
		Syntax:    "help [command]",
		Examples:  []string{"help", "help export"},
	},
	{
		Command:   "exit",
		ShortDesc: "Exit the shell",
		LongDesc:  "Exits the shell. 'quit' does the same.",
		Syntax:    "exit",
		Examples:  []string{"exit"},
	},
}
