package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mindm/internal/actions"
	"mindm/internal/export"
	"mindm/internal/log"
	"mindm/internal/serialization"
)

// splitFlags separates --flags from positional arguments.
func splitFlags(args []string) (positional []string, flags map[string]bool) {
	flags = map[string]bool{}
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			flags[strings.TrimPrefix(arg, "--")] = true
			continue
		}
		positional = append(positional, arg)
	}
	return positional, flags
}

// modeArg returns the first positional argument, or def.
func modeArg(positional []string, def string) string {
	if len(positional) > 0 {
		return positional[0]
	}
	return def
}

// report prints an action result. Strings are printed as they are, other
// values as indented JSON.
func (c *CLI) report(result any, err error) error {
	if err != nil {
		return err
	}
	if s, ok := result.(string); ok {
		c.UI.Println(s)
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	c.UI.Println(string(data))
	return nil
}

func (c *CLI) handleGet(ctx context.Context, args []string) error {
	positional, flags := splitFlags(args)
	return c.report(c.Actions.GetMindmap(ctx, modeArg(positional, "full"), flags["turbo"]))
}

func (c *CLI) handleShow(ctx context.Context, args []string) error {
	positional, flags := splitFlags(args)
	root, err := c.Actions.Mindmap(ctx, modeArg(positional, "full"), flags["turbo"])
	if err != nil {
		return err
	}
	c.UI.Tree(root, flags["guid"])
	return nil
}

func (c *CLI) handleSelection(ctx context.Context, args []string) error {
	_, flags := splitFlags(args)
	return c.report(c.Actions.GetSelection(ctx, flags["turbo"]))
}

func (c *CLI) handleGrounding(ctx context.Context, args []string) error {
	positional, flags := splitFlags(args)
	return c.report(c.Actions.GetGroundingInformation(ctx, modeArg(positional, "full"), flags["turbo"]))
}

func (c *CLI) handleLibrary(ctx context.Context, args []string) error {
	return c.report(c.Actions.GetLibraryFolder(ctx))
}

func (c *CLI) handleMermaid(ctx context.Context, args []string) error {
	positional, flags := splitFlags(args)
	return c.report(c.Actions.SerializeMermaid(ctx, flags["id-only"], modeArg(positional, "content"), flags["turbo"]))
}

func (c *CLI) handleCreate(ctx context.Context, args []string) error {
	var in actions.Input
	turbo := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--turbo":
			turbo = true
		case "--text":
			if i+1 >= len(args) {
				return fmt.Errorf("usage: create <file> | create --text <diagram>")
			}
			i++
			in.Text, in.HasText = strings.ReplaceAll(args[i], `\n`, "\n"), true
		default:
			in.Path = args[i]
		}
	}
	if !in.HasText && in.Path == "" {
		return fmt.Errorf("usage: create <file> | create --text <diagram>")
	}

	text, err := actions.ReadInput(in)
	if err != nil {
		return err
	}
	res, err := c.Actions.CreateFromMermaid(ctx, text, turbo)
	if err != nil {
		return err
	}
	if obj, ok := res.(*serialization.Object); ok {
		if msg, ok := obj.Get("message"); ok {
			c.UI.Success(fmt.Sprint(msg))
			return nil
		}
	}
	return c.report(res, nil)
}

func (c *CLI) handleExport(ctx context.Context, args []string) error {
	positional, flags := splitFlags(args)
	if len(positional) == 0 {
		return fmt.Errorf("usage: export <type> [output] [--open|--stream|--render]")
	}
	if flags["open"] && flags["stream"] {
		return fmt.Errorf("--open and --stream exclude each other")
	}

	r, err := c.Actions.Export(ctx, positional[0])
	if err != nil {
		return err
	}
	if flags["render"] {
		out, err := export.Render(r, c.Width, "")
		if err != nil {
			return err
		}
		c.UI.Print(out)
		return nil
	}
	if flags["stream"] {
		c.UI.Println(r.Output)
		return nil
	}

	path, err := export.ResolveOutputPath(modeArg(positional[1:], ""), r.Type, c.DocsDir)
	if err != nil {
		return err
	}
	if err := export.Write(path, r); err != nil {
		return err
	}
	c.Logger.Info(ctx, "Exported", log.Fields{"type": string(r.Type), "path": path})
	c.UI.Success(path)
	if flags["open"] {
		return export.Open(ctx, path)
	}
	return nil
}

func (c *CLI) handleSource(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: source <script>")
	}
	return c.ExecuteScript(ctx, args[0])
}
