package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mindm/internal/actions"
	"mindm/internal/cli"
	"mindm/internal/export"
	"mindm/internal/log"
	"mindm/internal/mcpserver"
	"mindm/internal/preview"
	"mindm/internal/ui"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mindm",
		Short:         "High-level mind map operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&a.jsonOut, "json", false, "Force JSON output for text responses.")
	pf.BoolVar(&a.pretty, "pretty", false, "Pretty-print JSON output.")
	pf.StringVar(&a.target, "target", "", "Automation target, overrides the configured one.")
	pf.StringVar(&a.configPath, "config", a.configPath, "Configuration file.")

	root.AddCommand(
		getMindmapCmd(a),
		getSelectionCmd(a),
		getGroundingCmd(a),
		getLibraryFolderCmd(a),
		serializeMermaidCmd(a),
		createFromMermaidCmd(a),
		exportCmd(a),
		shellCmd(a),
		mcpCmd(a),
		serveCmd(a),
	)
	return root
}

type commonFlags struct {
	mode  bool
	turbo bool
}

func addCommonFlags(cmd *cobra.Command, defaultMode string, with commonFlags) {
	if with.mode {
		cmd.Flags().String("mode", defaultMode, "Detail level for mindmap extraction: text, content or full.")
	}
	if with.turbo {
		cmd.Flags().Bool("turbo-mode", false, "Enable turbo mode (text-only operations).")
	}
	cmd.Flags().String("charttype", "auto", "Chart type for new maps: auto, orgchart or radial.")
}

func mode(cmd *cobra.Command) string {
	m, _ := cmd.Flags().GetString("mode")
	return m
}

func getMindmapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-mindmap",
		Short: "Get the mindmap.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.GetMindmap(cmd.Context(), mode(cmd), a.turbo(cmd))
			return a.emit(res, err, false)
		},
	}
	addCommonFlags(cmd, "full", commonFlags{mode: true, turbo: true})
	return cmd
}

func getSelectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-selection",
		Short: "Get selected topics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.GetSelection(cmd.Context(), a.turbo(cmd))
			return a.emit(res, err, false)
		},
	}
	addCommonFlags(cmd, "full", commonFlags{mode: true, turbo: true})
	return cmd
}

func getGroundingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-grounding-information",
		Short: "Get grounding information.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.GetGroundingInformation(cmd.Context(), mode(cmd), a.turbo(cmd))
			return a.emit(res, err, false)
		},
	}
	addCommonFlags(cmd, "full", commonFlags{mode: true, turbo: true})
	return cmd
}

func getLibraryFolderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-library-folder",
		Short: "Get the library folder path.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.GetLibraryFolder(cmd.Context())
			return a.emit(res, err, true)
		},
	}
	addCommonFlags(cmd, "", commonFlags{turbo: true})
	return cmd
}

func serializeMermaidCmd(a *app) *cobra.Command {
	var idOnly bool
	cmd := &cobra.Command{
		Use:   "serialize-mermaid",
		Short: "Serialize to Mermaid format.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.SerializeMermaid(cmd.Context(), idOnly, mode(cmd), a.turbo(cmd))
			return a.emit(res, err, true)
		},
	}
	cmd.Flags().BoolVar(&idOnly, "id-only", false, "Serialize Mermaid with IDs only.")
	addCommonFlags(cmd, "content", commonFlags{mode: true, turbo: true})
	return cmd
}

func createFromMermaidCmd(a *app) *cobra.Command {
	var input, text string
	cmd := &cobra.Command{
		Use:   "create-from-mermaid",
		Short: "Create mindmap from Mermaid (auto-detect full vs simplified).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			mermaid, err := actions.ReadInput(actions.Input{
				Text:        text,
				HasText:     cmd.Flags().Changed("text"),
				Path:        input,
				Stdin:       a.stdin,
				Interactive: a.interactive,
			})
			if err != nil {
				return a.fail(err, exitInvalidInput)
			}
			res, err := svc.CreateFromMermaid(cmd.Context(), mermaid, a.turbo(cmd))
			return a.emit(res, err, false)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Path to Mermaid text file.")
	cmd.Flags().StringVar(&text, "text", "", "Mermaid text payload.")
	cmd.MarkFlagsMutuallyExclusive("input", "text")
	addCommonFlags(cmd, "", commonFlags{turbo: true})
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var typ, output string
	var open, stream, render bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current mindmap to HTML or data-only output.",
		Long: "Export the current mindmap to HTML or data-only output for mermaid, markmap,\n" +
			"markdown, JSON, or YAML. Without --output the file goes to the docs directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := export.ParseType(typ); err != nil {
				return usageError("%v", err)
			}
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			r, err := svc.Export(cmd.Context(), typ)
			if err != nil {
				return a.fail(err, exitFailure)
			}

			switch {
			case stream:
				_, err := fmt.Fprint(a.stdout, r.Output)
				return err
			case render:
				out, err := export.Render(r, 100, "")
				if err != nil {
					return &exitError{code: exitFailure, err: err}
				}
				_, err = fmt.Fprint(a.stdout, out)
				return err
			}

			path, err := export.ResolveOutputPath(output, r.Type, a.cfg.DocsDir)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if err := export.Write(path, r); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			a.logger.Info(cmd.Context(), "Exported", log.Fields{"type": typ, "path": path})
			fmt.Fprintln(a.stdout, path)

			if open {
				if err := export.Open(cmd.Context(), path); err != nil {
					return &exitError{code: exitFailure, err: err}
				}
			}
			return nil
		},
	}

	types := make([]string, len(export.Types))
	for i, t := range export.Types {
		types[i] = string(t)
	}
	cmd.Flags().StringVar(&typ, "type", "", "Export type: "+strings.Join(types, ", ")+".")
	cmd.Flags().StringVar(&output, "output", "", "Output file path. Defaults to <docs>/<uuid> plus an extension based on --type.")
	cmd.Flags().BoolVar(&open, "open", false, "Open the generated output file after export.")
	cmd.Flags().BoolVar(&stream, "stream", false, "Write the generated output to stdout instead of writing a file.")
	cmd.Flags().BoolVar(&render, "render", false, "Render the export source for the terminal instead of writing a file.")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagsMutuallyExclusive("open", "stream", "render")
	return cmd
}

func shellCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell [script]",
		Short: "Start the interactive shell, or run a script of shell commands.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			c := cli.NewCLI(svc, ui.NewUI(a.stdout, a.interactive), nil, a.logger)
			c.DocsDir = a.cfg.DocsDir

			if len(args) == 1 {
				if err := c.ExecuteScript(cmd.Context(), args[0]); err != nil && !errors.Is(err, cli.ErrExit) {
					return &exitError{code: exitFailure, err: err}
				}
				return nil
			}

			if a.cfg.HistoryFile != "" {
				if err := os.MkdirAll(filepath.Dir(a.cfg.HistoryFile), 0755); err != nil {
					return &exitError{code: exitFailure, err: err}
				}
			}
			rl, err := cli.NewReadline(c.Prompt, a.cfg.HistoryFile)
			if err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("failed to initialize readline: %w", err)}
			}
			defer rl.Close()
			c.RL = rl

			if err := c.Loop(cmd.Context()); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			fmt.Fprintln(a.stdout, "Goodbye!")
			return nil
		},
	}
	addCommonFlags(cmd, "", commonFlags{})
	return cmd
}

func mcpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the mindmap tools over MCP on stdio.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := mcpserver.New(svc, a.logger).ServeStdio(cmd.Context(), a.stdin, a.stdout); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			return nil
		},
	}
	addCommonFlags(cmd, "", commonFlags{})
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mindmap and its exports over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.PreviewAddr
			}
			gin.SetMode(gin.ReleaseMode)
			fmt.Fprintf(a.stderr, "Serving on http://%s\n", addr)
			if err := preview.NewServer(svc, a.logger).Serve(cmd.Context(), addr); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, defaults to the configured preview address.")
	addCommonFlags(cmd, "", commonFlags{})
	return cmd
}
