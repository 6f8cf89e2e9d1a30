package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mindm/internal/actions"
	"mindm/internal/config"
	"mindm/internal/log"
	"mindm/internal/mindmap"
	"mindm/internal/model"
	"mindm/internal/remote"
	"mindm/internal/storage"
)

// Exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
)

// exitError carries the process exit code out of a command. A nil err
// means the failure was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(format string, args ...any) error {
	return &exitError{code: exitInvalidInput, err: fmt.Errorf(format, args...)}
}

// app holds what every command shares: streams, global flags, the loaded
// configuration and the logger.
type app struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool

	loadConfig func(path string) (*model.Config, error)

	configPath string
	target     string
	jsonOut    bool
	pretty     bool

	cfg    *model.Config
	logger *log.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
		configPath: config.Path(),
	}
}

func loadConfig(path string) (*model.Config, error) {
	config.SetPath(path)
	if err := config.ConfigLoad(); err != nil {
		return nil, err
	}
	return config.ConfigGet(), nil
}

// setup loads the configuration and opens the logger before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig(a.configPath)
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("failed to load configuration: %w", err)}
	}
	if a.target != "" {
		cfg.Target = a.target
	}
	a.cfg = cfg

	logger, err := log.NewLogger(cfg, log.ParseLevel(cfg.LogLevel))
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("failed to initialize logger: %w", err)}
	}
	a.logger = logger
	a.logger.Info(cmd.Context(), "Application started", log.Fields{"command": cmd.CommandPath(), "target": cfg.Target})
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.logger == nil {
		return
	}
	a.logger.Info(ctx, "Application shutting down", nil)
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(a.stderr, "Failed to close logger: %v\n", err)
	}
	a.logger = nil
}

func (a *app) dataSource() string {
	if a.cfg.Target == storage.TargetName {
		return config.DatabasePath(a.cfg)
	}
	return ""
}

// service builds the actions service for cmd, validating its mode and
// chart type flags.
func (a *app) service(cmd *cobra.Command) (*actions.Service, error) {
	if f := cmd.Flags().Lookup("mode"); f != nil {
		if _, err := mindmap.ParseMode(f.Value.String()); err != nil {
			return nil, usageError("%v", err)
		}
	}
	chartType := a.cfg.ChartType
	if f := cmd.Flags().Lookup("charttype"); f != nil && f.Changed {
		chartType = f.Value.String()
	}
	if !remote.ValidChartType(chartType) {
		return nil, usageError("invalid chart type %q: expected auto, orgchart or radial", chartType)
	}
	return actions.New(a.logger, actions.Options{
		Target:               a.cfg.Target,
		DataSource:           a.dataSource(),
		ChartType:            chartType,
		DuplicateLinkCeiling: a.cfg.DuplicateLinkCeiling,
		IgnoreRTF:            a.cfg.IgnoreRTF,
	}), nil
}

// turbo returns the --turbo-mode flag when given, the configured value
// otherwise.
func (a *app) turbo(cmd *cobra.Command) bool {
	if f := cmd.Flags().Lookup("turbo-mode"); f != nil && f.Changed {
		on, _ := cmd.Flags().GetBool("turbo-mode")
		return on
	}
	return a.cfg.TurboMode
}

func (a *app) writeJSON(v any) error {
	var data []byte
	var err error
	if a.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("failed to encode result: %w", err)}
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

// emit prints the outcome of an action. Text results are written raw
// unless --json is set. Failures print their payload and exit with 1.
func (a *app) emit(result any, err error, text bool) error {
	if err != nil {
		return a.fail(err, exitFailure)
	}
	if s, ok := result.(string); ok && text && !a.jsonOut {
		_, err := io.WriteString(a.stdout, s)
		return err
	}
	return a.writeJSON(result)
}

func (a *app) fail(err error, code int) error {
	var e *actions.Error
	if !errors.As(err, &e) {
		e = &actions.Error{Kind: actions.KindInternal, Message: err.Error()}
	}
	if werr := a.writeJSON(e); werr != nil {
		return werr
	}
	return &exitError{code: code}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	a.close(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(a.stderr, "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(a.stderr, "Error:", err)
	return exitInvalidInput
}
