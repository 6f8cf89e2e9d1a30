// Package log provides structured logging for commands, errors and diagnostics
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mindm/internal/model"
)

// Fields carries the structured attributes of a log entry
type Fields map[string]interface{}

// Logger writes commands, errors and diagnostic entries to separate JSON log files
type Logger struct {
	commandLogger *slog.Logger
	errorLogger   *slog.Logger
	infoLogger    *slog.Logger
	stderrLogger  *slog.Logger
	files         []*os.File
	level         LogLevel
}

// NewLogger creates a Logger writing into cfg.LogFolder. Entries less severe
// than level are dropped from the info log.
func NewLogger(cfg *model.Config, level LogLevel) (*Logger, error) {
	// Create log directory if it doesn't exist
	if err := os.MkdirAll(cfg.LogFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var files []*os.File
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(cfg.LogFolder, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	commandFile, err := open(cfg.CommandLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open command log file: %w", err)
	}
	errorFile, err := open(cfg.ErrorLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log file: %w", err)
	}
	infoFile, err := open(cfg.InfoLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open info log file: %w", err)
	}

	logger := &Logger{
		commandLogger: slog.New(slog.NewJSONHandler(commandFile, &slog.HandlerOptions{Level: slog.LevelInfo})),
		errorLogger:   slog.New(slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})),
		infoLogger:    slog.New(slog.NewJSONHandler(infoFile, &slog.HandlerOptions{Level: level.toSlogLevel()})),
		files:         files,
		level:         level,
	}
	if cfg.LogToStderr {
		logger.stderrLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.toSlogLevel()}))
	}
	return logger, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	discard := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return &Logger{
		commandLogger: discard,
		errorLogger:   discard,
		infoLogger:    discard,
		level:         LevelError,
	}
}

// NewWriter returns a Logger sending every stream to w. Used by tests that
// assert on log output.
func NewWriter(w io.Writer, level LogLevel) *Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.toSlogLevel()}))
	return &Logger{commandLogger: l, errorLogger: l, infoLogger: l, level: level}
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, fields Fields) {
	if l == nil {
		return
	}
	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs = append(attrs, k, v)
	}

	switch level {
	case LevelCommand:
		l.commandLogger.InfoContext(ctx, msg, attrs...)
	case LevelError:
		l.errorLogger.ErrorContext(ctx, msg, attrs...)
		l.infoLogger.ErrorContext(ctx, msg, attrs...)
	default:
		l.infoLogger.Log(ctx, level.toSlogLevel(), msg, attrs...)
	}
	if l.stderrLogger != nil && level != LevelCommand {
		l.stderrLogger.Log(ctx, level.toSlogLevel(), msg, attrs...)
	}
}

// Command records an executed command line.
func (l *Logger) Command(ctx context.Context, command string, fields Fields) {
	l.log(ctx, LevelCommand, command, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelDebug, msg, fields)
}

// Close closes all log files
func (l *Logger) Close() error {
	for _, f := range l.files {
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close log file %s: %w", f.Name(), err)
		}
	}
	l.files = nil
	return nil
}
