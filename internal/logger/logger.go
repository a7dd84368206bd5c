package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger interface
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

// LoggerOption configures a Logger
type LoggerOption func(*loggerConfig) error

// loggerConfig holds logger configuration
type loggerConfig struct {
	format    string
	auditPath string
}

// WithFormat sets the log format (text or json)
func WithFormat(format string) LoggerOption {
	return func(c *loggerConfig) error {
		format = strings.ToLower(format)
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
		}
		c.format = format
		return nil
	}
}

// WithAudit tees every record at INFO and above to a JSON audit file
func WithAudit(auditPath string) LoggerOption {
	return func(c *loggerConfig) error {
		if auditPath == "" {
			return fmt.Errorf("audit path cannot be empty")
		}
		c.auditPath = auditPath
		return nil
	}
}

// New creates a new logger. outputPath is "stdout", "stderr" or a file path.
func New(levelStr, outputPath string, opts ...LoggerOption) (Logger, error) {
	config := &loggerConfig{
		format: "text",
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	level := parseSlogLevel(levelStr)

	mainOutput, err := openOutput(outputPath)
	if err != nil {
		return nil, err
	}

	handler := newHandler(config.format, mainOutput, level)
	closers := []io.Closer{}
	if isFile(mainOutput) {
		closers = append(closers, mainOutput)
	}

	if config.auditPath != "" {
		auditFile, err := os.OpenFile(config.auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 G302 - configurable audit log path
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		closers = append(closers, auditFile)

		// Audit records are always JSON at INFO level
		handler = NewMultiHandler(handler, slog.NewJSONHandler(auditFile, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return &slogLogger{
		logger:  slog.New(handler),
		closers: closers,
	}, nil
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return &slogLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func openOutput(outputPath string) (io.WriteCloser, error) {
	switch strings.ToLower(outputPath) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 G302 - configurable log file path
		if err != nil {
			return nil, err
		}
		return file, nil
	}
}

func isFile(w io.WriteCloser) bool {
	return w != os.Stdout && w != os.Stderr
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// parseSlogLevel converts a string level to slog.Level
func parseSlogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// slogLogger implements the Logger interface on top of log/slog
type slogLogger struct {
	logger  *slog.Logger
	closers []io.Closer
}

func (l *slogLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *slogLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *slogLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}

func (l *slogLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

// With returns a child logger carrying the given attributes. The child
// shares outputs with its parent; only the parent's Sync closes them.
func (l *slogLogger) With(keysAndValues ...interface{}) Logger {
	return &slogLogger{logger: l.logger.With(keysAndValues...)}
}

// Sync closes file outputs. Stdout and stderr are left open.
func (l *slogLogger) Sync() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}
