package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/relayhub/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "relayhub"

// Logger is the relay hub's structured logger. It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of the config.
// Every entry carries service=relayhub and the build version.
//
// Parameters:
//   - cfg: Logging configuration (level, format, output)
//   - version: Build version attached to every entry
//
// Returns:
//   - *Logger: Ready-to-use logger writing to cfg.Output
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, outputWriter(cfg.Output))
}

// NewWithWriter is New with an explicit destination, ignoring cfg.Output.
//
// Parameters:
//   - cfg: Logging configuration; Output is ignored
//   - version: Build version attached to every entry
//   - output: Destination for encoded entries
//
// Returns:
//   - *Logger: Logger writing to output
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	handler := newHandler(cfg.Format, output, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	return &Logger{
		Logger: slog.New(handler.WithAttrs([]slog.Attr{
			slog.String("service", serviceName),
			slog.String("version", version),
		})),
	}
}

// outputWriter maps logging.output onto a writer. Unknown values fall back
// to stdout.
func outputWriter(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}

// newHandler returns a text handler for format "text" and JSON otherwise.
func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel accepts debug, info, warn/warning and error in any case.
// Anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger carrying the extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a child Logger tagged with the subsystem name.
//
// Parameters:
//   - name: Subsystem name, such as "relay" or "telemetry"
//
// Returns:
//   - *Logger: Child logger with component=name on every entry
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the bootstrap logger used until the config has been read:
// JSON at info level on stdout.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
}
