// Package logger configures log/slog for the CLI and server.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// Config holds the configuration of the logger.
type Config struct {
	Level  slog.Level
	Format string
	// Output defaults to stderr; stdout stays free for command output and
	// the MCP stdio transport.
	Output io.Writer
}

type contextKey string

// ContextKeyRequestID is the key for the request ID in a context.
const ContextKeyRequestID contextKey = "request_id"

// New creates a logger with the given config.
func New(config Config) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if config.Format == "json" {
		opts := &slog.HandlerOptions{
			Level: config.Level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{
						Key:   a.Key,
						Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
					}
				}
				return a
			},
		}
		return slog.New(slog.NewJSONHandler(out, opts))
	}

	return slog.New(tint.NewHandler(out, &tint.Options{
		Level:      config.Level,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(out),
	}))
}

// Setup builds a logger from config values and installs it as the default.
func Setup(level, format string, verbose bool) *slog.Logger {
	cfg := FromConfig(level, format)
	if verbose {
		cfg.Level = slog.LevelDebug
	}
	l := New(cfg)
	slog.SetDefault(l)
	return l
}

// FromConfig creates a logger configuration from config strings.
func FromConfig(logLevel, logFormat string) Config {
	config := Config{Level: ParseLevel(logLevel), Format: "text"}
	if f := strings.ToLower(logFormat); f != "" {
		config.Format = f
	}
	return config
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// GenerateRequestID generates a new request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// FromContext returns l annotated with the request ID in ctx.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if id := RequestID(ctx); id != "" {
		return l.With(slog.String("request_id", id))
	}
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
