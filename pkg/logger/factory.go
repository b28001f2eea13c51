package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config controls the stdout handler.
type Config struct {
	Output io.Writer // defaults to os.Stdout
	Format string    // FormatJSON (default) or FormatText
	Level  slog.Level
}

// New creates a logger writing to stdout with the configured level and format.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(newStdoutHandler(cfg), extractors...))
}

func newStdoutHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if strings.EqualFold(cfg.Format, FormatText) {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
