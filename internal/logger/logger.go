// Package logger builds the structured loggers used across the gateway.
// Components take a *slog.Logger in their constructors; this package only
// decides level, format and destination, and provides capture/no-op variants
// for tests.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DebugEnv forces debug level when set to any non-empty value.
const DebugEnv = "SSHSSHJE_DEBUG"

// Options controls how New builds a logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// New creates a logger from the given options. Unknown levels fall back to
// info and unknown formats to text.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(opts.Level)
	if os.Getenv(DebugEnv) != "" {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Noop returns a logger that discards all messages.
func Noop() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

// LogMessage represents a captured log record.
type LogMessage struct {
	Level   string
	Message string
	Attrs   map[string]string
}

// Capture records every log entry for inspection in tests.
type Capture struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewCapture returns a capture sink and a logger that writes into it.
func NewCapture() (*Capture, *slog.Logger) {
	c := &Capture{}
	return c, slog.New(&captureHandler{capture: c})
}

// Messages returns a copy of the captured entries.
func (c *Capture) Messages() []LogMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (c *Capture) HasLevel(level string) bool {
	for _, m := range c.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains returns true if any captured message contains substr.
func (c *Capture) Contains(substr string) bool {
	for _, m := range c.Messages() {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (c *Capture) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
}

type captureHandler struct {
	capture *Capture
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	msg := LogMessage{
		Level:   strings.ToLower(r.Level.String()),
		Message: r.Message,
		Attrs:   make(map[string]string),
	}
	for _, a := range h.attrs {
		msg.Attrs[a.Key] = fmt.Sprint(a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		msg.Attrs[a.Key] = fmt.Sprint(a.Value.Any())
		return true
	})

	h.capture.mu.Lock()
	h.capture.messages = append(h.capture.messages, msg)
	h.capture.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{capture: h.capture, attrs: merged}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }
