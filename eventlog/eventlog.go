// Package eventlog provides the append-only line sink used by the hook.
//
// Every record becomes one line of the form
//
//	[2006-01-02 15:04:05] message key=value ...
//
// The destination is reopened for each record so that a crash of the host
// process never loses buffered lines. Failures are reported on standard
// error and never propagate to the caller.
package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Options configures a Handler.
type Options struct {
	// Level is the minimum level written. Defaults to slog.LevelInfo.
	Level slog.Leveler

	// Fallback receives lines when the destination cannot be opened.
	// Defaults to os.Stderr.
	Fallback io.Writer
}

type sink struct {
	mu       sync.Mutex
	path     string
	fallback io.Writer
}

// Handler is a slog.Handler writing timestamped lines to a file.
type Handler struct {
	sink   *sink
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// New returns a logger writing to path.
func New(path string) *slog.Logger {
	return slog.New(NewHandler(path, nil))
}

// NewHandler returns a handler appending to path. An empty path writes to
// the fallback writer only.
func NewHandler(path string, opts *Options) *Handler {
	if opts == nil {
		opts = &Options{}
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = os.Stderr
	}
	return &Handler{
		sink:  &sink{path: path, fallback: fallback},
		level: level,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteByte('[')
	b.WriteString(ts.Format(timestampLayout))
	b.WriteString("] ")
	b.WriteString(record.Message)

	for _, attr := range h.attrs {
		appendAttr(&b, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&b, h.prefix, attr)
		return true
	})
	b.WriteByte('\n')

	h.sink.write(b.String())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		if h.prefix != "" {
			attr.Key = h.prefix + attr.Key
		}
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func appendAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		if attr.Key != "" {
			prefix = prefix + attr.Key + "."
		}
		for _, member := range group {
			appendAttr(b, prefix, member)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(attr.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(attr.Value))
}

func formatValue(v slog.Value) string {
	s := v.String()
	if v.Kind() != slog.KindString {
		return s
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		_, _ = io.WriteString(s.fallback, line)
		return
	}

	s.ensureDir()
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		_, _ = io.WriteString(s.fallback, line)
		return
	}
	_, _ = io.WriteString(f, line)
	_ = f.Close()
}

func (s *sink) ensureDir() {
	dir := filepath.Dir(s.path)
	if dir == "." || dir == string(filepath.Separator) {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(s.fallback, "[luahook] mkdir(%s) failed: %v\n", dir, err)
	}
}
