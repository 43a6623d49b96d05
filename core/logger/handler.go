package logger

import (
	"context"
	"log/slog"
	"time"
)

const timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"

// contextHandler adds the Meta carried by the context to each record
// before delegating to next.
type contextHandler struct {
	next slog.Handler
}

func newContextHandler(next slog.Handler) *contextHandler {
	return &contextHandler{next: next}
}

// Enabled reports whether the wrapped handler allows the level.
func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds Meta fields that the record does not already carry.
func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	m, ok := metaFrom(ctx)
	if !ok {
		return h.next.Handle(ctx, r)
	}
	present := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = struct{}{}
		return true
	})
	for _, a := range m.attrs() {
		if _, ok := present[a.Key]; !ok {
			r.AddAttrs(a)
		}
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs returns a handler whose wrapped handler carries attrs.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup returns a handler whose wrapped handler opens group name.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{next: h.next.WithGroup(name)}
}

// replaceAttr renames built-in keys to the ts/level/event schema and
// renders durations as milliseconds.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey:
			return slog.String("ts", a.Value.Time().UTC().Truncate(time.Millisecond).Format(timeFormatMillis))
		case slog.MessageKey:
			a.Key = "event"
			return a
		}
	}
	if a.Value.Kind() == slog.KindDuration {
		return slog.Int64(durationKey(a.Key), roundMS(a.Value.Duration()).Milliseconds())
	}
	return a
}

func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case len(key) > 3 && key[len(key)-3:] == "_ms":
		return key
	default:
		return key + "_ms"
	}
}
