package logger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type metaKey struct{}

// Meta identifies the Telegram update a log record belongs to.
type Meta struct {
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

// RID is a short correlation id built from the update, chat and user ids in
// base36. It is empty when no update id is set.
func (m Meta) RID() string {
	if m.UpdateID == 0 {
		return ""
	}
	return strconv.FormatInt(int64(m.UpdateID), 36) + "." +
		strconv.FormatInt(m.ChatID, 36) + "." +
		strconv.FormatInt(m.UserID, 36)
}

func (m Meta) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 5)
	if rid := m.RID(); rid != "" {
		out = append(out, slog.String("rid", rid), slog.Int("update_id", m.UpdateID))
	}
	if m.UserID != 0 {
		out = append(out, slog.Int64("user_id", m.UserID))
	}
	if m.ChatID != 0 {
		out = append(out, slog.Int64("chat_id", m.ChatID))
	}
	if m.Handler != "" {
		out = append(out, slog.String("handler", m.Handler))
	}
	return out
}

// WithMeta returns ctx carrying m. Records logged with the returned context
// gain m's fields unless they set the same keys themselves.
func WithMeta(ctx context.Context, m Meta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, metaKey{}, m)
}

// metaFrom returns the Meta stored in ctx, if any.
func metaFrom(ctx context.Context) (Meta, bool) {
	if ctx == nil {
		return Meta{}, false
	}
	m, ok := ctx.Value(metaKey{}).(Meta)
	return m, ok
}

// WithHandler returns ctx with the handler name set on its Meta.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return ctx
	}
	m, _ := metaFrom(ctx)
	m.Handler = handler
	return WithMeta(ctx, m)
}

// Status maps err to the status value used in every log line.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return roundMS(time.Since(start))
}

func roundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Sanitize drops control and format runes, keeping tabs and newlines.
// User-typed text goes through it before reaching a log line.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit is Sanitize truncated to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) > max {
		r = r[:max]
	}
	return string(r)
}
