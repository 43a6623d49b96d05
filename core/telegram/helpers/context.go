// Package helpers holds small utilities shared by handlers and middleware.
package helpers

import (
	"context"

	"github.com/m3rciful/budgetbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const keyContext = "logger_ctx"

// BuildContext returns the update's context, creating and caching one that
// carries the update, sender and chat ids on first use.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(keyContext).(context.Context); ok && ctx != nil {
		return ctx
	}
	meta := logger.Meta{UpdateID: c.Update().ID, UserID: SenderID(c)}
	if chat := c.Chat(); chat != nil {
		meta.ChatID = chat.ID
	}
	ctx := logger.WithMeta(context.Background(), meta)
	c.Set(keyContext, ctx)
	return ctx
}

// WithHandler names the handler serving the update in the cached context
// and returns it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	if c != nil {
		c.Set(keyContext, ctx)
	}
	return ctx
}

// SenderID returns the Telegram user id of the update sender or 0.
func SenderID(c tele.Context) int64 {
	if c == nil {
		return 0
	}
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
