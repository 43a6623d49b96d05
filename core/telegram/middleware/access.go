package middleware

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/budgetbot/core/logger"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// DeniedText is sent to senders that are not on the allow-list.
const DeniedText = "❌ Access denied"

// AllowList holds the decimal Telegram user ids permitted to use the bot.
// The zero value and an empty list deny everyone.
type AllowList struct {
	ids map[string]struct{}
}

// NewAllowList builds an AllowList from id strings; blanks are ignored.
func NewAllowList(ids []string) *AllowList {
	a := &AllowList{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		a.ids[id] = struct{}{}
	}
	return a
}

// Allowed reports whether the identity string is on the list.
func (a *AllowList) Allowed(id string) bool {
	if a == nil || len(a.ids) == 0 {
		return false
	}
	_, ok := a.ids[id]
	return ok
}

// AllowedUser reports whether the Telegram user id is on the list.
func (a *AllowList) AllowedUser(userID int64) bool {
	return a.Allowed(strconv.FormatInt(userID, 10))
}

// Len returns the number of allowed identities.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ids)
}

// AccessOptions configures the access middleware.
type AccessOptions struct {
	List *AllowList
	// OnDenied replaces the default rejection reply.
	OnDenied tele.HandlerFunc
}

// AccessMiddleware lets only allow-listed senders reach next. Denied senders
// get a fixed reply and nothing else happens.
func AccessMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return WithAccess(opts, next)
	}
}

// WithAccess wraps a single handler with the allow-list check.
func WithAccess(opts AccessOptions, next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		var userID int64
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		if userID != 0 && opts.List.AllowedUser(userID) {
			return next(c)
		}

		ctx := tghelpers.BuildContext(c)
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "access.denied",
			slog.Int64("user_id", userID),
			slog.String("payload", logger.SanitizeLimit(c.Text(), 64)),
		)
		if opts.OnDenied != nil {
			return opts.OnDenied(c)
		}
		return c.Send(DeniedText)
	}
}
