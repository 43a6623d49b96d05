package middleware

import (
	"log/slog"

	"github.com/m3rciful/budgetbot/core/logger"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware writes one debug line per inbound update. It also primes
// the cached request context used by every later log line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		var attrs []slog.Attr
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil {
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "update.received", attrs...)

		return next(c)
	}
}
