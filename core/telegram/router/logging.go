package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// runLogged calls fn and writes one handler.handled line with the outcome,
// the reply counters and the elapsed time.
func runLogged(c tele.Context, handler string, intent Intent, fn tele.HandlerFunc) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, handler)
	err := fn(c)

	stats := middleware.Stats(c)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("intent", intent.String()),
		slog.Int("messages", stats.Sent),
		slog.Bool("kb", stats.Keyboard),
		slog.Duration("duration", logger.Took(start)),
	}
	if stats.Failed > 0 {
		attrs = append(attrs, slog.Int("send_failed", stats.Failed))
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_type", errorType(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
	return err
}

// handlerName turns a command key or menu label into a log-friendly name.
func handlerName(key string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "unknown"
	}
	return strings.ToLower(strings.Join(strings.Fields(key), "_"))
}

// errorType names the innermost error in err's chain by its Go type.
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
