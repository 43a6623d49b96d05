package middleware

import (
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
	"github.com/m3rciful/budgetbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates from one user.
	Interval time.Duration
	// Exclude lists update kinds that are never limited.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	Now       func() time.Time
}

// RateLimitMiddleware drops updates that arrive less than Interval after
// the previous accepted update from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	// Users quiet for 100 intervals are forgotten.
	seen := state.NewStore[time.Time](state.Options{IdleTimeout: 100 * opts.Interval, Now: now})

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := tghelpers.SenderID(c)
			if userID == 0 || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			accepted := false
			seen.With(userID, func(tx *state.Tx[time.Time]) {
				t := now()
				if last, ok := tx.Get(); ok && t.Sub(last) < opts.Interval {
					return
				}
				tx.Set(t)
				accepted = true
			})
			if accepted {
				seen.Sweep()
				return next(c)
			}

			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	if upd.Message != nil {
		return coreconfig.UpdateMessage
	}
	return "other"
}
