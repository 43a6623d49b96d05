package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const keyReplyStats = "reply_stats"

// ReplyStats counts the outbound messages produced while handling one update.
type ReplyStats struct {
	Sent     int
	Failed   int
	Keyboard bool
}

type countingContext struct {
	tele.Context
	stats *ReplyStats
}

func (c countingContext) record(opts []interface{}, err error) {
	if err != nil {
		c.stats.Failed++
		return
	}
	c.stats.Sent++
	if carriesMarkup(opts) {
		c.stats.Keyboard = true
	}
}

func carriesMarkup(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	err := c.Context.Send(what, opts...)
	c.record(opts, err)
	return err
}

func (c countingContext) Reply(what interface{}, opts ...interface{}) error {
	err := c.Context.Reply(what, opts...)
	c.record(opts, err)
	return err
}

// MessageMetricsMiddleware counts Send and Reply calls made by downstream
// handlers. Read the result with Stats.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &ReplyStats{}
		c.Set(keyReplyStats, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// Stats returns the counters for the current update. Without the metrics
// middleware they are all zero.
func Stats(c tele.Context) ReplyStats {
	if s, ok := c.Get(keyReplyStats).(*ReplyStats); ok && s != nil {
		return *s
	}
	return ReplyStats{}
}
