package helpers

import (
	"log/slog"

	"github.com/m3rciful/budgetbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SendText sends raw text (no parse mode) to the current chat, optionally
// with a reply markup. Send failures are logged and returned.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var err error
	if len(markup) > 0 && markup[0] != nil {
		err = c.Send(text, &tele.SendOptions{ReplyMarkup: markup[0]})
	} else {
		err = c.Send(text)
	}
	if err != nil {
		logger.LogEvent(BuildContext(c), logger.TG, slog.LevelWarn, "send.failed",
			slog.String("endpoint", "sendMessage"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return err
}
