package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a persistent reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// Options builds a one-time reply keyboard with one option per row and,
// when cancelLabel is set, a trailing cancel row.
func Options(options []string, cancelLabel string) *tele.ReplyMarkup {
	rows := make([][]string, 0, len(options)+1)
	for _, o := range options {
		rows = append(rows, []string{o})
	}
	if cancelLabel != "" {
		rows = append(rows, []string{cancelLabel})
	}
	markup := ReplyButtons(rows...)
	markup.OneTimeKeyboard = true
	return markup
}

// Labels returns the button texts of a reply keyboard, row by row.
func Labels(markup *tele.ReplyMarkup) [][]string {
	if markup == nil {
		return nil
	}
	out := make([][]string, 0, len(markup.ReplyKeyboard))
	for _, row := range markup.ReplyKeyboard {
		labels := make([]string, 0, len(row))
		for _, b := range row {
			labels = append(labels, b.Text)
		}
		out = append(out, labels)
	}
	return out
}
