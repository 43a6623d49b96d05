package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Kind classifies what a command does to an in-progress dialog.
type Kind int

const (
	// KindCommand is an ordinary command; it runs regardless of dialog state.
	KindCommand Kind = iota
	// KindCancel aborts the caller's dialog.
	KindCancel
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Kind        Kind
	// Hidden keeps the command out of the published command menu.
	Hidden bool
	// Aliases are extra texts dispatched to this command, e.g. menu button labels.
	Aliases []string
}
