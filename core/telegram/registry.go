package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and the texts that map onto them.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
	}
}

// Registration errors.
var (
	ErrInvalidCommand   = errors.New("invalid command")
	ErrDuplicateCommand = errors.New("duplicate command")
)

// RegisterCommand adds cmd under name, which must start with "/". Its
// aliases become exact-text triggers for the same command. Nothing is
// registered when name or any alias is already taken.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return fmt.Errorf("%w: %q must start with /", ErrInvalidCommand, name)
	case cmd.Handler == nil || cmd.Description == "":
		return fmt.Errorf("%w: %s needs a handler and a description", ErrInvalidCommand, name)
	}
	if _, taken := r.commands[name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	aliases := make([]string, 0, len(cmd.Aliases))
	for _, alias := range cmd.Aliases {
		if alias = strings.TrimSpace(alias); alias == "" {
			continue
		}
		if owner, taken := r.aliases[alias]; taken {
			return fmt.Errorf("%w: alias %q of %s is used by %s", ErrDuplicateCommand, alias, name, owner)
		}
		aliases = append(aliases, alias)
	}

	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	r.commands[name] = cmd
	logger.TWire.LogAttrs(context.Background(), slog.LevelDebug, "register.command",
		slog.String("name", name),
		slog.Int("aliases", len(aliases)),
		slog.Bool("hidden", cmd.Hidden),
	)
	return nil
}

// ListCommands returns the command menu, optionally without hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves text to a registered command by exact name or alias.
// A trailing bot mention ("/add@budget_bot") and arguments after the
// command word are ignored. Text that is neither returns false.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	if r == nil {
		return "", commands.Command{}, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", commands.Command{}, false
	}
	if key, ok := r.aliases[text]; ok {
		return key, r.commands[key], true
	}
	if !strings.HasPrefix(text, "/") {
		return "", commands.Command{}, false
	}
	name := text
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// InitBotCommands publishes the visible commands as the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "register.commands.set",
		slog.Int("commands", len(list)),
	)
}
