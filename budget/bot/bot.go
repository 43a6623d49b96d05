// Package bot binds the budget dialog and balance lookup to Telegram commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/budget/dialog"
	"github.com/m3rciful/budgetbot/budget/model"
	"github.com/m3rciful/budgetbot/core/logger"
	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
	"github.com/m3rciful/budgetbot/core/telegram/keyboard"
)

// Main menu labels. Pressing one behaves like typing its command.
const (
	MenuAdd     = "➕ Add transaction"
	MenuBalance = "💼 Show balances"
)

const (
	textFetchingBalances = "Fetching balances..."
	textNoBalances       = "No balances yet 😕"
	textBalancesFailed   = "❌ Could not fetch balances. Try again later."
	textBalancesHeader   = "Current balances:"
)

// Balances reads wallet balances.
type Balances interface {
	Balances(ctx context.Context) ([]model.WalletBalance, error)
}

// Bot holds the command handlers.
type Bot struct {
	machine  *dialog.Machine
	balances Balances
}

// New constructs a Bot.
func New(machine *dialog.Machine, balances Balances) *Bot {
	return &Bot{machine: machine, balances: balances}
}

// Register adds the bot commands and menu aliases to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	return errors.Join(
		reg.RegisterCommand("/start", commands.Command{
			Handler:     b.Start,
			Description: "Show the main menu",
		}),
		reg.RegisterCommand("/add", commands.Command{
			Handler:     b.Add,
			Description: "Add a transaction",
			Aliases:     []string{MenuAdd},
		}),
		reg.RegisterCommand("/balance", commands.Command{
			Handler:     b.Balance,
			Description: "Show wallet balances",
			Aliases:     []string{MenuBalance},
		}),
		reg.RegisterCommand(dialog.CancelCommand, commands.Command{
			Handler:     b.Cancel,
			Description: "Cancel the current operation",
			Kind:        commands.KindCancel,
			Aliases:     []string{dialog.CancelLabel},
		}),
	)
}

// MainMenu is the persistent keyboard with the two main actions.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{MenuAdd}, []string{MenuBalance})
}

// Start greets the user and shows the main menu.
func (b *Bot) Start(c tele.Context) error {
	name := "there"
	if u := c.Sender(); u != nil && strings.TrimSpace(u.FirstName) != "" {
		name = u.FirstName
	}
	text := fmt.Sprintf("👋 Hi, %s!\n\n"+
		"I record transactions in your budget spreadsheet.\n\n"+
		"/add: add a transaction\n"+
		"/balance: show wallet balances\n"+
		"/cancel: cancel the current operation", name)
	return tghelpers.SendText(c, text, MainMenu())
}

// Add starts the add-transaction dialog.
func (b *Bot) Add(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return b.send(c, b.machine.Start(ctx, tghelpers.SenderID(c)))
}

// Cancel discards the current dialog.
func (b *Bot) Cancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return b.send(c, b.machine.Cancel(ctx, tghelpers.SenderID(c)))
}

// Balance lists wallet balances.
func (b *Bot) Balance(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := tghelpers.SendText(c, textFetchingBalances, keyboard.RemoveKeyboard()); err != nil {
		return err
	}
	list, err := b.balances.Balances(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Sheets, slog.LevelError, "balance.fetch",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return tghelpers.SendText(c, textBalancesFailed, MainMenu())
	}
	if len(list) == 0 {
		return tghelpers.SendText(c, textNoBalances, MainMenu())
	}
	return tghelpers.SendText(c, FormatBalances(list), MainMenu())
}

// Active reports whether userID is in the middle of a dialog.
func (b *Bot) Active(userID int64) bool {
	return b.machine.Active(userID)
}

// HandleInput feeds dialog input to the state machine.
func (b *Bot) HandleInput(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return b.send(c, b.machine.Handle(ctx, tghelpers.SenderID(c), c.Text()))
}

// FormatBalances renders balances one wallet per line with two decimals.
func FormatBalances(list []model.WalletBalance) string {
	var sb strings.Builder
	sb.WriteString(textBalancesHeader)
	sb.WriteString("\n")
	for _, w := range list {
		fmt.Fprintf(&sb, "\n💰 %s: %s %s", w.Name, w.Balance.StringFixed(2), w.Currency)
	}
	return sb.String()
}

func (b *Bot) send(c tele.Context, replies []dialog.Reply) error {
	for _, r := range replies {
		if err := tghelpers.SendText(c, r.Text, markup(r)); err != nil {
			return err
		}
	}
	return nil
}

func markup(r dialog.Reply) *tele.ReplyMarkup {
	switch r.Keyboard {
	case dialog.KeyboardOptions:
		return keyboard.Options(r.Options, dialog.CancelLabel)
	case dialog.KeyboardRemove:
		return keyboard.RemoveKeyboard()
	case dialog.KeyboardMenu:
		return MainMenu()
	default:
		return nil
	}
}
