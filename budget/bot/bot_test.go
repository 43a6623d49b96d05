package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/budgetbot/budget/dialog"
	"github.com/m3rciful/budgetbot/budget/model"
	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/keyboard"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
	"github.com/m3rciful/budgetbot/core/telegram/router"
	"github.com/m3rciful/budgetbot/core/telegram/teletest"
)

type fakeSheet struct {
	mu          sync.Mutex
	categories  []string
	wallets     []string
	balances    []model.WalletBalance
	balancesErr error
	appended    []model.Transaction
}

func (f *fakeSheet) Categories(context.Context) ([]string, error) { return f.categories, nil }
func (f *fakeSheet) Wallets(context.Context) ([]string, error)    { return f.wallets, nil }

func (f *fakeSheet) Balances(context.Context) ([]model.WalletBalance, error) {
	return f.balances, f.balancesErr
}

func (f *fakeSheet) AppendTransaction(_ context.Context, tx model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, tx)
	return nil
}

const owner int64 = 1001

type harness struct {
	sheet  *fakeSheet
	router *router.Router
}

func newHarness(t *testing.T, allowed ...string) *harness {
	t.Helper()
	sheet := &fakeSheet{categories: []string{"food", "rent"}, wallets: []string{"cash"}}
	machine := dialog.NewMachine(dialog.Options{
		Store: sheet,
		Now:   func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) },
	})
	b := New(machine, sheet)
	reg := tg.NewRegistry()
	require.NoError(t, b.Register(reg))
	return &harness{
		sheet: sheet,
		router: router.New(router.Options{
			Registry: reg,
			Dialog:   b,
			Access:   middleware.AccessOptions{List: middleware.NewAllowList(allowed)},
		}),
	}
}

func (h *harness) say(t *testing.T, user int64, text string) *teletest.Context {
	t.Helper()
	c := teletest.NewText(user, text)
	require.NoError(t, h.router.Handle(c))
	return c
}

func TestStartGreetsByFirstName(t *testing.T) {
	h := newHarness(t, "1001")
	c := teletest.NewText(owner, "/start")
	c.User.FirstName = "Ada"
	require.NoError(t, h.router.Handle(c))

	last := c.Last()
	assert.Contains(t, last.Text, "Hi, Ada!")
	assert.Equal(t, [][]string{{MenuAdd}, {MenuBalance}}, keyboard.Labels(last.Markup))
}

func TestAddDialogThroughMenu(t *testing.T) {
	h := newHarness(t, "1001")

	c := h.say(t, owner, MenuAdd)
	assert.Equal(t, []string{dialog.TextStarting, dialog.TextAskDate}, c.Texts())
	assert.True(t, c.Sent()[0].Markup.RemoveKeyboard)

	h.say(t, owner, "10.01.2025")
	c = h.say(t, owner, "12,30")
	assert.Equal(t, [][]string{{"food"}, {"rent"}, {dialog.CancelLabel}}, keyboard.Labels(c.Last().Markup))

	c = h.say(t, owner, "food")
	assert.Equal(t, [][]string{{"cash"}, {dialog.CancelLabel}}, keyboard.Labels(c.Last().Markup))

	c = h.say(t, owner, "cash")
	assert.Equal(t, dialog.TextAskNote, c.Last().Text)
	assert.True(t, c.Last().Markup.RemoveKeyboard)

	c = h.say(t, owner, "coffee")
	assert.Equal(t, []string{dialog.TextSaved, dialog.TextWhatNext}, c.Texts())
	assert.Equal(t, [][]string{{MenuAdd}, {MenuBalance}}, keyboard.Labels(c.Last().Markup))

	require.Len(t, h.sheet.appended, 1)
	tx := h.sheet.appended[0]
	assert.Equal(t, "10.01.2025", tx.Date)
	assert.True(t, decimal.RequireFromString("12.3").Equal(tx.Amount))
	assert.Equal(t, "coffee", tx.Note)
}

func TestCancelButtonEndsDialog(t *testing.T) {
	h := newHarness(t, "1001")
	h.say(t, owner, "/add")
	h.say(t, owner, "10.01.2025")
	h.say(t, owner, "5")

	c := h.say(t, owner, dialog.CancelLabel)
	assert.Equal(t, []string{dialog.TextCancelled}, c.Texts())

	c = h.say(t, owner, "food")
	assert.Empty(t, c.Sent(), "text after cancel is ignored")
	assert.Empty(t, h.sheet.appended)
}

func TestCommandDuringDialogIsNotInput(t *testing.T) {
	h := newHarness(t, "1001")
	h.sheet.balances = []model.WalletBalance{{Name: "cash", Balance: decimal.NewFromInt(5), Currency: "EUR"}}
	h.say(t, owner, "/add")

	c := h.say(t, owner, "/balance")
	assert.Equal(t, textFetchingBalances, c.Sent()[0].Text)

	c = h.say(t, owner, "10.01.2025")
	assert.Equal(t, []string{dialog.TextAskAmount}, c.Texts(), "dialog kept its step")
}

func TestBalanceReplies(t *testing.T) {
	h := newHarness(t, "1001")
	h.sheet.balances = []model.WalletBalance{
		{Name: "cash", Balance: decimal.RequireFromString("1234.5"), Currency: "UAH"},
		{Name: "card", Balance: decimal.Zero, Currency: model.UnknownCurrency},
	}
	c := h.say(t, owner, MenuBalance)
	assert.Equal(t, "Current balances:\n\n💰 cash: 1234.50 UAH\n💰 card: 0.00 unknown", c.Last().Text)

	h.sheet.balances = nil
	c = h.say(t, owner, "/balance")
	assert.Equal(t, textNoBalances, c.Last().Text)

	h.sheet.balancesErr = errors.New("store unavailable")
	c = h.say(t, owner, "/balance")
	assert.Equal(t, []string{textFetchingBalances, textBalancesFailed}, c.Texts())
}

func TestStrangerNeverReachesDialog(t *testing.T) {
	h := newHarness(t, "1001")
	for _, text := range []string{"/start", "/add", MenuAdd, "10.01.2025", "/balance"} {
		c := h.say(t, 2002, text)
		if len(c.Sent()) > 0 {
			assert.Equal(t, []string{middleware.DeniedText}, c.Texts(), text)
		}
	}
	assert.Empty(t, h.sheet.appended)
}
