package router

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/commands"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
	"github.com/m3rciful/budgetbot/core/telegram/teletest"
)

type fakeDialog struct {
	active map[int64]bool
	inputs []string
}

func (d *fakeDialog) Active(userID int64) bool { return d.active[userID] }

func (d *fakeDialog) HandleInput(c tele.Context) error {
	d.inputs = append(d.inputs, c.Text())
	return nil
}

type fixture struct {
	router *Router
	dialog *fakeDialog
	calls  []string
}

func newFixture(t *testing.T, allowed ...string) *fixture {
	t.Helper()
	f := &fixture{dialog: &fakeDialog{active: map[int64]bool{}}}
	record := func(name string) tele.HandlerFunc {
		return func(tele.Context) error {
			f.calls = append(f.calls, name)
			return nil
		}
	}
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/add", commands.Command{Handler: record("add"), Description: "Add", Aliases: []string{"➕ Add transaction"}}))
	require.NoError(t, reg.RegisterCommand("/balance", commands.Command{Handler: record("balance"), Description: "Balance", Aliases: []string{"💼 Show balances"}}))
	require.NoError(t, reg.RegisterCommand("/cancel", commands.Command{Handler: record("cancel"), Description: "Cancel", Kind: commands.KindCancel, Aliases: []string{"❌ Cancel"}}))
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: record("start"), Description: "Start"}))

	f.router = New(Options{
		Registry: reg,
		Dialog:   f.dialog,
		Access:   middleware.AccessOptions{List: middleware.NewAllowList(allowed)},
	})
	return f
}

func TestClassify(t *testing.T) {
	f := newFixture(t, "1")
	f.dialog.active[1] = true

	cases := []struct {
		user int64
		text string
		want Intent
	}{
		{1, "/add", IntentCommand},
		{1, "➕ Add transaction", IntentCommand},
		{1, "/cancel", IntentCancel},
		{1, "❌ Cancel", IntentCancel},
		{1, "/unknown", IntentIgnore},
		{1, "food", IntentDialogInput},
		{2, "food", IntentIgnore},
		{2, "/balance", IntentCommand},
	}
	for _, tc := range cases {
		got, _, _ := f.router.Classify(tc.user, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestHandleDispatchesMenuLabelAsCommand(t *testing.T) {
	f := newFixture(t, "1")
	require.NoError(t, f.router.Handle(teletest.NewText(1, "💼 Show balances")))
	assert.Equal(t, []string{"balance"}, f.calls)
}

func TestHandleFeedsDialogInput(t *testing.T) {
	f := newFixture(t, "1")
	f.dialog.active[1] = true

	require.NoError(t, f.router.Handle(teletest.NewText(1, "01.01.2025")))
	require.NoError(t, f.router.Handle(teletest.NewText(1, "/whatever")))
	assert.Equal(t, []string{"01.01.2025"}, f.dialog.inputs)
	assert.Empty(t, f.calls)
}

func TestHandleIgnoresTextWithoutDialog(t *testing.T) {
	f := newFixture(t, "1")
	c := teletest.NewText(1, "hello")
	require.NoError(t, f.router.Handle(c))
	assert.Empty(t, f.calls)
	assert.Empty(t, f.dialog.inputs)
	assert.Empty(t, c.Sent())
}

func TestHandleDeniesUnknownSender(t *testing.T) {
	f := newFixture(t, "1")
	f.dialog.active[2] = true

	for _, text := range []string{"/add", "food", "❌ Cancel"} {
		c := teletest.NewText(2, text)
		require.NoError(t, f.router.Handle(c))
		assert.Equal(t, []string{middleware.DeniedText}, c.Texts(), text)
	}
	assert.Empty(t, f.calls)
	assert.Empty(t, f.dialog.inputs)
}

func TestHandleEmptyAllowListDeniesAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.router.Handle(teletest.NewText(1, "/start")))
	assert.Empty(t, f.calls)
}

func TestRoutesCoverCommandsAndText(t *testing.T) {
	f := newFixture(t, "1")
	routes := f.router.Routes()
	endpoints := make([]any, 0, len(routes))
	for _, r := range routes {
		endpoints = append(endpoints, r.Endpoint)
	}
	assert.Len(t, routes, 5)
	assert.Contains(t, endpoints, "/add")
	assert.Contains(t, endpoints, tele.OnText)
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "balance", handlerName("/balance"))
	assert.Equal(t, "➕_add_transaction", handlerName("➕ Add transaction"))
	assert.Equal(t, "unknown", handlerName("  "))
}

func TestErrorTypeNamesInnermostCause(t *testing.T) {
	cause := &net.DNSError{Err: "no such host", Name: "sheets.googleapis.com"}
	err := fmt.Errorf("sheets get: %w", cause)
	assert.Equal(t, "net.DNSError", errorType(err))
	assert.Equal(t, "errors.errorString", errorType(errors.New("x")))
}
