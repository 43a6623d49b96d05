package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	tg "github.com/m3rciful/budgetbot/core/telegram"
)

func testConfig() *coreconfig.Config {
	cfg := &coreconfig.Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Access.AllowedUsers = []string{"1"}
	cfg.Sheets.SpreadsheetID = "sheet"
	cfg.Sheets.CredentialsFile = "/nonexistent.json"
	cfg.Dialog.IdleTimeout = time.Minute
	return cfg
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, coreconfig.Normalize(cfg))
	a, err := New(cfg)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, cfg, opts.Config)
	assert.NotEmpty(t, opts.Middlewares)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, e := range []any{"/start", "/add", "/balance", "/cancel", tele.OnText} {
		assert.True(t, endpoints[e], e)
	}

	_, cmd, ok := a.registry.LookupCommand("➕ Add transaction")
	assert.True(t, ok)
	assert.Equal(t, "Add a transaction", cmd.Description)
}

func TestLifecycleHooks(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, coreconfig.Normalize(cfg))
	a, err := New(cfg)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, opts.OnStart(ctx, tg.Runtime{}))
	cancel()
	require.NoError(t, opts.OnStop(context.Background(), tg.Runtime{}))
}
