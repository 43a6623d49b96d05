package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	coretelegram "github.com/m3rciful/budgetbot/core/telegram"
)

type stubApp struct {
	opts coretelegram.RunOptions
}

func (s stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return s.opts, nil }

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "config.yaml")

	t.Setenv("BUDGETBOT_CONFIG", "")
	assert.Equal(t, "", ResolveConfigPath(Options{ConfigEnvVar: "BUDGETBOT_CONFIG", DefaultConfigPath: def}))

	require.NoError(t, os.WriteFile(def, []byte("{}"), 0o600))
	assert.Equal(t, def, ResolveConfigPath(Options{ConfigEnvVar: "BUDGETBOT_CONFIG", DefaultConfigPath: def}))

	t.Setenv("BUDGETBOT_CONFIG", "/etc/bot.yaml")
	assert.Equal(t, "/etc/bot.yaml", ResolveConfigPath(Options{ConfigEnvVar: "BUDGETBOT_CONFIG", DefaultConfigPath: def}))
	assert.Equal(t, "flag.yaml", ResolveConfigPath(Options{ConfigPath: "flag.yaml", ConfigEnvVar: "BUDGETBOT_CONFIG"}))
}

func TestRunWiresHooks(t *testing.T) {
	cfg := &coreconfig.Config{}
	var started, stopped, loggerClosed bool

	err := Run(Options{
		ConfigPath: "cfg.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			assert.Equal(t, "cfg.yaml", path)
			return cfg, nil
		},
		Bootstrap: func(got *coreconfig.Config) (TelegramApp, error) {
			assert.Same(t, cfg, got)
			return stubApp{opts: coretelegram.RunOptions{
				Config:  got,
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		InitLogger:     func(*coreconfig.Config) error { return nil },
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, loggerClosed)
}

func TestRunPropagatesLoadError(t *testing.T) {
	err := Run(Options{
		LoadConfig: func(string) (*coreconfig.Config, error) { return nil, errors.New("bad token") },
		Bootstrap:  func(*coreconfig.Config) (TelegramApp, error) { return nil, nil },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad token")
}
