// Package app wires the budget bot together from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/budgetbot/budget/bot"
	"github.com/m3rciful/budgetbot/budget/dialog"
	"github.com/m3rciful/budgetbot/budget/sheets"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/health"
	"github.com/m3rciful/budgetbot/core/logger"
	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
	"github.com/m3rciful/budgetbot/core/telegram/router"
	"github.com/m3rciful/budgetbot/core/telegram/state"
)

// App owns the long-lived components of a running bot.
type App struct {
	cfg      *coreconfig.Config
	allow    *middleware.AllowList
	sheets   *sheets.Client
	sessions *state.Store[dialog.Session]
	machine  *dialog.Machine
	registry *tg.Registry
	router   *router.Router
	health   *health.Server

	stopJanitor context.CancelFunc
	janitorDone sync.WaitGroup
}

// New builds the application graph. It performs no network I/O.
func New(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	a := &App{
		cfg:    cfg,
		allow:  middleware.NewAllowList(cfg.Access.AllowedUsers),
		sheets: sheets.NewFromConfig(cfg.Sheets),
	}
	a.sessions = state.NewStore[dialog.Session](state.Options{
		IdleTimeout: cfg.Dialog.IdleTimeout,
		OnEvict: func(userID int64, idle time.Duration) {
			logger.Dialog.LogAttrs(context.Background(), slog.LevelInfo, "dialog.evicted",
				slog.Int64("user_id", userID),
				slog.Duration("idle", idle),
			)
		},
	})
	a.machine = dialog.NewMachine(dialog.Options{Store: a.sheets, Sessions: a.sessions})

	b := bot.New(a.machine, a.sheets)
	a.registry = tg.NewRegistry()
	if err := b.Register(a.registry); err != nil {
		return nil, fmt.Errorf("app: register commands: %w", err)
	}

	a.router = router.New(router.Options{
		Registry: a.registry,
		Dialog:   b,
		Access:   middleware.AccessOptions{List: a.allow},
	})
	if cfg.Health.Port > 0 {
		a.health = health.NewServer(cfg.Health.Listen, cfg.Health.Port)
	}
	return a, nil
}

// Sheets exposes the store client, e.g. for the self-check command.
func (a *App) Sheets() *sheets.Client { return a.sheets }

// Machine exposes the dialog state machine.
func (a *App) Machine() *dialog.Machine { return a.machine }

// TelegramRunOptions assembles the options for tg.RunTelegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      a.router.Routes(),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	if a.allow.Len() == 0 {
		logger.TWire.LogAttrs(ctx, slog.LevelWarn, "access.empty",
			slog.String("effect", "all users are denied"),
		)
	}

	jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopJanitor = cancel
	a.janitorDone.Add(1)
	go func() {
		defer a.janitorDone.Done()
		a.sessions.Run(jctx, a.cfg.Dialog.SweepInterval)
	}()

	if a.health != nil {
		if err := a.health.Start(ctx); err != nil {
			cancel()
			return err
		}
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.stopJanitor != nil {
		a.stopJanitor()
		a.janitorDone.Wait()
	}
	if a.health != nil {
		if err := a.health.Stop(ctx); err != nil {
			return fmt.Errorf("app: stop health server: %w", err)
		}
	}
	if n := a.sessions.Len(); n > 0 {
		logger.Dialog.LogAttrs(ctx, slog.LevelInfo, "dialog.dropped", slog.Int("sessions", n))
	}
	return nil
}
