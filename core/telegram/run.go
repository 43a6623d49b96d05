package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint (a command string or one of
// the tele.On* constants).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips the deleteWebhook call made before long polling.
	KeepWebhook bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to the lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Registry *Registry
}

// The bot reads plain messages only; menu buttons arrive as text.
var allowedUpdates = []string{"message"}

// RunTelegram builds the bot from opts and serves updates until ctx is done.
// OnStop runs after the poller has stopped, with a context that is no
// longer cancelled.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, pollerOpts, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}
	if _, webhook := bot.Poller.(*tele.Webhook); !webhook && !opts.KeepWebhook {
		removeWebhook(ctx, bot)
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "mode",
		slog.String("mode", pollerOpts.RunMode),
		slog.Duration("timeout", pollerOpts.LongPollTimeout()),
	)

	mount(bot, opts)
	InitBotCommands(bot, opts.Registry)

	rt := Runtime{Bot: bot, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, PollerOptions, error) {
	pollerOpts := PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
		AllowedUpdates: allowedUpdates,
	}

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(pollerOpts),
		Client: BuildHTTPClient(pollerOpts.LongPollTimeout()),
		OnError: func(err error, _ tele.Context) {
			logger.TG.LogAttrs(ctx, slog.LevelError, "tg.error",
				slog.String("err", logger.SanitizeLimit(redactURL(err).Error(), 256)),
			)
		},
	})
	if err != nil {
		return nil, pollerOpts, fmt.Errorf("telegram: bot initialization failed: %w", redactURL(err))
	}
	logger.TWire.LogAttrs(ctx, slog.LevelInfo, "bot.ready",
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", logger.Took(start)),
	)
	return bot, pollerOpts, nil
}

func mount(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
}

// serve runs the poller until it stops by itself or ctx is done.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

// removeWebhook switches the bot back to getUpdates, keeping pending updates.
func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", redactURL(err).Error()),
		)
		return
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "delete_webhook", slog.String("status", "ok"))
}

// redactURL drops the request URL, which contains the bot token, from
// transport errors.
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
