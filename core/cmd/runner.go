package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
	coretelegram "github.com/m3rciful/budgetbot/core/telegram"
)

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(cfg *coreconfig.Config) (TelegramApp, error)

	InitLogger     func(cfg *coreconfig.Config) error
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath picks the YAML config file. An empty result means
// configuration comes from the environment only.
func ResolveConfigPath(opts Options) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p
	}
	if opts.DefaultConfigPath != "" {
		if _, err := os.Stat(opts.DefaultConfigPath); err == nil {
			return opts.DefaultConfigPath
		}
	}
	return ""
}

// LoadConfig resolves the config path and loads it with opts.LoadConfig
// (config.Load by default).
func LoadConfig(opts Options) (*coreconfig.Config, error) {
	load := opts.LoadConfig
	if load == nil {
		load = coreconfig.Load
	}
	cfgPath := ResolveConfigPath(opts)
	if cfgPath != "" {
		log.Printf("loading config: %s", cfgPath)
	}
	cfg, err := load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg == nil {
		return nil, errors.New("cmd: loaded config is nil")
	}
	return cfg, nil
}

func (o Options) withDefaults() Options {
	if o.InitLogger == nil {
		o.InitLogger = logger.InitLogger
	}
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
	if o.RunTelegram == nil {
		o.RunTelegram = coretelegram.RunTelegram
	}
	return o
}

// Run loads configuration, bootstraps the app and serves Telegram updates
// until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.Bootstrap == nil {
		return errors.New("cmd: Bootstrap is required")
	}
	opts = opts.withDefaults()

	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	if err := opts.InitLogger(cfg); err != nil {
		return fmt.Errorf("cmd: logger init failed: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return opts.RunTelegram(ctx, lifecycleLogs(runOpts, time.Now()))
}

// lifecycleLogs wraps the hooks with "ready" and "shutdown" lines.
func lifecycleLogs(runOpts coretelegram.RunOptions, startedAt time.Time) coretelegram.RunOptions {
	appLog := logger.Component("app")
	onStart, onStop := runOpts.OnStart, runOpts.OnStop

	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		appLog.LogAttrs(ctx, slog.LevelInfo, "ready", slog.Duration("startup", logger.Took(startedAt)))
		return nil
	}
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		appLog.LogAttrs(ctx, slog.LevelInfo, "shutdown")
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
	return runOpts
}
