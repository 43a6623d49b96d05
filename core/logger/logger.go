// Package logger is the process-wide structured logger. Records carry an
// "event" name, a "component" and, when logged with a request context, the
// Telegram update identifiers.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/budgetbot/core/buildinfo"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
)

var (
	mu       sync.Mutex
	started  bool
	closers  []io.Closer
	levelVar slog.LevelVar

	// L is the base logger. It writes text to stderr until InitLogger runs.
	L *slog.Logger

	// TG logs Telegram transport events.
	TG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// Sheets logs spreadsheet store calls.
	Sheets *slog.Logger
	// Dialog logs add-transaction dialog transitions.
	Dialog *slog.Logger
	// HTTP logs the liveness endpoint.
	HTTP *slog.Logger
)

func init() {
	setBase(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &levelVar}))
}

func setBase(h slog.Handler) {
	L = slog.New(newContextHandler(h))
	TG = L.With("component", "tg")
	TWire = L.With("component", "tg.wire")
	Sheets = L.With("component", "sheets")
	Dialog = L.With("component", "dialog")
	HTTP = L.With("component", "http")
}

// InitLogger switches the global loggers to the configured format, level
// and sinks. Later calls are no-ops. A log file that cannot be opened is an
// error; stdout is always written.
func InitLogger(cfg *coreconfig.Config) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}

	var logging coreconfig.LoggingConfig
	if cfg != nil {
		logging = cfg.Logging
	}
	w, err := openSinks(logging)
	if err != nil {
		return err
	}
	started = true

	levelVar.Set(parseLevel(logging.Level))
	opts := &slog.HandlerOptions{Level: &levelVar, ReplaceAttr: replaceAttr}
	if textFormat(logging) {
		setBase(slog.NewTextHandler(w, opts))
	} else {
		setBase(slog.NewJSONHandler(w, opts))
	}
	slog.SetDefault(L)

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("build", buildinfo.String()),
		slog.String("cfg_profile", profile(logging)),
	)
	return nil
}

// Shutdown closes the log files opened by InitLogger.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	var errs []error
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	closers = nil
	return errors.Join(errs...)
}

func openSinks(cfg coreconfig.LoggingConfig) (io.Writer, error) {
	dir := strings.TrimSpace(cfg.Dir)
	file := strings.TrimSpace(cfg.BotFile)
	if dir == "" || file == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	closers = append(closers, f)
	return io.MultiWriter(os.Stdout, f), nil
}

// textFormat picks key=value output for "kv", "text" and "pretty", and for
// the debug and dev profiles when no format is set.
func textFormat(cfg coreconfig.LoggingConfig) bool {
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "kv", "text", "pretty":
		return true
	case "json":
		return false
	}
	p := profile(cfg)
	return p == "debug" || p == "dev"
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func profile(cfg coreconfig.LoggingConfig) string {
	if p := strings.TrimSpace(cfg.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

// LogEvent writes attrs as an event record. The event name is the record
// message, rendered under the "event" key. A nil logger means L.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logg == nil {
		logg = L
	}
	logg.LogAttrs(ctx, level, event, attrs...)
}

// Component returns L scoped to the given component name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}
