package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format  string `yaml:"format" envconfig:"LOG_FORMAT"`
	Dir     string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile string `yaml:"bot_file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for rate limiting. ExcludeUpdates lists
// update kinds that bypass the limiter; "message" is the only kind the bot
// receives.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// AccessConfig lists Telegram user ids allowed to talk to the bot.
// An empty list denies everyone.
type AccessConfig struct {
	AllowedUsers []string `yaml:"allowed_users" envconfig:"ALLOWED_USERS"`
}

// SheetsConfig points the store client at a spreadsheet and its ranges.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	// CredentialsB64 holds a base64 encoded service account JSON key.
	CredentialsB64 string `yaml:"credentials_b64" envconfig:"GOOGLE_CREDENTIALS_B64"`
	// CredentialsFile is used when CredentialsB64 is empty.
	CredentialsFile string `yaml:"credentials_file" envconfig:"GOOGLE_CREDENTIALS_FILE"`

	CategoriesRange   string `yaml:"categories_range"`
	WalletsRange      string `yaml:"wallets_range"`
	BalancesRange     string `yaml:"balances_range"`
	TransactionsRange string `yaml:"transactions_range"`
}

// DialogConfig controls the lifetime of in-progress dialogs.
type DialogConfig struct {
	// IdleTimeout evicts dialogs without activity; 0 disables eviction.
	IdleTimeout   time.Duration `yaml:"idle_timeout" envconfig:"DIALOG_IDLE_TIMEOUT"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"DIALOG_SWEEP_INTERVAL"`
}

// HealthConfig configures the liveness endpoint. Port 0 disables it.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// UpdateMessage names message updates in rate limit exclusions.
const UpdateMessage = "message"

const (
	DefaultCategoriesRange   = "Categories!A2:A50"
	DefaultWalletsRange      = "Wallets!B2:B20"
	DefaultBalancesRange     = "Wallets!B2:D"
	DefaultTransactionsRange = "Transactions!A:G"

	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Access    AccessConfig    `yaml:"access"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Dialog    DialogConfig    `yaml:"dialog"`
	Health    HealthConfig    `yaml:"health"`
}

// Load reads configuration from an optional YAML file, a .env file and
// environment variables, in that order of precedence (env wins).
// An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Config{Dialog: DialogConfig{IdleTimeout: DefaultIdleTimeout}}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills in defaults. Every error it returns is
// fatal at startup.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	cfg.Access.AllowedUsers = trimAll(cfg.Access.AllowedUsers)
	cfg.RateLimit.ExcludeUpdates = lowerAll(trimAll(cfg.RateLimit.ExcludeUpdates))

	return errors.Join(
		normalizeTelegram(cfg),
		normalizeRateLimit(&cfg.RateLimit),
		normalizeSheets(&cfg.Sheets),
		normalizeDialog(&cfg.Dialog),
		normalizeHealth(&cfg.Health),
	)
}

func normalizeTelegram(cfg *Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram token is required (BOT_TOKEN)")
	}
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	cfg.Telegram.RunMode = rm
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return errors.New("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return errors.New("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", rm)
	}
	return nil
}

func normalizeRateLimit(rl *RateLimitConfig) error {
	if rl.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	for _, kind := range rl.ExcludeUpdates {
		if kind != UpdateMessage {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message", kind)
		}
	}
	return nil
}

func normalizeDialog(d *DialogConfig) error {
	if d.IdleTimeout < 0 {
		return errors.New("dialog.idle_timeout must be >= 0")
	}
	if d.SweepInterval <= 0 {
		d.SweepInterval = DefaultSweepInterval
	}
	return nil
}

func normalizeHealth(h *HealthConfig) error {
	if h.Port < 0 {
		return errors.New("health.port must be >= 0")
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	for i, v := range in {
		in[i] = strings.ToLower(v)
	}
	return in
}

func normalizeSheets(s *SheetsConfig) error {
	s.SpreadsheetID = strings.TrimSpace(s.SpreadsheetID)
	if s.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id is required (SPREADSHEET_ID)")
	}
	s.CredentialsB64 = strings.TrimSpace(s.CredentialsB64)
	s.CredentialsFile = strings.TrimSpace(s.CredentialsFile)
	switch {
	case s.CredentialsB64 != "":
		if _, err := base64.StdEncoding.DecodeString(s.CredentialsB64); err != nil {
			return fmt.Errorf("sheets.credentials_b64 is not valid base64: %w", err)
		}
	case s.CredentialsFile != "":
	default:
		return errors.New("google credentials are required (GOOGLE_CREDENTIALS_B64 or GOOGLE_CREDENTIALS_FILE)")
	}

	for _, r := range []struct {
		field *string
		def   string
	}{
		{&s.CategoriesRange, DefaultCategoriesRange},
		{&s.WalletsRange, DefaultWalletsRange},
		{&s.BalancesRange, DefaultBalancesRange},
		{&s.TransactionsRange, DefaultTransactionsRange},
	} {
		if *r.field = strings.TrimSpace(*r.field); *r.field == "" {
			*r.field = r.def
		}
	}
	return nil
}

// Credentials returns the service account JSON key, decoding the inline
// value or reading the configured file.
func (s SheetsConfig) Credentials() ([]byte, error) {
	if s.CredentialsB64 != "" {
		data, err := base64.StdEncoding.DecodeString(s.CredentialsB64)
		if err != nil {
			return nil, fmt.Errorf("decode credentials: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(s.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return data, nil
}
