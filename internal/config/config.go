package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. POS_TERMINAL_ID.
const EnvPrefix = "POS"

// Settings backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds the terminal configuration.
type Config struct {
	Terminal     TerminalConfig     `mapstructure:"terminal"`
	Returns      ReturnsConfig      `mapstructure:"returns"`
	Transactions TransactionsConfig `mapstructure:"transactions"`
	Search       SearchConfig       `mapstructure:"search"`
	Receipt      ReceiptConfig      `mapstructure:"receipt"`
	Errors       ErrorsConfig       `mapstructure:"errors"`
	Settings     SettingsConfig     `mapstructure:"settings"`
	Redis        RedisConfig        `mapstructure:"redis"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Domain       DomainConfig       `mapstructure:"domain"`
	Classifier   ClassifierConfig   `mapstructure:"classifier"`
	Log          LogConfig          `mapstructure:"log"`
}

type TerminalConfig struct {
	ID         string `mapstructure:"id"`
	Unattended bool   `mapstructure:"unattended"`
}

type ReturnsConfig struct {
	CustomerRequired bool `mapstructure:"customer_required"`
}

type TransactionsConfig struct {
	// ReferencePattern recognizes transaction reference numbers in keyed text.
	ReferencePattern string `mapstructure:"reference_pattern"`
}

type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

type ReceiptConfig struct {
	VoidClearDelay time.Duration `mapstructure:"void_clear_delay"`
}

type ErrorsConfig struct {
	// RecoveryCodes are the business error codes that open the recovery screen.
	RecoveryCodes []string `mapstructure:"recovery_codes"`
	// RedactKeys are regular expressions matching input keys masked in logs.
	RedactKeys []string `mapstructure:"redact_keys"`
}

type SettingsConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	// Monotonic refuses to persist a transaction number lower than the stored one.
	Monotonic bool `mapstructure:"monotonic"`
}

type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DomainConfig selects the domain engine. An empty URL runs the scripted in-memory engine.
type DomainConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Script  string        `mapstructure:"script"`
	// StartEvent is submitted at boot to establish the first logical state.
	StartEvent string `mapstructure:"start_event"`
}

type ClassifierConfig struct {
	Rules string `mapstructure:"rules"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Terminal:     TerminalConfig{ID: "POS-01"},
		Transactions: TransactionsConfig{ReferencePattern: `^\d{16,}$`},
		Search:       SearchConfig{DefaultLimit: 20},
		Receipt:      ReceiptConfig{VoidClearDelay: 3000 * time.Millisecond},
		Errors: ErrorsConfig{
			RecoveryCodes: []string{"SSF_TRANSACTION_VOID_FAILED", "SSF_TENDER_REVERSAL_FAILED"},
			RedactKeys:    []string{`(?i)email`, `(?i)customer`, `(?i)authorization`, `(?i)certificate`},
		},
		Settings: SettingsConfig{Backend: BackendMemory, Path: ".pos/settings"},
		Redis:    RedisConfig{URL: "redis://localhost:6379/0", Prefix: "pos:"},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Domain:   DomainConfig{Timeout: 10 * time.Second, StartEvent: "Status"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from path (optional) and POS_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("terminal.id", d.Terminal.ID)
	v.SetDefault("terminal.unattended", d.Terminal.Unattended)
	v.SetDefault("returns.customer_required", d.Returns.CustomerRequired)
	v.SetDefault("transactions.reference_pattern", d.Transactions.ReferencePattern)
	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("receipt.void_clear_delay", d.Receipt.VoidClearDelay)
	v.SetDefault("errors.recovery_codes", d.Errors.RecoveryCodes)
	v.SetDefault("errors.redact_keys", d.Errors.RedactKeys)
	v.SetDefault("settings.backend", d.Settings.Backend)
	v.SetDefault("settings.path", d.Settings.Path)
	v.SetDefault("settings.monotonic", d.Settings.Monotonic)
	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("domain.url", d.Domain.URL)
	v.SetDefault("domain.timeout", d.Domain.Timeout)
	v.SetDefault("domain.script", d.Domain.Script)
	v.SetDefault("domain.start_event", d.Domain.StartEvent)
	v.SetDefault("classifier.rules", d.Classifier.Rules)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Terminal.ID) == "" {
		errs = append(errs, errors.New("terminal.id is required"))
	}
	if _, err := regexp.Compile(c.Transactions.ReferencePattern); err != nil {
		errs = append(errs, fmt.Errorf("transactions.reference_pattern: %w", err))
	}
	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit))
	}
	if c.Receipt.VoidClearDelay < 0 {
		errs = append(errs, fmt.Errorf("receipt.void_clear_delay must not be negative, got %s", c.Receipt.VoidClearDelay))
	}
	switch c.Settings.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("settings.backend: unknown backend %q", c.Settings.Backend))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ReferenceRegexp compiles the transaction reference pattern. Call after Validate.
func (c Config) ReferenceRegexp() *regexp.Regexp {
	return regexp.MustCompile(c.Transactions.ReferencePattern)
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}
