// Package config loads the bot configuration from a .env file, environment
// variables prefixed with PRICEALERT_ and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/pricealert/pkg/core"
)

const EnvPrefix = "PRICEALERT"

// Storage drivers
const (
	StorageBunt     = "bunt"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Price sources
const (
	SourceBinance = "binance"
	SourceReplay  = "replay"
)

type Config struct {
	Settings core.Settings `validate:"-"`
	Log      LogConfig
	Storage  StorageConfig
	Source   SourceConfig
	Binance  BinanceConfig
	Mail     MailConfig
	Metrics  MetricsConfig
}

type LogConfig struct {
	Level      string `validate:"oneof=trace debug info warn error fatal panic"`
	Driver     string `validate:"oneof=zerolog logrus"`
	JSON       bool
	Colored    bool
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

type StorageConfig struct {
	Driver string `validate:"oneof=bunt postgres sqlite"`
	Path   string // BuntDB or SQLite file, ":memory:" for an in-memory BuntDB store
	DSN    string `validate:"required_if=Driver postgres"`
}

type SourceConfig struct {
	Driver     string `validate:"oneof=binance replay"`
	ReplayFile string `validate:"required_if=Driver replay"`
}

type BinanceConfig struct {
	APIKey    string
	SecretKey string
	Testnet   bool
}

type MailConfig struct {
	Enabled  bool
	Server   string `validate:"required_if=Enabled true"`
	Port     int    `validate:"required_if=Enabled true"`
	From     string `validate:"required_if=Enabled true"`
	To       string `validate:"required_if=Enabled true"`
	Password string
}

type MetricsConfig struct {
	Address string // listen address of the /metrics endpoint, empty disables it
}

// Load reads the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", "15s")
	v.SetDefault("trading.from", "")
	v.SetDefault("trading.to", "")
	v.SetDefault("trading.weekdays", "")
	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.owner", "")
	v.SetDefault("telegram.operator_chat", 0)
	v.SetDefault("telegram.report_parse_errors", false)
	v.SetDefault("telegram.message_interval", "500ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.driver", "zerolog")
	v.SetDefault("log.json", false)
	v.SetDefault("log.colored", true)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("storage.driver", StorageBunt)
	v.SetDefault("storage.path", "pricealert.db")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("source.driver", SourceBinance)
	v.SetDefault("source.replay_file", "")
	v.SetDefault("binance.api_key", "")
	v.SetDefault("binance.secret_key", "")
	v.SetDefault("binance.testnet", false)
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.server", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("metrics.address", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	interval, err := duration(v, "interval")
	if err != nil {
		return nil, err
	}
	messageInterval, err := duration(v, "telegram.message_interval")
	if err != nil {
		return nil, err
	}
	window, err := tradingWindow(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Settings: core.Settings{
			Interval:      interval,
			TradingWindow: window,
			Telegram: core.TelegramSettings{
				Enabled:           v.GetBool("telegram.enabled"),
				Token:             v.GetString("telegram.token"),
				OwnerUsername:     strings.TrimPrefix(v.GetString("telegram.owner"), "@"),
				OperatorChatID:    v.GetInt64("telegram.operator_chat"),
				ReportParseErrors: v.GetBool("telegram.report_parse_errors"),
				MessageInterval:   messageInterval,
			},
		},
		Log: LogConfig{
			Level:      strings.ToLower(v.GetString("log.level")),
			Driver:     strings.ToLower(v.GetString("log.driver")),
			JSON:       v.GetBool("log.json"),
			Colored:    v.GetBool("log.colored"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Path:   v.GetString("storage.path"),
			DSN:    v.GetString("storage.dsn"),
		},
		Source: SourceConfig{
			Driver:     strings.ToLower(v.GetString("source.driver")),
			ReplayFile: v.GetString("source.replay_file"),
		},
		Binance: BinanceConfig{
			APIKey:    v.GetString("binance.api_key"),
			SecretKey: v.GetString("binance.secret_key"),
			Testnet:   v.GetBool("binance.testnet"),
		},
		Mail: MailConfig{
			Enabled:  v.GetBool("mail.enabled"),
			Server:   v.GetString("mail.server"),
			Port:     v.GetInt("mail.port"),
			From:     v.GetString("mail.from"),
			To:       v.GetString("mail.to"),
			Password: v.GetString("mail.password"),
		},
		Metrics: MetricsConfig{
			Address: v.GetString("metrics.address"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Settings.Interval <= 0 {
		return fmt.Errorf("invalid config: interval must be positive")
	}
	if w := c.Settings.TradingWindow; w.To < w.From {
		return fmt.Errorf("invalid config: trading window ends before it starts")
	}
	return nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := str2duration.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid config: %s: %w", key, err)
	}
	return d, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// tradingWindow reads trading.from and trading.to as offsets from UTC
// midnight ("7h", "15h40m") and trading.weekdays as "mon,tue,..."
func tradingWindow(v *viper.Viper) (core.TradingWindow, error) {
	from, err := duration(v, "trading.from")
	if err != nil {
		return core.TradingWindow{}, err
	}
	to, err := duration(v, "trading.to")
	if err != nil {
		return core.TradingWindow{}, err
	}

	window := core.TradingWindow{From: from, To: to}
	for _, name := range strings.Split(v.GetString("trading.weekdays"), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		day, ok := weekdays[name]
		if !ok {
			return core.TradingWindow{}, fmt.Errorf("invalid config: unknown weekday %q", name)
		}
		window.Weekdays = append(window.Weekdays, day)
	}
	return window, nil
}
