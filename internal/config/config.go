// Package config provides configuration management for the monitoring engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Market        MarketConfig       `mapstructure:"market"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Sectors       map[string]string  `mapstructure:"sectors"`
}

// MonitorConfig holds the monitoring loop configuration.
type MonitorConfig struct {
	ThresholdInterval time.Duration `mapstructure:"threshold_interval"`
	CalendarInterval  time.Duration `mapstructure:"calendar_interval"`
	VolumeInterval    time.Duration `mapstructure:"volume_interval"`
	AlertCooldown     time.Duration `mapstructure:"alert_cooldown"`
	VolumeSpikeRatio  float64       `mapstructure:"volume_spike_ratio"`
	QuoteTimeout      time.Duration `mapstructure:"quote_timeout"`
}

// MarketConfig holds the reference market calendar configuration.
// Holidays are an explicit list of "2006-01-02" dates; the default calendar
// is weekday-only.
type MarketConfig struct {
	Timezone  string        `mapstructure:"timezone"`
	Open      string        `mapstructure:"open"`
	Close     string        `mapstructure:"close"`
	AlertLead time.Duration `mapstructure:"alert_lead"`
	Holidays  []string      `mapstructure:"holidays"`
}

// NotificationConfig holds notification transport configuration.
type NotificationConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// TelegramConfig holds Telegram transport configuration. The opaque user
// identifier used throughout the engine is the Telegram chat ID.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
}

// WebhookConfig holds webhook transport configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockwatch"
	}
	return filepath.Join(home, ".config", "stockwatch")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := writeTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("monitor.threshold_interval", "2m")
	v.SetDefault("monitor.calendar_interval", "1m")
	v.SetDefault("monitor.volume_interval", "5m")
	v.SetDefault("monitor.alert_cooldown", "1h")
	v.SetDefault("monitor.volume_spike_ratio", 2.0)
	v.SetDefault("monitor.quote_timeout", "10s")

	v.SetDefault("market.timezone", "America/New_York")
	v.SetDefault("market.open", "09:30")
	v.SetDefault("market.close", "16:00")
	v.SetDefault("market.alert_lead", "5m")

	v.SetDefault("notifications.telegram.enabled", false)
	v.SetDefault("notifications.webhook.enabled", false)

	v.SetDefault("storage.path", filepath.Join(configDir, "stockwatch.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "stockwatch.log"))
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
		cfg.Notifications.Telegram.Enabled = true
	}
	if v := os.Getenv("STOCKWATCH_DB"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("STOCKWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Monitor.ThresholdInterval <= 0 {
		return fmt.Errorf("monitor.threshold_interval must be positive")
	}
	if c.Monitor.CalendarInterval <= 0 {
		return fmt.Errorf("monitor.calendar_interval must be positive")
	}
	if c.Monitor.VolumeInterval <= 0 {
		return fmt.Errorf("monitor.volume_interval must be positive")
	}
	if c.Monitor.AlertCooldown <= 0 {
		return fmt.Errorf("monitor.alert_cooldown must be positive")
	}
	if c.Monitor.VolumeSpikeRatio < 1 {
		return fmt.Errorf("monitor.volume_spike_ratio must be at least 1")
	}
	if c.Monitor.QuoteTimeout <= 0 {
		return fmt.Errorf("monitor.quote_timeout must be positive")
	}
	if c.Market.AlertLead <= 0 {
		return fmt.Errorf("market.alert_lead must be positive")
	}
	if _, err := parseClock(c.Market.Open); err != nil {
		return fmt.Errorf("market.open: %w", err)
	}
	if _, err := parseClock(c.Market.Close); err != nil {
		return fmt.Errorf("market.close: %w", err)
	}
	for _, h := range c.Market.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("market.holidays entry %q: %w", h, err)
		}
	}
	if c.Notifications.Telegram.Enabled && c.Notifications.Telegram.BotToken == "" {
		return fmt.Errorf("notifications.telegram.bot_token required when telegram is enabled")
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("notifications.webhook.url required when webhook is enabled")
	}
	return nil
}

type clockTime struct {
	Hour, Minute int
}

func parseClock(s string) (clockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return clockTime{}, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return clockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// OpenClock returns the market open as hour and minute.
func (m MarketConfig) OpenClock() (int, int) {
	c, _ := parseClock(m.Open)
	return c.Hour, c.Minute
}

// CloseClock returns the market close as hour and minute.
func (m MarketConfig) CloseClock() (int, int) {
	c, _ := parseClock(m.Close)
	return c.Hour, c.Minute
}
