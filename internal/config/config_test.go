package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("config template not written: %v", err)
	}

	// Defaults apply.
	if cfg.Monitor.ThresholdInterval != 2*time.Minute {
		t.Errorf("got threshold interval %s, want 2m", cfg.Monitor.ThresholdInterval)
	}
	if cfg.Monitor.AlertCooldown != time.Hour {
		t.Errorf("got cooldown %s, want 1h", cfg.Monitor.AlertCooldown)
	}
	if cfg.Monitor.VolumeSpikeRatio != 2.0 {
		t.Errorf("got spike ratio %v, want 2.0", cfg.Monitor.VolumeSpikeRatio)
	}
	if cfg.Market.Timezone != "America/New_York" {
		t.Errorf("got timezone %s", cfg.Market.Timezone)
	}
	if cfg.Market.Open != "09:30" || cfg.Market.Close != "16:00" {
		t.Errorf("got session %s-%s", cfg.Market.Open, cfg.Market.Close)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[monitor]
threshold_interval = "30s"
volume_spike_ratio = 3.5

[market]
open = "10:00"
holidays = ["2024-07-04"]
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Monitor.ThresholdInterval != 30*time.Second {
		t.Errorf("got threshold interval %s, want 30s", cfg.Monitor.ThresholdInterval)
	}
	if cfg.Monitor.VolumeSpikeRatio != 3.5 {
		t.Errorf("got spike ratio %v, want 3.5", cfg.Monitor.VolumeSpikeRatio)
	}
	if cfg.Market.Open != "10:00" {
		t.Errorf("got open %s, want 10:00", cfg.Market.Open)
	}
	if len(cfg.Market.Holidays) != 1 || cfg.Market.Holidays[0] != "2024-07-04" {
		t.Errorf("got holidays %v", cfg.Market.Holidays)
	}
	// Unset keys keep defaults.
	if cfg.Market.Close != "16:00" {
		t.Errorf("got close %s, want default 16:00", cfg.Market.Close)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Monitor: MonitorConfig{
				ThresholdInterval: 2 * time.Minute,
				CalendarInterval:  time.Minute,
				VolumeInterval:    5 * time.Minute,
				AlertCooldown:     time.Hour,
				VolumeSpikeRatio:  2.0,
				QuoteTimeout:      10 * time.Second,
			},
			Market: MarketConfig{
				Timezone:  "America/New_York",
				Open:      "09:30",
				Close:     "16:00",
				AlertLead: 5 * time.Minute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero interval", func(c *Config) { c.Monitor.ThresholdInterval = 0 }, true},
		{"zero cooldown", func(c *Config) { c.Monitor.AlertCooldown = 0 }, true},
		{"ratio below one", func(c *Config) { c.Monitor.VolumeSpikeRatio = 0.5 }, true},
		{"bad open clock", func(c *Config) { c.Market.Open = "9am" }, true},
		{"bad holiday", func(c *Config) { c.Market.Holidays = []string{"July 4"} }, true},
		{"good holiday", func(c *Config) { c.Market.Holidays = []string{"2024-07-04"} }, false},
		{"telegram without token", func(c *Config) { c.Notifications.Telegram.Enabled = true }, true},
		{"webhook without url", func(c *Config) { c.Notifications.Webhook.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("STOCKWATCH_DB", "/tmp/override.db")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Notifications.Telegram.Enabled || cfg.Notifications.Telegram.BotToken != "123:abc" {
		t.Error("TELEGRAM_BOT_TOKEN override not applied")
	}
	if cfg.Storage.Path != "/tmp/override.db" {
		t.Error("STOCKWATCH_DB override not applied")
	}
}
