package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# stockwatch configuration

[monitor]
# How often watches are evaluated against fresh quotes
threshold_interval = "2m"
# How often the market calendar is checked for open/close lead windows
calendar_interval = "1m"
# How often volume is compared against the trailing average
volume_interval = "5m"
# Minimum time between repeated alerts of the same kind for one watch
alert_cooldown = "1h"
# Current/average volume ratio that counts as a spike
volume_spike_ratio = 2.0
# Per-symbol quote fetch timeout
quote_timeout = "10s"

[market]
# Reference market calendar (single market, weekday-only by default)
timezone = "America/New_York"
open = "09:30"
close = "16:00"
# How far ahead of open/close the one-shot alerts fire
alert_lead = "5m"
# Market holidays as "YYYY-MM-DD"; empty means weekday-only
holidays = []

[notifications.telegram]
enabled = false
# Prefer the TELEGRAM_BOT_TOKEN environment variable
bot_token = ""

[notifications.webhook]
enabled = false
url = ""

[storage]
# SQLite database path; defaults next to this file
# path = "~/.config/stockwatch/stockwatch.db"

[logging]
level = "info"
console = true
file = true

# Sector overrides for the built-in lookup table, e.g.
# [sectors]
# "PLTR" = "Technology"
`

// writeTemplateConfig writes a commented config template on first run.
func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
