// Package config loads the client's runtime settings from defaults, an
// optional JSON file and command-line flags, in that order.
package config

import "time"

// Config holds runtime settings for the notesync CLI.
type Config struct {
	// ServerAddr is the base URL of the sync server's HTTP API.
	ServerAddr string
	// DatabaseFile is the path of the local SQLite store.
	DatabaseFile string
	// SyncInterval is how often a background sync runs regardless of
	// triggers and notifications.
	SyncInterval time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DatabaseFile = "notesync.db"
	c.SyncInterval = time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
