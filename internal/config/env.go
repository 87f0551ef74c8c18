package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env/.env.local into the process environment.
// Existing environment variables are not overwritten (godotenv.Load semantics).
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

// applyEnvOverrides lets deployment environments override file settings
// without editing config.yaml.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BLOGBUILDER_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("BLOGBUILDER_LISTEN"); v != "" {
		c.Daemon.Listen = v
	}
	if v := os.Getenv("BLOGBUILDER_NATS_URL"); v != "" {
		if c.Daemon.NATS == nil {
			c.Daemon.NATS = &NATSConfig{}
		}
		c.Daemon.NATS.URL = v
	}
}
