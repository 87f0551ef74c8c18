// Package config loads and normalizes the blogbuilder configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists indicates Init would overwrite an existing configuration file.
var ErrConfigExists = errors.New("configuration file already exists")

// SiteConfig describes the published site.
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url,omitempty"`
	Author  string `yaml:"author,omitempty"`
}

// NATSConfig configures optional build-event publication.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

// DaemonConfig configures continuous mode.
type DaemonConfig struct {
	Listen          string      `yaml:"listen,omitempty"`
	RebuildInterval Duration    `yaml:"rebuild_interval,omitempty"`
	NATS            *NATSConfig `yaml:"nats,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Site     SiteConfig   `yaml:"site"`
	Source   string       `yaml:"source,omitempty"`
	Output   string       `yaml:"output,omitempty"`
	State    string       `yaml:"state,omitempty"`
	LogLevel string       `yaml:"log_level,omitempty"`
	Daemon   DaemonConfig `yaml:"daemon,omitempty"`
}

// Duration wraps time.Duration with YAML string parsing ("30s", "1h").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads, parses, and normalizes a configuration file. Environment files
// (.env, .env.local) are applied first; selected environment variables
// override file values.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.Normalize()
	return &cfg, nil
}

// Normalize fills defaults for anything the file left unset.
func (c *Config) Normalize() {
	if c.Site.Title == "" {
		c.Site.Title = "Blog"
	}
	if c.Source == "" {
		c.Source = "content"
	}
	if c.Output == "" {
		c.Output = "site"
	}
	if c.State == "" {
		c.State = ".blogbuilder.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":8080"
	}
	if c.Daemon.RebuildInterval <= 0 {
		c.Daemon.RebuildInterval = Duration(time.Hour)
	}
	if c.Daemon.NATS != nil {
		if c.Daemon.NATS.Subject == "" {
			c.Daemon.NATS.Subject = "blog.builds"
		}
		if c.Daemon.NATS.Stream == "" {
			c.Daemon.NATS.Stream = "BLOG_BUILDS"
		}
	}
}

const initialConfig = `site:
  title: "My Blog"
  base_url: ""

source: content
output: site

daemon:
  listen: ":8080"
  rebuild_interval: "1h"
`

// Init writes a starter configuration file, refusing to overwrite an existing
// one unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	return os.WriteFile(path, []byte(initialConfig), 0o644)
}
