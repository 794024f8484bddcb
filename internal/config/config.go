package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// GistPlaceholder is the gist id shipped in sample configs. It counts as unconfigured.
const GistPlaceholder = "YOUR_GIST_ID_HERE"

type Server struct {
	Listen string `yaml:"listen" env:"LISTEN"`
	// Directory served as the public site. Empty disables static serving.
	SiteDir string `yaml:"site_dir" env:"SITE_DIR"`
	// Path visitors are redirected to while maintenance mode is on
	MaintenancePage string `yaml:"maintenance_page" env:"MAINTENANCE_PAGE"`
	// Path prefixes that stay reachable during maintenance (assets, fonts)
	AllowPrefixes []string `yaml:"allow_prefixes" env:"ALLOW_PREFIXES" envSeparator:","`
}

type Common struct {
	// Remote fetch timeout. Default: 10s
	// Failed fetches are not cached, so while the remote document is down every
	// gated page load waits up to this long before the local fallback answers.
	// Keep it short when the site sits behind the gate.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Optional HTTP user agent
	UserAgent string `yaml:"user_agent" env:"USER_AGENT"`
	// Log level: debug|info|warn|error
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

type Maintenance struct {
	// Gist holding maintenance-status.json
	GistID string `yaml:"gist_id" env:"GIST_ID"`
	// Full URL of the status document, wins over gist_id
	DirectURL string `yaml:"direct_url" env:"DIRECT_URL"`
	// Use the local store when the remote document can't be read. Default: true
	FallbackToLocalStorage bool `yaml:"fallback_to_local_storage" env:"FALLBACK_TO_LOCAL_STORAGE"`
	// Freshness window of the in-memory status cache. Default: 5m
	CacheDuration time.Duration `yaml:"cache_duration" env:"CACHE_DURATION"`
}

type Store struct {
	// memory|file|sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"`
}

type Config struct {
	Server      Server      `yaml:"server" envPrefix:"SERVER_"`
	Common      Common      `yaml:"common" envPrefix:"COMMON_"`
	Maintenance Maintenance `yaml:"maintenance" envPrefix:"MAINTENANCE_"`
	Store       Store       `yaml:"store" envPrefix:"STORE_"`
}

// Load reads the YAML file at path, applies MGATE_* environment overrides and fills defaults.
// An empty path skips the file and uses environment and defaults only.
func Load(path string) (*Config, error) {
	var c Config
	// bool zero is false, so the default goes in before decoding
	c.Maintenance.FallbackToLocalStorage = true
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "MGATE_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(&c)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.MaintenancePage == "" {
		c.Server.MaintenancePage = "/maintenance.html"
	}
	if c.Common.Timeout == 0 {
		c.Common.Timeout = 10 * time.Second
	}
	if c.Common.UserAgent == "" {
		c.Common.UserAgent = "maintenance-gate/0.1"
	}
	if c.Maintenance.CacheDuration == 0 {
		c.Maintenance.CacheDuration = 5 * time.Minute
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case "sqlite":
			c.Store.Path = "maintenance-state.db"
		case "file":
			c.Store.Path = "maintenance-state.yaml"
		}
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}
	if c.Maintenance.CacheDuration < 0 {
		return fmt.Errorf("cache_duration must not be negative")
	}
	if c.Common.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
