package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: PORTFOLIO_COMMENTS__BASE_URL -> comments.base_url.
const EnvPrefix = "PORTFOLIO_"

// DefaultFile is the optional YAML config file read from the working directory.
const DefaultFile = "portfolio.yaml"

// Config is the runtime configuration of the portfolio web server.
type Config struct {
	Dev          bool           `koanf:"dev"`
	TemplatesDir string         `koanf:"templates_dir"`
	ContentDir   string         `koanf:"content_dir"`
	Server       ServerConfig   `koanf:"server"`
	Comments     CommentsConfig `koanf:"comments"`
	Maps         MapsConfig     `koanf:"maps"`
	Cookies      CookiesConfig  `koanf:"cookies"`
	Log          LogConfig      `koanf:"log"`
	Site         SiteConfig     `koanf:"site"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

// CommentsConfig points at the remote comment endpoint. An empty BaseURL
// serves a logged-out fake.
type CommentsConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	DefaultLimit int           `koanf:"default_limit"`
}

// MapsConfig configures the browser map provider.
type MapsConfig struct {
	APIKey string `koanf:"api_key"`
}

// CookiesConfig controls cookie attributes.
type CookiesConfig struct {
	Secure bool `koanf:"secure"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `koanf:"level"`
}

// SiteConfig holds page metadata. SameAs lists profile URLs for the
// Person schema and accepts a comma separated env value.
type SiteConfig struct {
	Name        string   `koanf:"name"`
	Owner       string   `koanf:"owner"`
	URL         string   `koanf:"url"`
	Description string   `koanf:"description"`
	SameAs      []string `koanf:"same_as"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			RequestTimeout:    30 * time.Second,
		},
		Comments: CommentsConfig{
			Timeout:      8 * time.Second,
			DefaultLimit: 5,
		},
		Log: LogConfig{Level: "info"},
		Site: SiteConfig{
			Name:        "Portfolio",
			Description: "Projects, education and a comment board.",
		},
	}
}

// Load reads defaults, then the YAML file at path when it exists, then
// PORTFOLIO_* environment overrides. PORT (Cloud Run) is honoured when no
// listen address was configured.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: access %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if !k.Exists("server.addr") {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			cfg.Server.Addr = ":" + port
		}
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Comments.DefaultLimit <= 0 || c.Comments.DefaultLimit > 100 {
		return fmt.Errorf("config: comments.default_limit must be between 1 and 100, got %d", c.Comments.DefaultLimit)
	}
	if raw := strings.TrimSpace(c.Comments.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("config: comments.base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config: comments.base_url must be http(s), got %q", raw)
		}
	}
	return nil
}
