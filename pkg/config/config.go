// Package config loads the crudform YAML configuration and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-crudform/pkg/auth"
	"github.com/goliatone/go-crudform/pkg/crud"
)

// Environment variables that override file values.
const (
	EnvAPIURL   = "CRUDFORM_API_URL"
	EnvToken    = "CRUDFORM_TOKEN"
	EnvAuthMode = "CRUDFORM_AUTH_MODE"
	EnvAddr     = "CRUDFORM_ADDR"
	EnvLogLevel = "CRUDFORM_LOG_LEVEL"
	EnvEnv      = "CRUDFORM_ENV"
)

// EnvConfigPath is read by the CLI, not by Load.
const EnvConfigPath = "CRUDFORM_CONFIG"

// DefaultAddr is the preview server listen address.
const DefaultAddr = ":8080"

// Config is the root configuration document.
type Config struct {
	Env    string       `yaml:"env"`
	API    APIConfig    `yaml:"api"`
	Auth   AuthConfig   `yaml:"auth"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Theme  ThemeConfig  `yaml:"theme"`
	Pages  []PageConfig `yaml:"pages"`
}

// APIConfig points at the backend.
type APIConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig selects how bearer tokens are obtained.
type AuthConfig struct {
	Mode      auth.Mode     `yaml:"mode"`
	Token     string        `yaml:"token"`
	TokenFile string        `yaml:"tokenFile"`
	Secret    string        `yaml:"secret"`
	Subject   string        `yaml:"subject"`
	Tenant    string        `yaml:"tenant"`
	TTL       time.Duration `yaml:"ttl"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ThemeConfig carries the tenant theme tokens. Variants override base tokens.
type ThemeConfig struct {
	Name     string                       `yaml:"name"`
	Variant  string                       `yaml:"variant"`
	Tokens   map[string]string            `yaml:"tokens"`
	Variants map[string]map[string]string `yaml:"variants"`
}

// PageConfig describes one CRUD screen.
type PageConfig struct {
	Name          string       `yaml:"name"`
	Title         string       `yaml:"title"`
	Schema        string       `yaml:"schema"`
	FormAPI       crud.FormAPI `yaml:"formApi"`
	FormName      string       `yaml:"formName"`
	MultipleEntry bool         `yaml:"multipleEntry"`
}

// DisplayTitle falls back to the page name.
func (p PageConfig) DisplayTitle() string {
	if strings.TrimSpace(p.Title) != "" {
		return p.Title
	}
	return p.Name
}

type options struct {
	lookup func(string) (string, bool)
}

// Option configures Load and Parse.
type Option func(*options)

// WithLookup replaces os.LookupEnv. Tests pass a map-backed lookup.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithoutEnv disables environment overrides.
func WithoutEnv() Option {
	return func(o *options) {
		o.lookup = func(string) (string, bool) { return "", false }
	}
}

// Load reads path, applies overrides and defaults, and validates the result.
// An empty path starts from defaults and environment values only.
func Load(path string, opts ...Option) (Config, error) {
	var data []byte
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		data = raw
	}
	return Parse(data, opts...)
}

// Parse decodes YAML (or JSON) data the same way Load does.
func Parse(data []byte, opts ...Option) (Config, error) {
	cfg := options{lookup: os.LookupEnv}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var out Config
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &out); err != nil {
			return Config{}, fmt.Errorf("config: decode: %w", err)
		}
	}
	out.applyEnv(cfg.lookup)
	out.applyDefaults()
	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	set(EnvAPIURL, &c.API.BaseURL)
	set(EnvToken, &c.Auth.Token)
	set(EnvAddr, &c.Server.Addr)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvEnv, &c.Env)

	var mode string
	set(EnvAuthMode, &mode)
	if mode != "" {
		c.Auth.Mode = auth.Mode(mode)
	}
	if c.Auth.Mode == "" && c.Auth.Token != "" {
		c.Auth.Mode = auth.ModeStatic
	}
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "production"
	}
	if c.Env == "development" {
		c.Log.Development = true
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = auth.ModeNone
	}
	if c.Theme.Name == "" {
		c.Theme.Name = "default"
	}
	for i := range c.Pages {
		c.Pages[i].Name = strings.TrimSpace(c.Pages[i].Name)
		c.Pages[i].FormAPI = c.Pages[i].FormAPI.WithDefaults()
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("config: api.timeout must not be negative"))
	}
	if _, err := auth.FromSettings(c.AuthSettings()); err != nil {
		errs = append(errs, fmt.Errorf("config: auth: %w", err))
	}
	if c.Theme.Variant != "" {
		if _, ok := c.Theme.Variants[c.Theme.Variant]; !ok {
			errs = append(errs, fmt.Errorf("config: theme variant %q is not defined", c.Theme.Variant))
		}
	}

	seen := make(map[string]struct{}, len(c.Pages))
	for i, page := range c.Pages {
		if page.Name == "" {
			errs = append(errs, fmt.Errorf("config: pages[%d]: name is required", i))
			continue
		}
		if _, dup := seen[page.Name]; dup {
			errs = append(errs, fmt.Errorf("config: pages[%d]: duplicate name %q", i, page.Name))
		}
		seen[page.Name] = struct{}{}
		if strings.TrimSpace(page.Schema) == "" {
			errs = append(errs, fmt.Errorf("config: page %q: schema endpoint is required", page.Name))
		}
		if err := page.FormAPI.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: page %q: %w", page.Name, err))
		}
	}
	return errors.Join(errs...)
}

// AuthSettings converts the auth section for auth.FromSettings.
func (c Config) AuthSettings() auth.Settings {
	return auth.Settings{
		Mode:      c.Auth.Mode,
		Token:     c.Auth.Token,
		TokenFile: c.Auth.TokenFile,
		Secret:    c.Auth.Secret,
		Subject:   c.Auth.Subject,
		Tenant:    c.Auth.Tenant,
		TTL:       c.Auth.TTL,
	}
}

// Page looks up a page by name.
func (c Config) Page(name string) (PageConfig, bool) {
	for _, page := range c.Pages {
		if page.Name == name {
			return page, true
		}
	}
	return PageConfig{}, false
}

// PageNames returns page names in declaration order.
func (c Config) PageNames() []string {
	names := make([]string, 0, len(c.Pages))
	for _, page := range c.Pages {
		names = append(names, page.Name)
	}
	return names
}
