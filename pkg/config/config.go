// Package config loads tracetower settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/tracetower/config.toml (falling back
// to ~/.config/tracetower/config.toml). A missing file is not an error:
// every setting has a default, and command-line flags override both.
//
//	[playback]
//	speed = "300ms"
//
//	[export]
//	width = 960
//	capturer = "rsvg"
//
//	[service]
//	url = "http://127.0.0.1:8001/python"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[roles]
//	frontier = "queue"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/roles"
)

const appName = "tracetower"

// Config is the full settings file.
type Config struct {
	Playback PlaybackConfig    `toml:"playback"`
	Export   ExportConfig      `toml:"export"`
	Service  ServiceConfig     `toml:"service"`
	Cache    CacheConfig       `toml:"cache"`
	Server   ServerConfig      `toml:"server"`
	Roles    map[string]string `toml:"roles"` // variable name -> role, overrides inference
}

// PlaybackConfig holds autoplay settings.
type PlaybackConfig struct {
	Speed string `toml:"speed"` // autoplay interval and GIF frame delay, e.g. "500ms"
}

// ExportConfig holds capture settings.
type ExportConfig struct {
	Width    float64 `toml:"width"`     // surface width in pixels
	MaxWidth int     `toml:"max_width"` // downsize exports wider than this; 0 keeps size
	Capturer string  `toml:"capturer"`  // "raster" or "rsvg"
	Scale    float64 `toml:"scale"`
	Dir      string  `toml:"dir"` // output directory
}

// ServiceConfig locates the tracer and explanation services.
type ServiceConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"` // "file", "redis" or "none"
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Playback: PlaybackConfig{Speed: "500ms"},
		Export:   ExportConfig{Width: 800, Capturer: "raster", Scale: 1, Dir: "."},
		Service:  ServiceConfig{URL: "http://127.0.0.1:8001/python", Timeout: "60s"},
		Cache:    CacheConfig{Backend: "file", Prefix: appName + ":"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the default file cache directory.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the file at path, or the default location when path is empty.
// A missing default file yields the defaults; a missing explicit file is an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return New(), nil
		}
		path = p
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadFile decodes a TOML file over the defaults and validates it.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting that has a constrained range.
func (c *Config) Validate() error {
	if _, err := c.Speed(); err != nil {
		return err
	}
	if _, err := c.ServiceTimeout(); err != nil {
		return err
	}
	if _, err := c.RoleMap(); err != nil {
		return err
	}
	switch c.Export.Capturer {
	case "raster", "rsvg":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "export.capturer must be raster or rsvg, got %q", c.Export.Capturer)
	}
	switch c.Cache.Backend {
	case "file", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Export.Width < 0 || c.Export.MaxWidth < 0 || c.Export.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "export sizes must not be negative")
	}
	return nil
}

// Speed parses and range-checks the autoplay interval.
func (c *Config) Speed() (time.Duration, error) {
	d, err := time.ParseDuration(c.Playback.Speed)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidSpeed, err, "playback.speed %q", c.Playback.Speed)
	}
	if err := errors.ValidateSpeed(d); err != nil {
		return 0, err
	}
	return d, nil
}

// ServiceTimeout parses the request timeout.
func (c *Config) ServiceTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Service.Timeout)
	if err != nil || d <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "service.timeout %q is not a positive duration", c.Service.Timeout)
	}
	return d, nil
}

// RoleMap converts the [roles] table. Unknown role names are an error here,
// unlike tracer hints, because the user wrote them.
func (c *Config) RoleMap() (roles.RoleMap, error) {
	if len(c.Roles) == 0 {
		return nil, nil
	}
	m := make(roles.RoleMap, len(c.Roles))
	for name, s := range c.Roles {
		r, ok := roles.ParseRole(s)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "roles.%s: unknown role %q", name, s)
		}
		m[name] = r
	}
	return m, nil
}

// Write saves c as TOML to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
