package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tormodhaugland/stencil/internal/fs"
)

type TemplatesConfig struct {
	Extensions         []string `toml:"extensions"`
	Include            []string `toml:"include"`
	Exclude            []string `toml:"exclude"`
	RespectIgnoreFiles bool     `toml:"respect_ignore_files"`
	IncludeHidden      bool     `toml:"include_hidden"`
}

type ScanConfig struct {
	Exclude       []string `toml:"exclude"`
	ExcludeRemove []string `toml:"exclude_remove"`
}

type RenderConfig struct {
	FormatGo    bool `toml:"format_go"`
	SyntaxCheck bool `toml:"syntax_check"`
	Workers     int  `toml:"workers"`
}

type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

type Config struct {
	Schema    int             `toml:"schema"`
	LogLevel  string          `toml:"log_level"`
	StatePath string          `toml:"state_path"`
	Templates TemplatesConfig `toml:"templates"`
	Scan      ScanConfig      `toml:"scan"`
	Render    RenderConfig    `toml:"render"`
	Watch     WatchConfig     `toml:"watch"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

const CurrentConfigSchema = 1

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func DefaultConfig() *Config {
	return &Config{
		Schema:    CurrentConfigSchema,
		LogLevel:  "info",
		StatePath: defaultStatePath(),
		Templates: TemplatesConfig{
			Extensions:         []string{".tmpl"},
			RespectIgnoreFiles: true,
			IncludeHidden:      true,
		},
		Watch: WatchConfig{Debounce: Duration{200 * time.Millisecond}},
	}
}

// Load reads the first config file found in the lookup chain: the explicit
// path, then $XDG_CONFIG_HOME/stencil/config.toml, then
// ~/.stencil/config.toml. Keys missing from the file keep their defaults.
// An explicit path that does not exist is an error.
func Load(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	for _, path := range getConfigPaths(configPath) {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		cfg := DefaultConfig()
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, key := range meta.Undecoded() {
			slog.Warn("unknown config key", "path", path, "key", key.String())
		}

		cfg.Path = path
		cfg.expandPaths()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}

	return DefaultConfig(), nil
}

func getConfigPaths(explicit string) []string {
	home, _ := os.UserHomeDir()

	var paths []string

	if explicit != "" {
		paths = append(paths, explicit)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "stencil", "config.toml"))

	paths = append(paths, filepath.Join(home, ".stencil", "config.toml"))

	return paths
}

func defaultStatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, _ := os.UserHomeDir()
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "stencil", "state.db")
}

func (c *Config) expandPaths() {
	c.StatePath = ExpandHome(c.StatePath)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("log_level %q must be one of %s", c.LogLevel, strings.Join(logLevels, ", ")))
	}
	if len(c.Templates.Extensions) == 0 {
		errs = append(errs, errors.New("templates.extensions must not be empty"))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("render.workers must not be negative, got %d", c.Render.Workers))
	}
	if c.Watch.Debounce.Duration < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	for _, list := range [][]string{c.Templates.Include, c.Templates.Exclude} {
		for _, p := range list {
			if !fs.ValidGlob(p) {
				errs = append(errs, fmt.Errorf("invalid glob %q", p))
			}
		}
	}
	return errors.Join(errs...)
}

// ScanExcludes returns the built-in scan excludes adjusted by the config.
func (c *Config) ScanExcludes() []string {
	return fs.MergePatterns(fs.DefaultScanExcludes, c.Scan.Exclude, c.Scan.ExcludeRemove)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a level name to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
