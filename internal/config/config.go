// Package config provides configuration types and defaults for marks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/marks/internal/log"
	"github.com/zjrosen/marks/internal/marker"
	"github.com/zjrosen/marks/internal/pattern"
)

// PatternConfig is one (color, pattern) pair of a regex or text marker.
type PatternConfig struct {
	Color   int    `mapstructure:"color" yaml:"color"`
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
}

// MarkerConfig defines a named marker. Either Spec holds a one-line
// definition ("itext 1 ERROR 2 WARN"), or Type plus Patterns/Path spell it
// out field by field.
type MarkerConfig struct {
	Name     string          `mapstructure:"name" yaml:"name"`
	Spec     string          `mapstructure:"spec" yaml:"spec,omitempty"`
	Type     string          `mapstructure:"type" yaml:"type,omitempty"`   // regex, iregex, text, itext, function
	Flags    []string        `mapstructure:"flags" yaml:"flags,omitempty"` // ignorecase, multiline, dotall, verbose, re2
	Patterns []PatternConfig `mapstructure:"patterns" yaml:"patterns,omitempty"`
	Path     string          `mapstructure:"path" yaml:"path,omitempty"` // function markers
}

// EngineConfig holds matching engine settings shared by all markers.
type EngineConfig struct {
	Timeout time.Duration `mapstructure:"timeout"` // per search step, 0 disables
	Flags   []string      `mapstructure:"flags"`   // applied to every pattern marker
}

// ThemeConfig maps the three mark colors to terminal colors (hex or ANSI index).
type ThemeConfig struct {
	Color1 string `mapstructure:"color1"`
	Color2 string `mapstructure:"color2"`
	Color3 string `mapstructure:"color3"`
}

// CacheConfig controls the built marker cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // 0 disables caching
}

// Config holds all configuration options for marks.
type Config struct {
	// ConfigDir anchors relative function marker paths.
	// Default: ~/.config/marks
	ConfigDir string         `mapstructure:"config_dir"`
	Engine    EngineConfig   `mapstructure:"engine"`
	Theme     ThemeConfig    `mapstructure:"theme"`
	Cache     CacheConfig    `mapstructure:"cache"`
	Markers   []MarkerConfig `mapstructure:"markers"`
}

// DefaultConfigDir returns ~/.config/marks.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "marks")
	}
	return filepath.Join(home, ".config", "marks")
}

// DefaultMarkers returns the markers available without any configuration.
func DefaultMarkers() []MarkerConfig {
	return []MarkerConfig{
		{
			Name: "log-levels",
			Type: marker.TypeIRegex,
			Patterns: []PatternConfig{
				{Color: 1, Pattern: `\berror\b`},
				{Color: 2, Pattern: `\bwarn(ing)?\b`},
				{Color: 3, Pattern: `\binfo\b`},
			},
		},
		{
			Name: "trailing-whitespace",
			Type: marker.TypeFunction,
			Path: "builtin:trailing-whitespace",
		},
	}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		ConfigDir: DefaultConfigDir(),
		Engine: EngineConfig{
			Timeout: 2 * time.Second,
		},
		Theme: ThemeConfig{
			Color1: "#FF8787",
			Color2: "#FECA57",
			Color3: "#73F59F",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Markers: DefaultMarkers(),
	}
}

// SetDefaults registers Defaults with v so unset keys fall back to them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("config_dir", d.ConfigDir)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("theme.color1", d.Theme.Color1)
	v.SetDefault("theme.color2", d.Theme.Color2)
	v.SetDefault("theme.color3", d.Theme.Color3)
	v.SetDefault("cache.ttl", d.Cache.TTL)
}

// Load unmarshals the configuration held by v. Markers fall back to
// DefaultMarkers when none are configured.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Markers) == 0 {
		cfg.Markers = DefaultMarkers()
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = DefaultConfigDir()
	}
	log.Debug(log.CatConfig, "loaded config", "file", v.ConfigFileUsed(), "markers", len(cfg.Markers))
	return cfg, nil
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateEngine(cfg.Engine); err != nil {
		return err
	}
	if err := ValidateTheme(cfg.Theme); err != nil {
		return err
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", cfg.Cache.TTL)
	}
	return ValidateMarkers(cfg.Markers)
}

// ValidateEngine checks engine settings.
func ValidateEngine(engine EngineConfig) error {
	if engine.Timeout < 0 {
		return fmt.Errorf("engine.timeout must not be negative, got %s", engine.Timeout)
	}
	if _, err := pattern.ParseFlags(engine.Flags); err != nil {
		return fmt.Errorf("engine.flags: %w", err)
	}
	return nil
}

// ValidateTheme checks that each mark color is a hex color or ANSI index.
func ValidateTheme(theme ThemeConfig) error {
	for i, c := range []string{theme.Color1, theme.Color2, theme.Color3} {
		if c != "" && !isTerminalColor(c) {
			return fmt.Errorf("theme.color%d must be #RRGGBB or 0-255, got %q", i+1, c)
		}
	}
	return nil
}

func isTerminalColor(s string) bool {
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return false
		}
		_, err := strconv.ParseUint(hex, 16, 32)
		return err == nil
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 255
}

// ValidateMarkers checks marker definitions for errors.
// Names must be present and unique, and every definition must parse.
func ValidateMarkers(markers []MarkerConfig) error {
	seen := make(map[string]bool, len(markers))
	for i, m := range markers {
		if m.Name == "" {
			return fmt.Errorf("marker %d: name is required", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("marker %d: duplicate name %q", i, m.Name)
		}
		seen[m.Name] = true

		if _, err := m.Definition(); err != nil {
			return fmt.Errorf("marker %d (%s): %w", i, m.Name, err)
		}
	}
	return nil
}

// Definition converts m into a marker definition.
func (m MarkerConfig) Definition() (marker.Definition, error) {
	flags, err := pattern.ParseFlags(m.Flags)
	if err != nil {
		return marker.Definition{}, err
	}

	if m.Spec != "" {
		if m.Type != "" || len(m.Patterns) > 0 || m.Path != "" {
			return marker.Definition{}, fmt.Errorf("spec cannot be combined with type, patterns or path")
		}
		def, err := marker.ParseDefinition(m.Spec)
		if err != nil {
			return marker.Definition{}, err
		}
		def.Flags |= flags
		return def, nil
	}

	def := marker.Definition{Type: m.Type, Path: m.Path, Flags: flags}
	for _, p := range m.Patterns {
		def.Pairs = append(def.Pairs, marker.Pair{Color: marker.Color(p.Color), Pattern: p.Pattern})
	}
	if _, err := def.Spec(); err != nil {
		return marker.Definition{}, err
	}
	return def, nil
}

// FindMarker returns the marker configured under name.
func (c Config) FindMarker(name string) (MarkerConfig, bool) {
	for _, m := range c.Markers {
		if m.Name == name {
			return m, true
		}
	}
	return MarkerConfig{}, false
}

// EngineFlags returns the parsed engine-wide pattern flags.
func (c Config) EngineFlags() pattern.Flags {
	flags, _ := pattern.ParseFlags(c.Engine.Flags)
	return flags
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# marks configuration

# Directory that relative function marker paths are resolved against
# (default: ~/.config/marks)
# config_dir: /path/to/dir

# Matching engine settings
engine:
  timeout: 2s    # Abort a single search step after this long (0 = never)
  # flags: [ignorecase]  # Applied to every pattern marker:
  #                      # ignorecase, multiline, dotall, verbose, re2

# Terminal colors for mark colors 1, 2 and 3 (#RRGGBB or ANSI 0-255)
theme:
  color1: "#FF8787"
  color2: "#FECA57"
  color3: "#73F59F"

# Built markers are cached for this long (0 = no cache)
cache:
  ttl: 10m

# Named markers, used with 'marks mark --marker NAME'
#
# A marker is either a one-line spec:
#   regex|iregex|text|itext COLOR PATTERN [COLOR PATTERN ...]
#   function PATH
# or the same spelled out with type/patterns/path.
# Function paths name a builtin (builtin:...) or a Go plugin exporting Marker.
markers:
  - name: log-levels
    type: iregex
    patterns:
      - color: 1
        pattern: '\berror\b'
      - color: 2
        pattern: '\bwarn(ing)?\b'
      - color: 3
        pattern: '\binfo\b'

  - name: trailing-whitespace
    type: function
    path: builtin:trailing-whitespace

  # - name: todo
  #   spec: "itext 3 TODO 1 FIXME"
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
