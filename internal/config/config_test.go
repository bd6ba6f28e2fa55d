package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/marks/internal/marker"
	"github.com/zjrosen/marks/internal/pattern"
)

func loadConfigFromYAML(t *testing.T, yamlContent string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(yamlContent)))
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, 2*time.Second, cfg.Engine.Timeout)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "#FF8787", cfg.Theme.Color1)
	require.NotEmpty(t, cfg.ConfigDir)
	require.NoError(t, Validate(cfg))
}

func TestDefaultMarkers(t *testing.T) {
	markers := DefaultMarkers()
	require.Len(t, markers, 2)
	require.Equal(t, "log-levels", markers[0].Name)
	require.Equal(t, "trailing-whitespace", markers[1].Name)
	require.NoError(t, ValidateMarkers(markers))
}

func TestLoad_EmptyUsesDefaults(t *testing.T) {
	cfg := loadConfigFromYAML(t, "")

	require.Equal(t, Defaults().Engine.Timeout, cfg.Engine.Timeout)
	require.Equal(t, Defaults().Theme, cfg.Theme)
	require.Equal(t, DefaultMarkers(), cfg.Markers)
	require.Equal(t, DefaultConfigDir(), cfg.ConfigDir)
}

func TestLoad_Overrides(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
config_dir: /srv/marks
engine:
  timeout: 250ms
  flags: [multiline]
theme:
  color2: "214"
cache:
  ttl: 0s
markers:
  - name: todo
    spec: "itext 3 TODO 1 FIXME"
  - name: nums
    type: regex
    flags: [dotall]
    patterns:
      - color: 2
        pattern: '\d+'
`)

	require.Equal(t, "/srv/marks", cfg.ConfigDir)
	require.Equal(t, 250*time.Millisecond, cfg.Engine.Timeout)
	require.Equal(t, pattern.Multiline, cfg.EngineFlags())
	require.Equal(t, "214", cfg.Theme.Color2)
	require.Equal(t, Defaults().Theme.Color1, cfg.Theme.Color1)
	require.Zero(t, cfg.Cache.TTL)
	require.Len(t, cfg.Markers, 2)
	require.NoError(t, Validate(cfg))

	nums, ok := cfg.FindMarker("nums")
	require.True(t, ok)
	require.Equal(t, []PatternConfig{{Color: 2, Pattern: `\d+`}}, nums.Patterns)

	_, ok = cfg.FindMarker("missing")
	require.False(t, ok)
}

func TestDefaultConfigTemplate_Parses(t *testing.T) {
	cfg := loadConfigFromYAML(t, DefaultConfigTemplate())

	require.NoError(t, Validate(cfg))
	require.Equal(t, Defaults().Engine, cfg.Engine)
	require.Equal(t, Defaults().Theme, cfg.Theme)
	require.Equal(t, Defaults().Cache, cfg.Cache)
	require.Equal(t, DefaultMarkers(), cfg.Markers)
}

func TestValidateMarkers(t *testing.T) {
	tests := []struct {
		name    string
		markers []MarkerConfig
		wantErr string
	}{
		{name: "empty", markers: nil},
		{
			name:    "missing name",
			markers: []MarkerConfig{{Spec: "text 1 x"}},
			wantErr: "name is required",
		},
		{
			name:    "duplicate name",
			markers: []MarkerConfig{{Name: "a", Spec: "text 1 x"}, {Name: "a", Spec: "text 2 y"}},
			wantErr: `duplicate name "a"`,
		},
		{
			name:    "unknown type",
			markers: []MarkerConfig{{Name: "a", Type: "glob", Patterns: []PatternConfig{{Color: 1, Pattern: "*"}}}},
			wantErr: "unknown marker type",
		},
		{
			name:    "no patterns",
			markers: []MarkerConfig{{Name: "a", Type: marker.TypeRegex}},
			wantErr: "no alternatives",
		},
		{
			name:    "bad flag",
			markers: []MarkerConfig{{Name: "a", Spec: "text 1 x", Flags: []string{"sticky"}}},
			wantErr: "sticky",
		},
		{
			name:    "odd spec",
			markers: []MarkerConfig{{Name: "a", Spec: "regex 1"}},
			wantErr: "pairs",
		},
		{
			name:    "function without path",
			markers: []MarkerConfig{{Name: "a", Type: marker.TypeFunction}},
			wantErr: "needs a path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarkers(tt.markers)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarkerConfig_Definition(t *testing.T) {
	t.Run("spec string", func(t *testing.T) {
		def, err := MarkerConfig{Name: "todo", Spec: "itext 3 TODO 9 FIXME", Flags: []string{"multiline"}}.Definition()
		require.NoError(t, err)
		require.Equal(t, marker.TypeIText, def.Type)
		require.Equal(t, []marker.Pair{{Color: 3, Pattern: "TODO"}, {Color: 3, Pattern: "FIXME"}}, def.Pairs)
		require.Equal(t, pattern.Multiline, def.Flags)
	})

	t.Run("fields", func(t *testing.T) {
		def, err := MarkerConfig{
			Name:     "nums",
			Type:     marker.TypeRegex,
			Flags:    []string{"i"},
			Patterns: []PatternConfig{{Color: 2, Pattern: `\d+`}},
		}.Definition()
		require.NoError(t, err)
		require.Equal(t, marker.Definition{
			Type:  marker.TypeRegex,
			Pairs: []marker.Pair{{Color: 2, Pattern: `\d+`}},
			Flags: pattern.IgnoreCase,
		}, def)
	})

	t.Run("function", func(t *testing.T) {
		def, err := MarkerConfig{Name: "ws", Type: marker.TypeFunction, Path: "builtin:trailing-whitespace"}.Definition()
		require.NoError(t, err)
		require.Equal(t, "builtin:trailing-whitespace", def.Path)
	})

	t.Run("spec combined with fields", func(t *testing.T) {
		_, err := MarkerConfig{Name: "x", Spec: "text 1 a", Type: marker.TypeText}.Definition()
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot be combined")
	})
}

func TestValidateTheme(t *testing.T) {
	tests := []struct {
		name    string
		theme   ThemeConfig
		wantErr bool
	}{
		{name: "defaults", theme: Defaults().Theme},
		{name: "ansi index", theme: ThemeConfig{Color1: "0", Color2: "255"}},
		{name: "empty falls back", theme: ThemeConfig{}},
		{name: "short hex", theme: ThemeConfig{Color1: "#FFF"}, wantErr: true},
		{name: "bad hex", theme: ThemeConfig{Color2: "#GGGGGG"}, wantErr: true},
		{name: "index out of range", theme: ThemeConfig{Color3: "256"}, wantErr: true},
		{name: "name", theme: ThemeConfig{Color1: "red"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTheme(tt.theme)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateEngine(t *testing.T) {
	require.NoError(t, ValidateEngine(EngineConfig{Timeout: time.Second, Flags: []string{"ignorecase", "s"}}))
	require.Error(t, ValidateEngine(EngineConfig{Timeout: -time.Second}))
	require.Error(t, ValidateEngine(EngineConfig{Flags: []string{"nope"}}))
}

func TestValidate_NegativeTTL(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.TTL = -time.Minute
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache.ttl")
}
