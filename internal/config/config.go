// Package config loads service settings from a YAML file with TOPOMAP_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const EnvPrefix = "TOPOMAP_"

// Load reads configuration from the given YAML file, then overlays environment variable
// overrides. A double underscore separates nesting levels: TOPOMAP_SERVER__HTTP_ADDR sets
// server.http_addr. A missing file yields defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Comma-separated origins from the environment arrive as one string.
	if len(cfg.Server.CORSOrigins) == 1 && strings.Contains(cfg.Server.CORSOrigins[0], ",") {
		cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins[0])
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.HTTPAddr) == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Sources.Dir == "" && c.Sources.URL == "" && c.Sources.DatabaseURL == "" {
		return fmt.Errorf("one of sources.dir, sources.url or sources.database_url is required")
	}

	m := c.Map
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("map.width and map.height must be positive")
	}
	if m.EastScale <= 0 || m.WestScale <= 0 || m.NorthScale <= 0 || m.SouthScale <= 0 {
		return fmt.Errorf("map scales must be positive")
	}

	v := c.Viewport
	if v.MinZoom <= 0 || v.MaxZoom < v.MinZoom {
		return fmt.Errorf("viewport zoom bounds must satisfy 0 < min_zoom <= max_zoom")
	}
	if v.MinZoom > 1 || v.MaxZoom < 1 {
		return fmt.Errorf("viewport zoom bounds must include 1")
	}
	if v.Step <= 1 {
		return fmt.Errorf("viewport.step must be greater than 1")
	}
	if v.Content.Width <= 0 || v.Content.Height <= 0 || v.Container.Width <= 0 || v.Container.Height <= 0 {
		return fmt.Errorf("viewport content and container sizes must be positive")
	}

	if c.Lists.PageSize <= 0 {
		return fmt.Errorf("lists.page_size must be positive")
	}
	if c.Lists.Debounce < 0 {
		return fmt.Errorf("lists.debounce must be non-negative")
	}
	if c.Interaction.HighlightTimeout <= 0 {
		return fmt.Errorf("interaction.highlight_timeout must be positive")
	}
	if c.Interaction.DragDeadZone < 0 {
		return fmt.Errorf("interaction.drag_dead_zone must be non-negative")
	}
	if c.Refresh.Interval < 0 || c.Refresh.MaxBackoff < 0 {
		return fmt.Errorf("refresh durations must be non-negative")
	}
	return nil
}
