package config

import (
	"time"

	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/viewport"
)

// Config is the top-level service configuration, corresponding to topomap.yaml.
type Config struct {
	Server      ServerConfig           `yaml:"server" koanf:"server"`
	Sources     SourcesConfig          `yaml:"sources" koanf:"sources"`
	Map         projection.Calibration `yaml:"map" koanf:"map"`
	Viewport    viewport.Config        `yaml:"viewport" koanf:"viewport"`
	Lists       ListsConfig            `yaml:"lists" koanf:"lists"`
	Interaction InteractionConfig      `yaml:"interaction" koanf:"interaction"`
	Refresh     RefreshConfig          `yaml:"refresh" koanf:"refresh"`
}

type ServerConfig struct {
	HTTPAddr    string   `yaml:"http_addr" koanf:"http_addr"`
	LogLevel    string   `yaml:"log_level" koanf:"log_level"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// SourcesConfig picks where topologies come from. The first non-empty of DatabaseURL, URL and
// Dir wins; CachePath adds a snapshot fallback in front of it.
type SourcesConfig struct {
	Dir         string `yaml:"dir" koanf:"dir"`
	URL         string `yaml:"url" koanf:"url"`
	Token       string `yaml:"token" koanf:"token"`
	DatabaseURL string `yaml:"database_url" koanf:"database_url"`
	CachePath   string `yaml:"cache_path" koanf:"cache_path"`
	Default     string `yaml:"default" koanf:"default"`
}

type ListsConfig struct {
	PageSize int           `yaml:"page_size" koanf:"page_size"`
	Debounce time.Duration `yaml:"debounce" koanf:"debounce"`
}

type InteractionConfig struct {
	HighlightTimeout time.Duration `yaml:"highlight_timeout" koanf:"highlight_timeout"`
	DragDeadZone     float64       `yaml:"drag_dead_zone" koanf:"drag_dead_zone"`
}

// RefreshConfig controls live sessions. A zero Interval disables periodic reloads.
type RefreshConfig struct {
	Interval   time.Duration `yaml:"interval" koanf:"interval"`
	MaxBackoff time.Duration `yaml:"max_backoff" koanf:"max_backoff"`
}
