package config

import (
	"topomap/core-go/internal/interaction"
	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/refresher"
	"topomap/core-go/internal/viewport"
)

// DefaultConfig reproduces the bundled map asset and dashboard behaviour.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: ":8081",
			LogLevel: "info",
		},
		Sources: SourcesConfig{
			Dir: "topologies",
		},
		Map:      projection.DefaultCalibration(),
		Viewport: viewport.DefaultConfig(),
		Lists: ListsConfig{
			PageSize: listview.DefaultPageSize,
			Debounce: listview.DefaultDebounce,
		},
		Interaction: InteractionConfig{
			HighlightTimeout: interaction.DefaultHighlightTimeout,
			DragDeadZone:     interaction.DefaultDragDeadZone,
		},
		Refresh: RefreshConfig{
			MaxBackoff: refresher.DefaultMaxBackoff,
		},
	}
}
