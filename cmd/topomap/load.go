package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"topomap/core-go/internal/config"
	"topomap/core-go/internal/source"
	"topomap/core-go/internal/topology"
	"topomap/core-go/internal/viewer"
)

func newViewer(cfg *config.Config, src viewer.Source, log zerolog.Logger) *viewer.Viewer {
	return viewer.New(viewer.Options{
		Calibration:      cfg.Map,
		Viewport:         cfg.Viewport,
		PageSize:         cfg.Lists.PageSize,
		Debounce:         cfg.Lists.Debounce,
		HighlightTimeout: cfg.Interaction.HighlightTimeout,
		DragDeadZone:     cfg.Interaction.DragDeadZone,
		Source:           src,
		Log:              log,
	})
}

// topologyName is the positional argument, falling back to sources.default.
func topologyName(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if cfg.Sources.Default != "" {
		return cfg.Sources.Default, nil
	}
	return "", errors.New("no topology given; pass a name or set sources.default")
}

// readDocument decodes a JSON or YAML topology file. The name defaults to the file's base name.
func readDocument(path, name string) (*topology.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc, err := source.Decode(name, path, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// loadViewer returns a viewer showing either the given file or the named topology from the
// configured source. The cleanup releases the viewer and the source.
func loadViewer(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, file string) (*viewer.Viewer, func(), error) {
	if file != "" {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		doc, err := readDocument(file, name)
		if err != nil {
			return nil, func() {}, err
		}
		v := newViewer(cfg, nil, log)
		v.Apply(doc)
		return v, v.Close, nil
	}

	name, err := topologyName(cfg, args)
	if err != nil {
		return nil, func() {}, err
	}
	src, cleanup, err := openSource(ctx, cfg, log, nil)
	if err != nil {
		return nil, cleanup, err
	}
	v := newViewer(cfg, src, log)
	if err := v.Load(ctx, name); err != nil {
		v.Close()
		return nil, cleanup, fmt.Errorf("load %s: %w", name, err)
	}
	return v, func() {
		v.Close()
		cleanup()
	}, nil
}
