package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"topomap/core-go/internal/scene"
	"topomap/core-go/internal/viewport"
)

var renderOpts struct {
	out       string
	file      string
	zoom      float64
	panX      float64
	panY      float64
	noLinks   bool
	reference bool
}

var renderCmd = &cobra.Command{
	Use:   "render [topology]",
	Short: "Render a topology overlay to SVG",
	Long: `Render draws the node markers and link strokes of a topology as an SVG overlay
whose viewBox matches the base map. The topology comes from the configured source,
or from --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := consoleLogger(cfg)

		v, cleanup, err := loadViewer(cmd.Context(), cfg, log, args, renderOpts.file)
		defer cleanup()
		if err != nil {
			return err
		}

		v.Viewport().Restore(viewport.State{
			Zoom: renderOpts.zoom,
			Pan:  viewport.Offset{DX: renderOpts.panX, DY: renderOpts.panY},
		})
		if renderOpts.noLinks {
			v.ToggleLinks()
		}

		svg := scene.NewSVG(cfg.Map.Width, cfg.Map.Height)
		if renderOpts.reference {
			p := v.Viewport().Transform().Apply(cfg.Map.Center())
			svg.Reference = &p
		}
		stats := v.RenderTo(svg)

		out := os.Stdout
		if renderOpts.out != "" && renderOpts.out != "-" {
			f, err := os.Create(renderOpts.out)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if _, err := svg.WriteTo(out); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}

		fmt.Fprintf(os.Stderr, "%s: %d markers, %d links", v.Graph().Name(), stats.Markers, stats.Strokes)
		if stats.SkippedNodes > 0 || stats.SkippedLinks > 0 {
			fmt.Fprintf(os.Stderr, " (%d nodes and %d links without a position)", stats.SkippedNodes, stats.SkippedLinks)
		}
		fmt.Fprintln(os.Stderr)
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&renderOpts.file, "file", "", "render a JSON or YAML topology file instead of the configured source")
	f.Float64Var(&renderOpts.zoom, "zoom", 1, "zoom factor, clamped to viewport bounds")
	f.Float64Var(&renderOpts.panX, "pan-x", 0, "horizontal pan offset")
	f.Float64Var(&renderOpts.panY, "pan-y", 0, "vertical pan offset")
	f.BoolVar(&renderOpts.noLinks, "no-links", false, "draw nodes only")
	f.BoolVar(&renderOpts.reference, "reference", false, "mark the projected 0,0 reference point")
	rootCmd.AddCommand(renderCmd)
}
