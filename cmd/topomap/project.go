package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"topomap/core-go/internal/projection"
)

var projectOpts struct {
	lat     float64
	lon     float64
	jsonOut bool
}

var projectCmd = &cobra.Command{
	Use:   "project --lat LAT --lon LON",
	Short: "Project a coordinate onto the calibrated base map",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := projection.GeoCoordinate{Latitude: projectOpts.lat, Longitude: projectOpts.lon}
		p, ok := projection.New(cfg.Map).Project(c)
		if !ok {
			return fmt.Errorf("cannot project %v, %v", c.Latitude, c.Longitude)
		}
		region := projection.Region(c)

		if projectOpts.jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"latitude": c.Latitude, "longitude": c.Longitude, "x": p.X, "y": p.Y, "region": region})
		}
		fmt.Printf("x=%.2f y=%.2f ", p.X, p.Y)
		subtleColor.Printf("(%s)\n", region)
		return nil
	},
}

func init() {
	f := projectCmd.Flags()
	f.Float64Var(&projectOpts.lat, "lat", 0, "latitude in degrees")
	f.Float64Var(&projectOpts.lon, "lon", 0, "longitude in degrees")
	f.BoolVar(&projectOpts.jsonOut, "json", false, "print JSON")
	_ = projectCmd.MarkFlagRequired("lat")
	_ = projectCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(projectCmd)
}
