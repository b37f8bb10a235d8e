package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"topomap/core-go/internal/config"
	"topomap/core-go/internal/httpapi"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "topomap",
	Short: "Geographic network topology map",
	Long: `topomap projects geolocated network nodes onto a Robinson world map and serves
the resulting overlay, node and link lists and details over HTTP and WebSocket.
The CLI renders the same overlay to SVG and lists topologies from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "topomap.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override server.log_level")
}

// loadConfig reads the config file (missing is fine) plus TOPOMAP_* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// consoleLogger keeps diagnostics on stderr so command output stays clean on stdout.
func consoleLogger(cfg *config.Config) zerolog.Logger {
	return httpapi.NewConsoleLogger(cfg.Server.LogLevel, logLevel != "")
}
