package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"topomap/core-go/internal/httpapi"
	"topomap/core-go/internal/metrics"
	"topomap/core-go/internal/refresher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map API and live viewer sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.HTTPAddr = serveAddr
		}

		logger := httpapi.NewLogger(cfg.Server.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		src, cleanup, err := openSource(ctx, cfg, logger, m)
		defer cleanup()
		if err != nil {
			return err
		}

		h := httpapi.NewHandler(logger, src, httpapi.Options{
			Calibration:      cfg.Map,
			Viewport:         cfg.Viewport,
			PageSize:         cfg.Lists.PageSize,
			Debounce:         cfg.Lists.Debounce,
			HighlightTimeout: cfg.Interaction.HighlightTimeout,
			DragDeadZone:     cfg.Interaction.DragDeadZone,
			Refresh: refresher.Options{
				Interval:   cfg.Refresh.Interval,
				MaxBackoff: cfg.Refresh.MaxBackoff,
			},
			CORSOrigins: cfg.Server.CORSOrigins,
			Metrics:     m,
		})
		srv := &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           h.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("topomap listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal().Err(err).Msg("http server error")
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		logger.Info().Msg("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.http_addr)")
	rootCmd.AddCommand(serveCmd)
}
