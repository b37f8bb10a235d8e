package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"topomap/core-go/internal/config"
	"topomap/core-go/internal/db"
	"topomap/core-go/internal/metrics"
	"topomap/core-go/internal/snapshot"
	"topomap/core-go/internal/source"
)

// openSource builds the configured topology source. The returned cleanup is safe to call
// even when err is non-nil.
func openSource(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (source.Source, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	s := cfg.Sources
	var src source.Source
	switch {
	case s.DatabaseURL != "":
		pool, err := openDatabase(ctx, s.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		src = source.NewPostgres(pool.Queries(), pool.Ping)
		log.Info().Msg("serving topologies from postgres")
	case s.URL != "":
		h := source.NewHTTP(s.URL, nil)
		if s.Token != "" {
			h.Header = http.Header{}
			h.Header.Set("Authorization", "Bearer "+s.Token)
		}
		src = h
		log.Info().Str("url", s.URL).Msg("serving topologies from http")
	default:
		src = source.NewDir(s.Dir)
		log.Info().Str("dir", s.Dir).Msg("serving topologies from directory")
	}

	if s.CachePath != "" {
		cache, err := snapshot.Open(s.CachePath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open snapshot cache: %w", err)
		}
		closers = append(closers, func() { _ = cache.Close() })
		src = source.NewCached(src, cache, log, m)
	}
	return src, cleanup, nil
}

func openDatabase(ctx context.Context, databaseURL string) (*db.Pool, error) {
	pool, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return pool, nil
}
