package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"topomap/core-go/internal/clock"
	"topomap/core-go/internal/metrics"
	"topomap/core-go/internal/snapshot"
	"topomap/core-go/internal/topology"
)

// Snapshots is the subset of snapshot.Cache used by Cached.
type Snapshots interface {
	Put(ctx context.Context, doc *topology.Document, at time.Time) error
	Get(ctx context.Context, name string) (snapshot.Entry, error)
	List(ctx context.Context) ([]topology.Descriptor, error)
}

// Cached stores every successful fetch from Inner and serves the stored copy when Inner fails.
// Documents served from the cache carry a warning saying how old they are.
type Cached struct {
	Inner   Source
	Cache   Snapshots
	Clock   clock.Clock
	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

func NewCached(inner Source, cache Snapshots, log zerolog.Logger, m *metrics.Metrics) *Cached {
	return &Cached{Inner: inner, Cache: cache, Clock: clock.Real{}, Log: log, Metrics: m}
}

func (c *Cached) List(ctx context.Context) ([]topology.Descriptor, error) {
	list, err := c.Inner.List(ctx)
	if err == nil {
		return list, nil
	}
	cached, cerr := c.Cache.List(ctx)
	if cerr != nil || len(cached) == 0 {
		return nil, err
	}
	c.Log.Warn().Err(err).Int("cached", len(cached)).Msg("topology list unavailable; serving cached catalog")
	return cached, nil
}

func (c *Cached) Fetch(ctx context.Context, name string) (*topology.Document, error) {
	start := c.now()
	doc, err := c.Inner.Fetch(ctx, name)
	if err == nil {
		if perr := c.Cache.Put(ctx, doc, c.now()); perr != nil {
			c.Log.Warn().Err(perr).Str("topology", name).Msg("failed to store topology snapshot")
		}
		return doc, nil
	}
	if errors.Is(err, ErrTopologyNotFound) || ctx.Err() != nil {
		return nil, err
	}

	entry, cerr := c.Cache.Get(ctx, name)
	if cerr != nil {
		if !errors.Is(cerr, snapshot.ErrMiss) {
			c.Log.Warn().Err(cerr).Str("topology", name).Msg("failed to read topology snapshot")
		}
		return nil, err
	}

	c.Metrics.ObserveLoad(metrics.LoadFallback, c.now().Sub(start))
	c.Log.Warn().Err(err).Str("topology", name).Time("saved_at", entry.SavedAt).Msg("serving cached topology")
	entry.Document.Warnings = append(entry.Document.Warnings,
		fmt.Sprintf("served from cache saved at %s: %v", entry.SavedAt.UTC().Format(time.RFC3339), err))
	return entry.Document, nil
}

func (c *Cached) Ping(ctx context.Context) error {
	return Ping(ctx, c.Inner)
}

func (c *Cached) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}
