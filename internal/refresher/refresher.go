// Package refresher reloads a topology on a fixed interval, backing off while reloads fail.
package refresher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultInterval   = 30 * time.Second
	DefaultMaxBackoff = 5 * time.Minute
)

// Func performs one reload.
type Func func(ctx context.Context) error

type Options struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	// OnResult, when set, sees every reload result and the delay until the next attempt.
	OnResult func(err error, next time.Duration)
}

type Refresher struct {
	log        zerolog.Logger
	fn         Func
	interval   time.Duration
	maxBackoff time.Duration
	onResult   func(error, time.Duration)
}

func New(log zerolog.Logger, fn Func, opts Options) *Refresher {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}
	if maxBackoff < interval {
		maxBackoff = interval
	}
	return &Refresher{
		log:        log,
		fn:         fn,
		interval:   interval,
		maxBackoff: maxBackoff,
		onResult:   opts.OnResult,
	}
}

// Run reloads every interval until ctx is done. The first reload happens one interval after
// Run starts.
func (r *Refresher) Run(ctx context.Context) {
	if r == nil || r.fn == nil {
		return
	}

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		err := r.fn(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			consecutiveFailures++
			r.log.Warn().Err(err).Int("failures", consecutiveFailures).Msg("topology refresh failed")
		} else {
			consecutiveFailures = 0
		}

		next := backoffDuration(r.interval, r.maxBackoff, consecutiveFailures)
		if r.onResult != nil {
			r.onResult(err, next)
		}
		timer.Reset(next)
	}
}

func backoffDuration(base, limit time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = DefaultInterval
	}
	if failures <= 0 {
		return base
	}

	// Exponential-ish backoff: base * 2^failures, capped.
	if failures > 6 {
		failures = 6
	}
	d := base * time.Duration(1<<failures)
	if limit > 0 && d > limit {
		return limit
	}
	return d
}
