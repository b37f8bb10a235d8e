package refresher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBackoffDuration(t *testing.T) {
	base := time.Second
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{6, 64 * time.Second},
		{20, 64 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDuration(base, time.Hour, tc.failures); got != tc.want {
			t.Fatalf("failures=%d: expected %v, got %v", tc.failures, tc.want, got)
		}
	}
	if got := backoffDuration(base, 10*time.Second, 5); got != 10*time.Second {
		t.Fatalf("expected cap at 10s, got %v", got)
	}
	if got := backoffDuration(0, 0, 0); got != DefaultInterval {
		t.Fatalf("expected default interval, got %v", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(zerolog.Nop(), nil, Options{Interval: 10 * time.Minute})
	if r.interval != 10*time.Minute || r.maxBackoff != 10*time.Minute {
		t.Fatalf("unexpected settings interval=%v max=%v", r.interval, r.maxBackoff)
	}
	r = New(zerolog.Nop(), nil, Options{})
	if r.interval != DefaultInterval || r.maxBackoff != DefaultMaxBackoff {
		t.Fatalf("unexpected defaults interval=%v max=%v", r.interval, r.maxBackoff)
	}
}

func TestRun_BacksOffAndRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		calls int
		nexts []time.Duration
	)
	done := make(chan struct{})
	fn := func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= 2 {
			return errors.New("upstream down")
		}
		return nil
	}
	r := New(zerolog.Nop(), fn, Options{
		Interval:   time.Millisecond,
		MaxBackoff: time.Second,
		OnResult: func(_ error, next time.Duration) {
			mu.Lock()
			nexts = append(nexts, next)
			n := len(nexts)
			mu.Unlock()
			if n == 3 {
				cancel()
				close(done)
			}
		},
	})

	go r.Run(ctx)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("refresher did not run three times")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, time.Millisecond}
	for i, w := range want {
		if nexts[i] != w {
			t.Fatalf("attempt %d: expected next %v, got %v", i, w, nexts[i])
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		New(zerolog.Nop(), func(context.Context) error { return nil }, Options{Interval: time.Hour}).Run(ctx)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
