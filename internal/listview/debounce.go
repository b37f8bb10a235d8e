package listview

import (
	"sync"
	"time"

	"topomap/core-go/internal/clock"
)

const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs the most recent call after a quiet period. Each Call cancels the pending one.
type Debouncer struct {
	clk   clock.Clock
	delay time.Duration

	mu      sync.Mutex
	pending clock.Timer
	seq     uint64
}

func NewDebouncer(clk clock.Clock, delay time.Duration) *Debouncer {
	if clk == nil {
		clk = clock.Real{}
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clk: clk, delay: delay}
}

func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = d.clk.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending call and reports whether one was stopped.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.pending == nil {
		return false
	}
	stopped := d.pending.Stop()
	d.pending = nil
	return stopped
}
