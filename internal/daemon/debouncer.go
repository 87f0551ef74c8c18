package daemon

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of change notifications into single rebuild
// triggers: a rebuild fires after QuietWindow with no new requests, or after
// MaxDelay regardless, so a steady stream of edits cannot postpone a build
// forever.
type Debouncer struct {
	quietWindow time.Duration
	maxDelay    time.Duration
	requests    chan struct{}
	fire        func()
}

// NewDebouncer creates a debouncer that calls fire on each coalesced trigger.
func NewDebouncer(quietWindow, maxDelay time.Duration, fire func()) *Debouncer {
	if quietWindow <= 0 {
		quietWindow = 300 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	return &Debouncer{
		quietWindow: quietWindow,
		maxDelay:    maxDelay,
		requests:    make(chan struct{}, 64),
		fire:        fire,
	}
}

// Request registers a change notification. Never blocks; an already-pending
// trigger absorbs the request.
func (d *Debouncer) Request() {
	select {
	case d.requests <- struct{}{}:
	default:
	}
}

// Run processes requests until ctx is cancelled.
func (d *Debouncer) Run(ctx context.Context) {
	var (
		pending bool
		first   time.Time
		quiet   = newStoppedTimer()
	)
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-d.requests:
			now := time.Now()
			if !pending {
				pending = true
				first = now
			}
			delay := d.quietWindow
			if remaining := d.maxDelay - now.Sub(first); remaining < delay {
				delay = remaining
			}
			if delay < 0 {
				delay = 0
			}
			resetTimer(quiet, delay)

		case <-quiet.C:
			if pending {
				pending = false
				d.fire()
			}
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
