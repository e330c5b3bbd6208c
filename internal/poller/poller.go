// Package poller implements the client-side sync loop. Clients learn of
// consultation and message changes by polling on a fixed interval; there
// is no push channel. Failed fetches back off exponentially so an
// unreachable server is not hammered.
package poller

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default loop timings.
const (
	DefaultInterval   = 5 * time.Second
	DefaultMaxBackoff = 2 * time.Minute
)

// Fetch retrieves the current snapshot. It is called once per cycle; the
// returned value is compared against the previous one for change
// detection.
type Fetch func(ctx context.Context) (interface{}, error)

// Poller drives a Fetch on a fixed interval and reports changed
// snapshots. An error doubles the wait up to MaxBackoff; the next
// success resets it to Interval.
type Poller struct {
	fetch      Fetch
	interval   time.Duration
	maxBackoff time.Duration
	onChange   func(interface{})
	logger     *zap.Logger

	mu   sync.Mutex
	last interface{}
	seen bool
}

// Opts holds parameters for creating a Poller.
type Opts struct {
	Fetch      Fetch
	Interval   time.Duration     // defaults to DefaultInterval
	MaxBackoff time.Duration     // defaults to DefaultMaxBackoff
	OnChange   func(interface{}) // called with each changed snapshot
	Logger     *zap.Logger       // defaults to a nop logger
}

// New creates a Poller.
func New(opts Opts) (*Poller, error) {
	if opts.Fetch == nil {
		return nil, fmt.Errorf("poller: fetch is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff < interval {
		maxBackoff = DefaultMaxBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetch:      opts.Fetch,
		interval:   interval,
		maxBackoff: maxBackoff,
		onChange:   opts.OnChange,
		logger:     logger,
	}, nil
}

// Poll runs one cycle: fetch, compare against the previous snapshot, and
// report whether it changed. The first successful fetch always counts as
// a change.
func (p *Poller) Poll(ctx context.Context) (interface{}, bool, error) {
	snapshot, err := p.fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen && reflect.DeepEqual(p.last, snapshot) {
		return snapshot, false, nil
	}
	p.last = snapshot
	p.seen = true
	return snapshot, true, nil
}

// Run starts the loop and blocks until the context is cancelled. Changed
// snapshots are delivered through OnChange.
func (p *Poller) Run(ctx context.Context) {
	wait := p.interval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		snapshot, changed, err := p.Poll(ctx)
		if err != nil {
			wait *= 2
			if wait > p.maxBackoff {
				wait = p.maxBackoff
			}
			p.logger.Warn("poll failed, backing off",
				zap.Duration("next", wait), zap.Error(err))
		} else {
			wait = p.interval
			if changed && p.onChange != nil {
				p.onChange(snapshot)
			}
		}
		timer.Reset(wait)
	}
}

// Last returns the most recent snapshot, or nil before the first
// successful poll.
func (p *Poller) Last() interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
