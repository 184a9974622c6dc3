// Package poller runs a function immediately and then on a fixed period
// until stopped.
package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mobilize-transporte/avisos/internal/logging"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 5 * time.Second

// TickFunc performs one evaluation. ctx is cancelled by Stop; work that
// finishes after cancellation should discard its result.
type TickFunc func(ctx context.Context)

// Poller schedules ticks on a single goroutine, so ticks never overlap.
type Poller struct {
	tick     TickFunc
	interval time.Duration
	tickChan <-chan time.Time

	triggerCh chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling period. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTickChan replaces the internal ticker, for tests.
func WithTickChan(ch <-chan time.Time) Option {
	return func(p *Poller) { p.tickChan = ch }
}

// New creates a stopped Poller.
func New(tick TickFunc, opts ...Option) *Poller {
	if tick == nil {
		panic("poller: tick function cannot be nil")
	}
	p := &Poller{
		tick:      tick,
		interval:  DefaultInterval,
		triggerCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Start runs one tick immediately and then one per interval. Starting a
// running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	// Drop triggers requested while stopped.
	select {
	case <-p.triggerCh:
	default:
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.running = true
	p.cancel = cancel
	p.done = done

	var (
		tickChan <-chan time.Time
		stopTick = func() {}
	)
	if p.tickChan != nil {
		tickChan = p.tickChan
	} else {
		ticker := time.NewTicker(p.interval)
		tickChan = ticker.C
		stopTick = ticker.Stop
	}

	go func() {
		defer close(done)
		defer stopTick()
		p.loop(loopCtx, tickChan)
	}()
}

// Stop cancels the loop and waits for an in-flight tick to return. No tick
// starts after Stop returns. Stop must not be called from inside a tick.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger requests an immediate tick without blocking. Requests made while
// one is already pending are dropped.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context, tickChan <-chan time.Time) {
	p.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tickChan:
		case <-p.triggerCh:
		}
		if ctx.Err() != nil {
			return
		}
		p.runTick(ctx)
	}
}

func (p *Poller) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("poll tick panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	p.tick(ctx)
}
