package freshness

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/logging"
	"github.com/mobilize-transporte/avisos/internal/prefs"
)

// LoadWatermark reads the persisted watermark. A missing or malformed value
// reports ok=false; only storage failures return an error.
func LoadWatermark(ctx context.Context, store prefs.Store) (w Watermark, ok bool, err error) {
	raw, err := store.Get(ctx, prefs.KeyLastSeen)
	if errors.Is(err, prefs.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load watermark: %w", err)
	}
	n, parseErr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if parseErr != nil || n < 0 {
		logging.Warn("ignoring malformed watermark", "key", prefs.KeyLastSeen, "value", raw)
		return 0, false, nil
	}
	return Watermark(n), true, nil
}

// SeedWatermark persists the initial watermark for sorted and returns it.
// The returned watermark is valid even when persisting fails.
func SeedWatermark(ctx context.Context, store prefs.Store, sorted []domain.Notification, now time.Time) (Watermark, error) {
	w := SeedFor(sorted, now)
	if err := store.Set(ctx, prefs.KeyLastSeen, strconv.FormatInt(int64(w), 10)); err != nil {
		return w, fmt.Errorf("seed watermark: %w", err)
	}
	return w, nil
}

// AdvanceWatermark persists max(now, current) and returns it. The returned
// watermark is valid even when persisting fails.
func AdvanceWatermark(ctx context.Context, store prefs.Store, current Watermark, now time.Time) (Watermark, error) {
	w := Max(WatermarkAt(now), current)
	if err := store.Set(ctx, prefs.KeyLastSeen, strconv.FormatInt(int64(w), 10)); err != nil {
		return w, fmt.Errorf("advance watermark: %w", err)
	}
	return w, nil
}

// Engine evaluates polls against the persisted watermark. It serializes
// seeding and acknowledgement so the stored watermark never decreases, and
// remembers the last watermark it saw so storage outages fall back to it.
type Engine struct {
	store prefs.Store
	now   func() time.Time

	mu    sync.Mutex
	known Watermark
	hasWM bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store prefs.Store, opts ...Option) *Engine {
	if store == nil {
		panic("freshness: store cannot be nil")
	}
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the result of a successful fetch. The first successful
// evaluation on a device seeds the watermark, so it reports zero unread.
func (e *Engine) Evaluate(ctx context.Context, list []domain.Notification) Result {
	sorted := Sort(list)

	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.current(ctx)
	seeded := false
	if !ok {
		var err error
		w, err = SeedWatermark(ctx, e.store, sorted, e.now())
		if err != nil {
			logging.Warn("failed to persist watermark", "error", err)
		}
		e.remember(w)
		seeded = true
	}

	return Result{
		Notifications: sorted,
		LatestMessage: LatestMessage(sorted),
		UnreadCount:   CountUnread(sorted, w),
		Watermark:     w,
		Seeded:        seeded,
	}
}

// Acknowledge advances the watermark to max(now, current) and returns it.
// Storage failures are logged; the returned watermark still advances.
func (e *Engine) Acknowledge(ctx context.Context) Watermark {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, _ := e.current(ctx)
	w, err := AdvanceWatermark(ctx, e.store, current, e.now())
	if err != nil {
		logging.Warn("failed to persist acknowledgement", "error", err)
	}
	e.remember(w)
	return w
}

// Watermark returns the current watermark, if any is known.
func (e *Engine) Watermark(ctx context.Context) (Watermark, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current(ctx)
}

// current must be called with mu held.
func (e *Engine) current(ctx context.Context) (Watermark, bool) {
	w, ok, err := LoadWatermark(ctx, e.store)
	if err != nil {
		logging.Warn("failed to read watermark, using last known value", "error", err)
		return e.known, e.hasWM
	}
	if !ok {
		return 0, false
	}
	// Another process may have written an older value; never go backwards.
	if e.hasWM && e.known > w {
		w = e.known
	}
	e.remember(w)
	return w, true
}

func (e *Engine) remember(w Watermark) {
	if !e.hasWM || w > e.known {
		e.known = w
	}
	e.hasWM = true
}
