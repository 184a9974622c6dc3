// Package inbox holds the notification state shown to the user and applies
// poll results and acknowledgements to it.
package inbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/freshness"
	"github.com/mobilize-transporte/avisos/internal/logging"
	"github.com/mobilize-transporte/avisos/internal/metrics"
	"github.com/mobilize-transporte/avisos/internal/prefs"
	"github.com/mobilize-transporte/avisos/internal/remote"
)

// Banner strategies accepted by Options.Banner.
const (
	BannerAuto   = "auto"
	BannerList   = "list"
	BannerLegacy = "legacy"
)

// Fetcher lists the notifications currently on the backend.
type Fetcher interface {
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
}

// Recorder receives poll metrics.
type Recorder interface {
	ObservePoll(result string, d time.Duration)
	SetUnread(n int)
	IncAcknowledgements()
}

// Snapshot is an immutable view of the inbox.
type Snapshot struct {
	// Notifications sorted newest first.
	Notifications []domain.Notification
	UnreadCount   int
	// LatestMessage is the banner text from the active strategy.
	LatestMessage string
	Watermark     freshness.Watermark
	// Loaded is set after the first successful poll.
	Loaded      bool
	LastUpdated time.Time
	// LastError is the error of the most recent poll, nil when it succeeded.
	LastError error
	// ListAvailable is false while the backend reports the list endpoint missing.
	ListAvailable bool
	// BannerSource names the strategy that produced LatestMessage.
	BannerSource string
}

func (s Snapshot) clone() Snapshot {
	s.Notifications = domain.CloneAll(s.Notifications)
	return s
}

// Options configures an Inbox.
type Options struct {
	Fetcher Fetcher
	Store   prefs.Store
	// Legacy serves the legacy announcement banner. Optional.
	Legacy freshness.LatestMessageSource
	// Banner is one of BannerAuto, BannerList or BannerLegacy.
	Banner   string
	Recorder Recorder
	Now      func() time.Time
}

// Inbox is safe for concurrent use. Refresh is normally driven by a poller
// while Acknowledge and Snapshot are called from the UI.
type Inbox struct {
	fetcher  Fetcher
	engine   *freshness.Engine
	list     *freshness.ListSource
	auto     *freshness.AutoSource
	banner   freshness.LatestMessageSource
	mode     string
	recorder Recorder
	now      func() time.Time

	mu    sync.RWMutex
	state Snapshot

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// New creates an Inbox. Fetcher and Store are required.
func New(opts Options) *Inbox {
	if opts.Fetcher == nil {
		panic("inbox: fetcher cannot be nil")
	}
	if opts.Store == nil {
		panic("inbox: store cannot be nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Inbox{
		fetcher:  opts.Fetcher,
		engine:   freshness.NewEngine(opts.Store, freshness.WithClock(opts.Now)),
		list:     &freshness.ListSource{},
		recorder: opts.Recorder,
		now:      opts.Now,
		subs:     make(map[chan Snapshot]struct{}),
		state: Snapshot{
			Notifications: []domain.Notification{},
			ListAvailable: true,
		},
	}

	mode := opts.Banner
	if opts.Legacy == nil {
		mode = BannerList
	}
	switch mode {
	case BannerLegacy:
		b.banner = opts.Legacy
	case BannerList:
		b.banner = b.list
	default:
		mode = BannerAuto
		b.auto = &freshness.AutoSource{List: b.list, Legacy: opts.Legacy}
		b.banner = b.auto
	}
	b.mode = mode
	b.state.BannerSource = b.activeBanner()
	return b
}

// Snapshot returns a copy of the current state.
func (b *Inbox) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.clone()
}

// Tick runs Refresh and drops its error; it is a poller.TickFunc.
func (b *Inbox) Tick(ctx context.Context) {
	_ = b.Refresh(ctx)
}

// Refresh performs one poll. A failed poll keeps the last known
// notifications and counts; the error is recorded in the snapshot and
// returned. A missing endpoint is not an error: the list is kept and the
// auto banner switches to the legacy announcement.
func (b *Inbox) Refresh(ctx context.Context) error {
	start := b.now()
	list, err := b.fetcher.ListNotifications(ctx)
	elapsed := b.now().Sub(start)

	if ctx.Err() != nil {
		// Stopped while fetching.
		return ctx.Err()
	}

	switch {
	case errors.Is(err, remote.ErrEndpointUnavailable):
		b.observe(metrics.ResultUnavailable, elapsed)
		if b.auto != nil {
			b.auto.SetListAvailable(false)
		}
		banner := b.banner.LatestMessage(ctx)
		b.update(func(s *Snapshot) {
			s.ListAvailable = false
			s.LastError = nil
			s.LatestMessage = banner
		})
		return nil

	case err != nil:
		b.observe(metrics.ResultFailed, elapsed)
		logging.Warn("notification poll failed", "error", err)
		b.update(func(s *Snapshot) {
			s.LastError = err
		})
		return err
	}

	if b.auto != nil {
		b.auto.SetListAvailable(true)
	}
	result := b.engine.Evaluate(ctx, list)
	b.list.Update(result.LatestMessage)
	banner := b.banner.LatestMessage(ctx)
	b.observe(metrics.ResultOK, elapsed)

	b.update(func(s *Snapshot) {
		// An acknowledgement may have landed while this poll was running.
		w := freshness.Max(result.Watermark, s.Watermark)
		s.Notifications = result.Notifications
		s.Watermark = w
		s.UnreadCount = freshness.CountUnread(result.Notifications, w)
		s.LatestMessage = banner
		s.Loaded = true
		s.LastUpdated = b.now()
		s.LastError = nil
		s.ListAvailable = true
	})
	return nil
}

// Acknowledge marks everything as seen: the watermark advances to now (never
// backwards) and the unread count drops to zero immediately. It never fails;
// storage errors are logged.
func (b *Inbox) Acknowledge(ctx context.Context) {
	w := b.engine.Acknowledge(ctx)
	if b.recorder != nil {
		b.recorder.IncAcknowledgements()
	}
	b.update(func(s *Snapshot) {
		s.Watermark = freshness.Max(w, s.Watermark)
		s.UnreadCount = 0
	})
}

// Subscribe returns a channel receiving the latest snapshot after every
// change, and a function to unsubscribe. Slow readers only see the newest
// snapshot.
func (b *Inbox) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	b.subMu.Lock()
	b.subs[ch] = struct{}{}
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.subMu.Unlock()
		})
	}
}

func (b *Inbox) update(mutate func(*Snapshot)) {
	b.mu.Lock()
	mutate(&b.state)
	b.state.BannerSource = b.activeBanner()
	snap := b.state.clone()
	b.mu.Unlock()

	if b.recorder != nil {
		b.recorder.SetUnread(snap.UnreadCount)
	}
	b.broadcast(snap)
}

func (b *Inbox) broadcast(snap Snapshot) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.clone():
		default:
		}
	}
}

func (b *Inbox) observe(result string, d time.Duration) {
	if b.recorder != nil {
		b.recorder.ObservePoll(result, d)
	}
}

func (b *Inbox) activeBanner() string {
	if b.auto != nil {
		if b.auto.UsingLegacy() {
			return BannerLegacy
		}
		return BannerList
	}
	return b.mode
}
