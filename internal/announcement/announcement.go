// Package announcement implements the legacy single-message banner that an
// administrator publishes locally and that expires after a short TTL.
package announcement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mobilize-transporte/avisos/internal/logging"
	"github.com/mobilize-transporte/avisos/internal/prefs"
)

// DefaultTTL is how long a published announcement stays visible.
const DefaultTTL = 5 * time.Minute

// ErrEmptyMessage is returned when publishing a blank message.
var ErrEmptyMessage = errors.New("announcement message cannot be empty")

// Announcement is the stored legacy banner.
type Announcement struct {
	Message string
	// PublishedAt is in epoch milliseconds; 0 when unknown.
	PublishedAt int64
}

// Expired reports whether the announcement is older than ttl at now.
func (a Announcement) Expired(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-a.PublishedAt > ttl.Milliseconds()
}

// ExpiresAt returns when the announcement stops being shown.
func (a Announcement) ExpiresAt(ttl time.Duration) time.Time {
	return time.UnixMilli(a.PublishedAt).Add(ttl)
}

// Source reads and writes the legacy announcement and serves it as banner text.
type Source struct {
	store prefs.Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// NewSource creates a Source backed by store.
func NewSource(store prefs.Store, opts ...Option) *Source {
	if store == nil {
		panic("announcement: store cannot be nil")
	}
	s := &Source{store: store, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured expiry.
func (s *Source) TTL() time.Duration { return s.ttl }

// Load returns the current announcement. Expired entries, including those
// without a readable publication time, are purged and reported as absent.
func (s *Source) Load(ctx context.Context) (Announcement, bool, error) {
	message, err := s.get(ctx, prefs.KeyAdminMessage)
	if err != nil {
		return Announcement{}, false, err
	}
	if message == "" {
		return Announcement{}, false, nil
	}
	rawTime, err := s.get(ctx, prefs.KeyAdminMessageTime)
	if err != nil {
		return Announcement{}, false, err
	}

	a := Announcement{Message: message}
	if n, parseErr := strconv.ParseInt(strings.TrimSpace(rawTime), 10, 64); parseErr == nil {
		a.PublishedAt = n
	}

	if a.Expired(s.now(), s.ttl) {
		if err := s.Clear(ctx); err != nil {
			logging.Warn("failed to purge expired announcement", "error", err)
		}
		return Announcement{}, false, nil
	}
	return a, true, nil
}

// Publish stores message, trimmed, stamped with the current time.
func (s *Source) Publish(ctx context.Context, message string) (Announcement, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Announcement{}, ErrEmptyMessage
	}
	a := Announcement{Message: trimmed, PublishedAt: s.now().UnixMilli()}
	if err := s.store.Set(ctx, prefs.KeyAdminMessage, a.Message); err != nil {
		return Announcement{}, fmt.Errorf("publish announcement: %w", err)
	}
	if err := s.store.Set(ctx, prefs.KeyAdminMessageTime, strconv.FormatInt(a.PublishedAt, 10)); err != nil {
		return Announcement{}, fmt.Errorf("publish announcement: %w", err)
	}
	return a, nil
}

// Clear removes the announcement.
func (s *Source) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, prefs.KeyAdminMessage, prefs.KeyAdminMessageTime); err != nil {
		return fmt.Errorf("clear announcement: %w", err)
	}
	return nil
}

// LatestMessage returns the announcement text, or "" when absent, expired or
// unreadable.
func (s *Source) LatestMessage(ctx context.Context) string {
	a, ok, err := s.Load(ctx)
	if err != nil {
		logging.Warn("failed to load announcement", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return a.Message
}

func (s *Source) get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, prefs.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load announcement: %w", err)
	}
	return v, nil
}
