package freshness

import (
	"context"
	"sync"
	"sync/atomic"
)

// LatestMessageSource supplies the banner text.
type LatestMessageSource interface {
	LatestMessage(ctx context.Context) string
}

// ListSource serves the latest message of the last list snapshot.
type ListSource struct {
	mu     sync.RWMutex
	latest string
}

// Update records the latest message of a new snapshot.
func (s *ListSource) Update(latest string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = latest
}

func (s *ListSource) LatestMessage(context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// AutoSource uses List while the backend serves the notification list and
// Legacy once the backend reports that the list endpoint does not exist.
type AutoSource struct {
	List   LatestMessageSource
	Legacy LatestMessageSource

	legacyMode atomic.Bool
}

// SetListAvailable switches between the list and legacy strategies.
func (s *AutoSource) SetListAvailable(available bool) {
	s.legacyMode.Store(!available)
}

// UsingLegacy reports whether the legacy strategy is active.
func (s *AutoSource) UsingLegacy() bool {
	return s.legacyMode.Load()
}

func (s *AutoSource) LatestMessage(ctx context.Context) string {
	if s.legacyMode.Load() {
		return s.Legacy.LatestMessage(ctx)
	}
	return s.List.LatestMessage(ctx)
}
