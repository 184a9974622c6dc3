// Package freshness computes what the device has not seen yet: the sorted
// notification list, the banner message and the unread count relative to the
// persisted read watermark.
package freshness

import (
	"sort"
	"time"

	"github.com/mobilize-transporte/avisos/internal/domain"
)

// Watermark is the read watermark in epoch milliseconds. Every record created
// strictly after it is unread.
type Watermark int64

// WatermarkAt converts a time into a Watermark.
func WatermarkAt(t time.Time) Watermark {
	return Watermark(t.UnixMilli())
}

// Time returns the watermark as a UTC time.
func (w Watermark) Time() time.Time {
	return time.UnixMilli(int64(w)).UTC()
}

// Max returns the later of two watermarks.
func Max(a, b Watermark) Watermark {
	if a > b {
		return a
	}
	return b
}

// Result is the outcome of evaluating one poll.
type Result struct {
	// Notifications sorted newest first.
	Notifications []domain.Notification
	// LatestMessage is the body of the newest notification, or "".
	LatestMessage string
	UnreadCount   int
	// Watermark the unread count was computed against.
	Watermark Watermark
	// Seeded is set when this evaluation created the watermark.
	Seeded bool
}

// Sort returns a copy of the list ordered by creation time, newest first.
// Records without a timestamp sort as the epoch; ties keep input order.
func Sort(list []domain.Notification) []domain.Notification {
	sorted := domain.CloneAll(list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAtMillis() > sorted[j].CreatedAtMillis()
	})
	return sorted
}

// LatestMessage returns the body of the first record of a sorted list.
func LatestMessage(sorted []domain.Notification) string {
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0].Body
}

// CountUnread counts records with a timestamp strictly after the watermark.
func CountUnread(list []domain.Notification, w Watermark) int {
	at := w.Time()
	count := 0
	for _, n := range list {
		if n.IsNewerThan(at) {
			count++
		}
	}
	return count
}

// SeedFor returns the initial watermark for a first-ever poll: the newest
// record's timestamp, or now when no record carries one.
func SeedFor(sorted []domain.Notification, now time.Time) Watermark {
	if len(sorted) > 0 && sorted[0].HasTimestamp() {
		return Watermark(sorted[0].CreatedAtMillis())
	}
	return WatermarkAt(now)
}

// Evaluate sorts the list and computes banner and unread count against w.
// It is pure.
func Evaluate(list []domain.Notification, w Watermark) Result {
	sorted := Sort(list)
	return Result{
		Notifications: sorted,
		LatestMessage: LatestMessage(sorted),
		UnreadCount:   CountUnread(sorted, w),
		Watermark:     w,
	}
}
