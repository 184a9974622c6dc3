// Package domain provides the notification types shared by the avisos packages.
package domain

import "time"

// DefaultTitle is used when the backend record carries no title.
const DefaultTitle = "Aviso"

// Notification is the canonical notification record after normalization.
type Notification struct {
	ID        string
	Title     string
	Body      string
	CreatedAt *time.Time
}

// HasTimestamp reports whether the record carries a parseable creation date.
func (n Notification) HasTimestamp() bool {
	return n.CreatedAt != nil
}

// CreatedAtMillis returns the creation time in epoch milliseconds.
// Records without a timestamp sort as if created at the epoch, so 0 is returned.
func (n Notification) CreatedAtMillis() int64 {
	if n.CreatedAt == nil {
		return 0
	}
	return n.CreatedAt.UnixMilli()
}

// IsNewerThan reports whether the record was created strictly after the
// watermark. Records without a timestamp are never newer.
func (n Notification) IsNewerThan(watermark time.Time) bool {
	if n.CreatedAt == nil {
		return false
	}
	return n.CreatedAt.UnixMilli() > watermark.UnixMilli()
}

// Clone returns a deep copy so snapshots handed to callers cannot alias
// internal state.
func (n Notification) Clone() Notification {
	if n.CreatedAt != nil {
		t := *n.CreatedAt
		n.CreatedAt = &t
	}
	return n
}

// CloneAll deep-copies a slice of notifications. A nil slice yields an empty one.
func CloneAll(notifs []Notification) []Notification {
	out := make([]Notification, len(notifs))
	for i, n := range notifs {
		out[i] = n.Clone()
	}
	return out
}
