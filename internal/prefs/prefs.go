// Package prefs provides the durable per-device key-value store that holds
// the read watermark and the legacy announcement.
package prefs

import (
	"context"
	"errors"
)

// Keys shared with the mobile client's local storage.
const (
	KeyLastSeen         = "notifications_last_seen"
	KeyAdminMessage     = "adminMessage"
	KeyAdminMessageTime = "adminMessageTime"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("preference not found")
	// ErrUnknownBackend indicates an unsupported prefs_backend value.
	ErrUnknownBackend = errors.New("unknown preference backend")
)

// Store is a string key-value store with last-write-wins semantics per key.
type Store interface {
	// Get returns ErrNotFound when the key has never been set or was removed.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the keys. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
	Close() error
}
