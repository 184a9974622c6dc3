// Package devserver is an in-memory notification backend for local
// development and end-to-end tests.
package devserver

import (
	"crypto/rand"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TimestampLayout is the created_at format the production backend emits.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrNotFound is returned for unknown notification ids.
var ErrNotFound = errors.New("notification not found")

// Record is a stored notification in the backend's wire format.
type Record struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Title     string `json:"titulo"`
	Body      string `json:"mensagem"`
	CreatedAt string `json:"created_at"`
	Read      bool   `json:"lido"`
}

// Store keeps notifications in memory.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	entropy io.Reader
	now     func() time.Time
}

// NewStore creates an empty store. A nil now uses time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		records: make(map[string]Record),
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     now,
	}
}

// Create stores a new notification and returns it.
func (s *Store) Create(recipient, title, body string, read bool) Record {
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{
		// Monotonic entropy keeps ids ordered within one millisecond.
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Recipient: recipient,
		Title:     title,
		Body:      body,
		CreatedAt: now.Format(TimestampLayout),
		Read:      read,
	}
	s.records[rec.ID] = rec
	return rec
}

// List returns every notification, newest first.
func (s *Store) List() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	// ULIDs sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// MarkRead sets the read flag of one notification.
func (s *Store) MarkRead(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Read = true
	s.records[id] = rec
	return rec, nil
}
