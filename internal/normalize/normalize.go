// Package normalize maps heterogeneous backend notification payloads onto
// domain.Notification. Nothing in this package returns an error: malformed
// input degrades to an empty list or to records without a timestamp.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mobilize-transporte/avisos/internal/domain"
)

// Field name candidates, tried in order. The first present value wins.
var (
	ListFields      = []string{"notificacoes", "notifications"}
	IDFields        = []string{"id", "_id"}
	TitleFields     = []string{"titulo", "title"}
	BodyFields      = []string{"mensagem", "message", "texto", "body"}
	CreatedAtFields = []string{"created_at", "createdAt", "timestamp", "data", "date"}
)

// timestampLayouts are tried after the first space has been turned into a T.
// Layouts without a zone parse as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// newFallbackID generates ids for records that arrive without one. Tests replace it.
var newFallbackID = uuid.NewString

// DecodeBody decodes a raw HTTP body and normalizes it.
// Invalid JSON yields an empty list.
func DecodeBody(body []byte) []domain.Notification {
	payload, ok := decode(body)
	if !ok {
		return []domain.Notification{}
	}
	return Normalize(payload)
}

// DecodeRecord decodes a single JSON object body into a notification.
func DecodeRecord(body []byte) (domain.Notification, bool) {
	payload, ok := decode(body)
	if !ok {
		return domain.Notification{}, false
	}
	record, ok := payload.(map[string]any)
	if !ok {
		return domain.Notification{}, false
	}
	return Record(record), true
}

func decode(body []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, false
	}
	return payload, true
}

// Normalize accepts a bare sequence of records or an object wrapping one under
// a known field name. Any other shape normalizes to an empty list.
// Non-object entries are skipped and duplicate ids keep their first occurrence.
func Normalize(payload any) []domain.Notification {
	items := extractList(payload)
	out := make([]domain.Notification, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		n := Record(record)
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

func extractList(payload any) []any {
	switch typed := payload.(type) {
	case []any:
		return typed
	case []map[string]any:
		items := make([]any, len(typed))
		for i, m := range typed {
			items[i] = m
		}
		return items
	case map[string]any:
		for _, field := range ListFields {
			if list, ok := typed[field].([]any); ok {
				return list
			}
		}
	}
	return nil
}

// Record normalizes one raw record.
func Record(raw map[string]any) domain.Notification {
	n := domain.Notification{
		ID:    firstString(raw, IDFields),
		Title: firstString(raw, TitleFields),
		Body:  firstString(raw, BodyFields),
	}
	if n.ID == "" {
		n.ID = newFallbackID()
	}
	if n.Title == "" {
		n.Title = domain.DefaultTitle
	}
	if createdRaw := firstString(raw, CreatedAtFields); createdRaw != "" {
		n.CreatedAt = ParseTimestamp(createdRaw)
	}
	return n
}

// ParseTimestamp parses an ISO-8601 instant, tolerating a space in place of
// the T separator. It returns nil when the value is not a valid date.
func ParseTimestamp(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// firstString returns the first present candidate rendered as a string.
// Null, empty strings, false and numeric zero count as absent.
func firstString(raw map[string]any, candidates []string) string {
	for _, key := range candidates {
		if s, ok := stringValue(raw[key]); ok {
			return s
		}
	}
	return ""
}

func stringValue(v any) (string, bool) {
	switch typed := v.(type) {
	case nil:
		return "", false
	case string:
		return typed, typed != ""
	case json.Number:
		if f, err := typed.Float64(); err == nil && f == 0 {
			return "", false
		}
		return typed.String(), true
	case float64:
		if typed == 0 {
			return "", false
		}
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case int:
		return strconv.Itoa(typed), typed != 0
	case int64:
		return strconv.FormatInt(typed, 10), typed != 0
	case bool:
		if !typed {
			return "", false
		}
		return "true", true
	default:
		return fmt.Sprint(typed), true
	}
}
