package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNewerThan(t *testing.T) {
	watermark := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	later := watermark.Add(time.Hour)
	same := watermark

	assert.True(t, Notification{ID: "1", CreatedAt: &later}.IsNewerThan(watermark))
	assert.False(t, Notification{ID: "2", CreatedAt: &same}.IsNewerThan(watermark))
	assert.False(t, Notification{ID: "3"}.IsNewerThan(watermark))
	assert.False(t, Notification{ID: "4"}.IsNewerThan(time.UnixMilli(0).Add(-time.Hour)))
}

func TestCreatedAtMillis(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, ts.UnixMilli(), Notification{CreatedAt: &ts}.CreatedAtMillis())
	assert.Equal(t, int64(0), Notification{}.CreatedAtMillis())
}

func TestCloneDoesNotAliasTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	original := Notification{ID: "1", CreatedAt: &ts}

	clone := original.Clone()
	*clone.CreatedAt = clone.CreatedAt.Add(time.Hour)

	assert.Equal(t, 10, original.CreatedAt.Hour())
	assert.Empty(t, CloneAll(nil))
}
