package freshness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}

func notif(id string, ms int64) domain.Notification {
	return domain.Notification{ID: id, Title: domain.DefaultTitle, Body: "body " + id, CreatedAt: at(ms)}
}

func undated(id string) domain.Notification {
	return domain.Notification{ID: id, Title: domain.DefaultTitle, Body: "body " + id}
}

func ids(list []domain.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestSortNewestFirstWithUndatedLast(t *testing.T) {
	list := []domain.Notification{undated("x"), notif("a", 1000), notif("b", 3000), undated("y"), notif("c", 2000)}

	sorted := Sort(list)

	assert.Equal(t, []string{"b", "c", "a", "x", "y"}, ids(sorted))
	assert.Equal(t, "x", list[0].ID, "input is not reordered")
}

func TestEvaluate(t *testing.T) {
	list := []domain.Notification{notif("a", 1000), notif("b", 3000), undated("c"), notif("d", 2000)}

	result := Evaluate(list, Watermark(1500))

	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(result.Notifications))
	assert.Equal(t, "body b", result.LatestMessage)
	assert.Equal(t, 2, result.UnreadCount)
	assert.Equal(t, Watermark(1500), result.Watermark)
}

func TestEvaluateEmpty(t *testing.T) {
	result := Evaluate(nil, Watermark(0))
	assert.Empty(t, result.Notifications)
	assert.NotNil(t, result.Notifications)
	assert.Equal(t, "", result.LatestMessage)
	assert.Equal(t, 0, result.UnreadCount)
}

func TestCountUnreadIsStrict(t *testing.T) {
	list := []domain.Notification{notif("a", 1000), notif("b", 1001)}
	assert.Equal(t, 1, CountUnread(list, Watermark(1000)))
	assert.Equal(t, 0, CountUnread(list, Watermark(1001)))
}

func TestUndatedNeverCountsUnread(t *testing.T) {
	list := []domain.Notification{undated("a"), undated("b")}
	assert.Equal(t, 0, CountUnread(list, Watermark(0)))
}

func TestSeedFor(t *testing.T) {
	now := time.UnixMilli(9000)
	assert.Equal(t, Watermark(3000), SeedFor(Sort([]domain.Notification{notif("a", 1000), notif("b", 3000)}), now))
	assert.Equal(t, Watermark(9000), SeedFor(nil, now))
	assert.Equal(t, Watermark(9000), SeedFor([]domain.Notification{undated("a")}, now))
}

func TestLoadWatermark(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()

	_, ok, err := LoadWatermark(ctx, store)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, prefs.KeyLastSeen, "1700000000000"))
	w, ok, err := LoadWatermark(ctx, store)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Watermark(1700000000000), w)

	require.NoError(t, store.Set(ctx, prefs.KeyLastSeen, "yesterday"))
	_, ok, err = LoadWatermark(ctx, store)
	require.NoError(t, err)
	assert.False(t, ok, "malformed values are treated as absent")
}

func TestAdvanceWatermarkNeverDecreases(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()

	w, err := AdvanceWatermark(ctx, store, Watermark(5000), time.UnixMilli(4000))
	require.NoError(t, err)
	assert.Equal(t, Watermark(5000), w)

	w, err = AdvanceWatermark(ctx, store, Watermark(5000), time.UnixMilli(6000))
	require.NoError(t, err)
	assert.Equal(t, Watermark(6000), w)

	raw, err := store.Get(ctx, prefs.KeyLastSeen)
	require.NoError(t, err)
	assert.Equal(t, "6000", raw)
}

type failingStore struct {
	*prefs.MemoryStore
	failGet bool
	failSet bool
}

var errStorage = errors.New("disk full")

func (f *failingStore) Get(ctx context.Context, key string) (string, error) {
	if f.failGet {
		return "", errStorage
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errStorage
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func fixedClock(ms *int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(*ms) }
}

func TestEngineFirstPollSeedsAndReportsZeroUnread(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	now := int64(10_000)
	engine := NewEngine(store, WithClock(fixedClock(&now)))

	result := engine.Evaluate(ctx, []domain.Notification{notif("a", 1000), notif("b", 3000)})

	assert.True(t, result.Seeded)
	assert.Equal(t, 0, result.UnreadCount)
	assert.Equal(t, Watermark(3000), result.Watermark)
	raw, err := store.Get(ctx, prefs.KeyLastSeen)
	require.NoError(t, err)
	assert.Equal(t, "3000", raw)

	result = engine.Evaluate(ctx, []domain.Notification{notif("a", 1000), notif("b", 3000), notif("c", 4000)})
	assert.False(t, result.Seeded)
	assert.Equal(t, 1, result.UnreadCount)
}

func TestEngineSeedsWithNowOnEmptyList(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	now := int64(10_000)
	engine := NewEngine(store, WithClock(fixedClock(&now)))

	result := engine.Evaluate(ctx, nil)

	assert.True(t, result.Seeded)
	assert.Equal(t, Watermark(10_000), result.Watermark)
}

func TestEngineAcknowledge(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	now := int64(10_000)
	engine := NewEngine(store, WithClock(fixedClock(&now)))
	engine.Evaluate(ctx, []domain.Notification{notif("a", 1000)})

	now = 20_000
	w := engine.Acknowledge(ctx)
	assert.Equal(t, Watermark(20_000), w)

	result := engine.Evaluate(ctx, []domain.Notification{notif("a", 1000), notif("b", 15_000)})
	assert.Equal(t, 0, result.UnreadCount)

	now = 15_000
	assert.Equal(t, Watermark(20_000), engine.Acknowledge(ctx), "clock stepping back does not lower the watermark")
	assert.Equal(t, Watermark(20_000), engine.Acknowledge(ctx), "idempotent")
}

func TestEngineAcknowledgeAfterFutureSeed(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	now := int64(10_000)
	engine := NewEngine(store, WithClock(fixedClock(&now)))

	result := engine.Evaluate(ctx, []domain.Notification{notif("future", 50_000)})
	require.Equal(t, Watermark(50_000), result.Watermark)

	assert.Equal(t, Watermark(50_000), engine.Acknowledge(ctx))
}

func TestEngineStorageFailures(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: prefs.NewMemoryStore()}
	now := int64(10_000)
	engine := NewEngine(store, WithClock(fixedClock(&now)))

	engine.Evaluate(ctx, []domain.Notification{notif("a", 1000)})

	store.failSet = true
	now = 20_000
	assert.Equal(t, Watermark(20_000), engine.Acknowledge(ctx), "in-memory watermark advances when the write fails")

	store.failGet = true
	result := engine.Evaluate(ctx, []domain.Notification{notif("a", 1000), notif("b", 15_000)})
	assert.False(t, result.Seeded, "a read failure falls back to the last known watermark")
	assert.Equal(t, Watermark(20_000), result.Watermark)
	assert.Equal(t, 0, result.UnreadCount)
}

func TestEngineIgnoresOlderExternalWrite(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	now := int64(10_000)
	engine := NewEngine(store, WithClock(fixedClock(&now)))
	engine.Acknowledge(ctx)

	require.NoError(t, store.Set(ctx, prefs.KeyLastSeen, "500"))
	w, ok := engine.Watermark(ctx)
	assert.True(t, ok)
	assert.Equal(t, Watermark(10_000), w)
}

func TestNewEnginePanicsOnNilStore(t *testing.T) {
	assert.Panics(t, func() { NewEngine(nil) })
}

type staticSource string

func (s staticSource) LatestMessage(context.Context) string { return string(s) }

func TestListSource(t *testing.T) {
	var src ListSource
	assert.Equal(t, "", src.LatestMessage(context.Background()))
	src.Update("Rota 3 atrasada")
	assert.Equal(t, "Rota 3 atrasada", src.LatestMessage(context.Background()))
}

func TestAutoSourceSwitchesToLegacy(t *testing.T) {
	ctx := context.Background()
	list := &ListSource{}
	list.Update("from list")
	auto := &AutoSource{List: list, Legacy: staticSource("from legacy")}

	assert.Equal(t, "from list", auto.LatestMessage(ctx))

	auto.SetListAvailable(false)
	assert.True(t, auto.UsingLegacy())
	assert.Equal(t, "from legacy", auto.LatestMessage(ctx))

	auto.SetListAvailable(true)
	assert.Equal(t, "from list", auto.LatestMessage(ctx))
}
