package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/freshness"
	"github.com/mobilize-transporte/avisos/internal/inbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type stubInbox struct {
	mu           sync.Mutex
	snap         inbox.Snapshot
	ch           chan inbox.Snapshot
	acks         int
	unsubscribed int
}

func newStubInbox(snap inbox.Snapshot) *stubInbox {
	return &stubInbox{snap: snap, ch: make(chan inbox.Snapshot, 1)}
}

func (s *stubInbox) Snapshot() inbox.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *stubInbox) Acknowledge(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acks++
	s.snap.UnreadCount = 0
}

func (s *stubInbox) Subscribe() (<-chan inbox.Snapshot, func()) {
	return s.ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubscribed++
	}
}

type mockPoller struct {
	mock.Mock
}

func (m *mockPoller) Start(ctx context.Context) { m.Called(ctx) }
func (m *mockPoller) Stop()                     { m.Called() }
func (m *mockPoller) Trigger()                  { m.Called() }

func at(minutesAgo int) *time.Time {
	t := testNow.Add(-time.Duration(minutesAgo) * time.Minute)
	return &t
}

func loadedSnapshot() inbox.Snapshot {
	return inbox.Snapshot{
		Notifications: []domain.Notification{
			{ID: "3", Title: "Linha 12 suspensa", Body: "Obras na avenida", CreatedAt: at(1)},
			{ID: "2", Title: "Novo horário", Body: "Linha 7", CreatedAt: at(30)},
			{ID: "1", Title: "Bem-vindo", CreatedAt: at(120)},
		},
		UnreadCount:   1,
		LatestMessage: "Linha 12 suspensa",
		Watermark:     freshness.WatermarkAt(testNow.Add(-10 * time.Minute)),
		Loaded:        true,
		LastUpdated:   testNow,
		ListAvailable: true,
	}
}

func newTestModel(t *testing.T, snap inbox.Snapshot) (*Model, *stubInbox, *mockPoller) {
	t.Helper()
	ib := newStubInbox(snap)
	p := new(mockPoller)
	m := New(context.Background(), Options{
		Inbox:  ib,
		Poller: p,
		Now:    func() time.Time { return testNow },
	})
	return m, ib, p
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(*Model)
	require.True(t, ok)
	return updated, cmd
}

func TestNewModelInitialState(t *testing.T) {
	m, _, _ := newTestModel(t, loadedSnapshot())

	assert.Equal(t, DefaultModalLimit, m.modalLimit)
	assert.False(t, m.modalOpen)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 1, m.snap.UnreadCount)
}

func TestNewPanicsWithoutInbox(t *testing.T) {
	assert.Panics(t, func() { New(context.Background(), Options{}) })
}

func TestInitStartsPoller(t *testing.T) {
	m, _, p := newTestModel(t, loadedSnapshot())
	p.On("Start", mock.Anything).Return()

	cmd := m.Init()

	assert.NotNil(t, cmd)
	p.AssertCalled(t, "Start", mock.Anything)
}

func TestModalToggle(t *testing.T) {
	m, _, _ := newTestModel(t, loadedSnapshot())

	m, _ = update(t, m, keyPress('n'))
	assert.True(t, m.modalOpen)
	assert.Contains(t, m.View(), "Notifications")
	assert.Contains(t, m.View(), "a: mark as seen")

	m, _ = update(t, m, keyPress('n'))
	assert.False(t, m.modalOpen)

	m, _ = update(t, m, keyPress('n'))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.modalOpen)
}

func TestModalShowsAtMostLimit(t *testing.T) {
	snap := loadedSnapshot()
	ib := newStubInbox(snap)
	m := New(context.Background(), Options{Inbox: ib, ModalLimit: 2, Now: func() time.Time { return testNow }})

	m, _ = update(t, m, keyPress('n'))
	view := m.View()

	assert.Contains(t, view, "Linha 12 suspensa")
	assert.Contains(t, view, "Novo horário")
	assert.NotContains(t, view, "Bem-vindo")
}

func TestAcknowledgeClearsBadgeAndClosesModal(t *testing.T) {
	m, ib, _ := newTestModel(t, loadedSnapshot())
	m, _ = update(t, m, keyPress('n'))

	m, cmd := update(t, m, keyPress('a'))

	assert.False(t, m.modalOpen)
	assert.Equal(t, 0, m.snap.UnreadCount)
	require.NotNil(t, cmd)
	msg := cmd()
	assert.IsType(t, acknowledgedMsg{}, msg)
	assert.Equal(t, 1, ib.acks)
	assert.NotContains(t, m.View(), "🔔")
}

func TestRefreshTriggersPoller(t *testing.T) {
	m, _, p := newTestModel(t, loadedSnapshot())
	p.On("Trigger").Return()

	update(t, m, keyPress('r'))

	p.AssertNumberOfCalls(t, "Trigger", 1)
}

func TestCursorMovement(t *testing.T) {
	m, _, _ := newTestModel(t, loadedSnapshot())

	m, _ = update(t, m, keyPress('k'))
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, keyPress('j'))
	m, _ = update(t, m, keyPress('j'))
	m, _ = update(t, m, keyPress('j'))
	assert.Equal(t, 2, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestSnapshotMessageReplacesStateAndClampsCursor(t *testing.T) {
	m, _, _ := newTestModel(t, loadedSnapshot())
	m.cursor = 2

	next := loadedSnapshot()
	next.Notifications = next.Notifications[:1]
	next.UnreadCount = 0
	m, cmd := update(t, m, snapshotMsg{snap: next, ok: true})

	assert.Equal(t, 0, m.cursor)
	assert.Len(t, m.snap.Notifications, 1)
	assert.NotNil(t, cmd)
}

func TestClosedSubscriptionStopsWaiting(t *testing.T) {
	m, _, _ := newTestModel(t, loadedSnapshot())

	_, cmd := update(t, m, snapshotMsg{ok: false})

	assert.Nil(t, cmd)
}

func TestWaitForSnapshotDeliversUpdates(t *testing.T) {
	m, ib, _ := newTestModel(t, inbox.Snapshot{})
	next := loadedSnapshot()
	ib.ch <- next

	msg := m.waitForSnapshot()()

	got, ok := msg.(snapshotMsg)
	require.True(t, ok)
	assert.True(t, got.ok)
	assert.Equal(t, next.UnreadCount, got.snap.UnreadCount)
}

func TestQuitTearsDown(t *testing.T) {
	m, ib, p := newTestModel(t, loadedSnapshot())
	p.On("Stop").Return()

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m.Teardown()
	p.AssertNumberOfCalls(t, "Stop", 1)
	assert.Equal(t, 1, ib.unsubscribed)
}

func TestWindowSize(t *testing.T) {
	m, _, _ := newTestModel(t, loadedSnapshot())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestViewStates(t *testing.T) {
	t.Run("loading", func(t *testing.T) {
		m, _, _ := newTestModel(t, inbox.Snapshot{ListAvailable: true})
		assert.Contains(t, m.View(), "Loading notifications")
	})

	t.Run("empty", func(t *testing.T) {
		m, _, _ := newTestModel(t, inbox.Snapshot{Loaded: true, ListAvailable: true})
		assert.Contains(t, m.View(), "No notifications")
	})

	t.Run("list with badge and banner", func(t *testing.T) {
		m, _, _ := newTestModel(t, loadedSnapshot())
		view := m.View()
		assert.Contains(t, view, "🔔 1")
		assert.Contains(t, view, "Linha 12 suspensa")
		assert.Contains(t, view, unreadMarker)
		assert.Contains(t, view, "Updated ")
	})

	t.Run("endpoint unavailable", func(t *testing.T) {
		snap := loadedSnapshot()
		snap.ListAvailable = false
		m, _, _ := newTestModel(t, snap)
		assert.Contains(t, m.View(), "Notification list unavailable")
	})
}

func TestCalculateAge(t *testing.T) {
	tests := []struct {
		name     string
		created  *time.Time
		expected string
	}{
		{"missing", nil, "-"},
		{"seconds", func() *time.Time { v := testNow.Add(-20 * time.Second); return &v }(), "20s"},
		{"minutes", at(5), "5m"},
		{"hours", at(180), "3h"},
		{"days", at(60 * 48), "2d"},
		{"future", at(-5), "now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateAge(tt.created, testNow))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "avisos ...", truncate("avisos de transporte", 10))
	assert.Equal(t, "açã", truncate("açãoxyz", 3))
	assert.Equal(t, "unbounded", truncate("unbounded", 0))
}

func TestBannerCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "", banner("   ", 80))
	out := banner("linha\n  12", 80)
	assert.True(t, strings.Contains(out, "linha 12"))
}
