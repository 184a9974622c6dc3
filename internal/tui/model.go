// Package tui provides the terminal inbox screen.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mobilize-transporte/avisos/internal/inbox"
)

const (
	// DefaultModalLimit is how many notifications the modal shows.
	DefaultModalLimit     = 3
	defaultViewportWidth  = 80
	defaultViewportHeight = 22
	// header, banner, status and footer lines
	chromeLines = 5
)

// Inbox is the state container the screen renders.
type Inbox interface {
	Snapshot() inbox.Snapshot
	Acknowledge(ctx context.Context)
	Subscribe() (<-chan inbox.Snapshot, func())
}

// Poller drives inbox refreshes.
type Poller interface {
	Start(ctx context.Context)
	Stop()
	Trigger()
}

// Options configures the screen.
type Options struct {
	Inbox  Inbox
	Poller Poller
	// ModalLimit bounds the modal list; 0 uses DefaultModalLimit.
	ModalLimit int
	Now        func() time.Time
}

// Model is the bubbletea model of the inbox screen.
type Model struct {
	ctx    context.Context
	inbox  Inbox
	poller Poller
	now    func() time.Time

	updates     <-chan inbox.Snapshot
	unsubscribe func()
	stopped     bool

	snap       inbox.Snapshot
	modalOpen  bool
	modalLimit int
	cursor     int
	width      int
	height     int

	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

// New creates the model. ctx bounds the poller and acknowledgements.
func New(ctx context.Context, opts Options) *Model {
	if opts.Inbox == nil {
		panic("tui: inbox cannot be nil")
	}
	if opts.ModalLimit <= 0 {
		opts.ModalLimit = DefaultModalLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:        ctx,
		inbox:      opts.Inbox,
		poller:     opts.Poller,
		now:        opts.Now,
		modalLimit: opts.ModalLimit,
		snap:       opts.Inbox.Snapshot(),
		width:      defaultViewportWidth,
		height:     defaultViewportHeight,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
	}
	m.updates, m.unsubscribe = opts.Inbox.Subscribe()
	return m
}

// Init subscribes to the inbox and starts polling.
func (m *Model) Init() tea.Cmd {
	if m.poller != nil {
		m.poller.Start(m.ctx)
	}
	return tea.Batch(m.waitForSnapshot(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case snapshotMsg:
		if !msg.ok {
			return m, nil
		}
		m.snap = msg.snap
		m.clampCursor()
		return m, m.waitForSnapshot()
	case acknowledgedMsg:
		return m, nil
	case spinner.TickMsg:
		if m.snap.Loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Teardown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Modal):
		m.modalOpen = !m.modalOpen
	case key.Matches(msg, m.keys.Close):
		m.modalOpen = false
	case key.Matches(msg, m.keys.Ack):
		m.modalOpen = false
		m.snap.UnreadCount = 0
		return m, m.acknowledge()
	case key.Matches(msg, m.keys.Refresh):
		if m.poller != nil {
			m.poller.Trigger()
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Notifications)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// Teardown stops polling and the inbox subscription. It is idempotent.
func (m *Model) Teardown() {
	if m.stopped {
		return
	}
	m.stopped = true
	if m.poller != nil {
		m.poller.Stop()
	}
	m.unsubscribe()
}

func (m *Model) acknowledge() tea.Cmd {
	return func() tea.Msg {
		m.inbox.Acknowledge(m.ctx)
		return acknowledgedMsg{}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg{snap: snap, ok: ok}
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Notifications) {
		m.cursor = len(m.snap.Notifications) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the screen.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(header(m.snap.UnreadCount))
	b.WriteString("\n")
	if line := banner(m.snap.LatestMessage, m.width); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.modalOpen:
		b.WriteString(modal(m.snap.Notifications, m.modalLimit, m.width))
	case !m.snap.Loaded && m.snap.LastError == nil:
		b.WriteString(m.spinner.View() + " Loading notifications...")
	case len(m.snap.Notifications) == 0:
		b.WriteString(dimStyle.Render("No notifications"))
	default:
		b.WriteString(m.renderList())
	}
	b.WriteString("\n\n")

	if status := m.statusLine(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderList() string {
	visible := m.height - chromeLines
	if visible < 1 {
		visible = 1
	}
	list := m.snap.Notifications
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(list) {
		end = len(list)
	}

	now := m.now()
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, row(rowState{
			notification: list[i],
			watermark:    m.snap.Watermark,
			selected:     i == m.cursor,
			width:        m.width,
			now:          now,
		}))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) statusLine() string {
	switch {
	case m.snap.LastError != nil:
		return errorStyle.Render("Last refresh failed: " + m.snap.LastError.Error())
	case !m.snap.ListAvailable:
		return dimStyle.Render("Notification list unavailable on the backend")
	case !m.snap.LastUpdated.IsZero():
		return dimStyle.Render("Updated " + m.snap.LastUpdated.Local().Format("15:04:05"))
	}
	return ""
}

// Run starts the screen and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.Teardown()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
