package tui

import "github.com/mobilize-transporte/avisos/internal/inbox"

// snapshotMsg carries a new inbox snapshot. ok is false once the
// subscription is closed.
type snapshotMsg struct {
	snap inbox.Snapshot
	ok   bool
}

// acknowledgedMsg is sent after the watermark has been persisted.
type acknowledgedMsg struct{}
