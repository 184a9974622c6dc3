package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/inbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusClient struct {
	snap  inbox.Snapshot
	err   error
	calls int
}

func (f *fakeStatusClient) Poll(context.Context) (inbox.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func statusSnapshot() inbox.Snapshot {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return inbox.Snapshot{
		Notifications: []domain.Notification{{ID: "1", Title: "Linha 12", CreatedAt: &created}},
		UnreadCount:   2,
		LatestMessage: "Linha 12 suspensa",
		Loaded:        true,
		ListAvailable: true,
	}
}

func captureColors(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := colors.SetOutput(&buf, &buf)
	t.Cleanup(restore)
	return &buf
}

func TestNewStatusCmdPanicsWhenClientIsNil(t *testing.T) {
	assert.PanicsWithValue(t, "NewStatusCmd: client dependency cannot be nil", func() {
		NewStatusCmd(nil)
	})
}

func TestStatusCmdFormats(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"compact", nil, "🔔 2 | Linha 12 suspensa\n"},
		{"count only", []string{"--format=count-only"}, "2\n"},
		{"narrow banner", []string{"--width=5"}, "🔔 2 | Linh…\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeStatusClient{snap: statusSnapshot()}
			c := NewStatusCmd(client)
			var out bytes.Buffer
			c.SetOut(&out)
			c.SetArgs(tt.args)

			require.NoError(t, c.Execute())
			assert.Equal(t, tt.expected, out.String())
			assert.Equal(t, 1, client.calls)
		})
	}
}

func TestStatusCmdPrintsNothingWhenIdle(t *testing.T) {
	c := NewStatusCmd(&fakeStatusClient{snap: inbox.Snapshot{Loaded: true, ListAvailable: true}})
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs(nil)

	require.NoError(t, c.Execute())
	assert.Empty(t, out.String())
}

func TestStatusCmdWarnsOnFailedPoll(t *testing.T) {
	logs := captureColors(t)
	c := NewStatusCmd(&fakeStatusClient{err: errors.New("connection refused")})
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{"--format=count-only"})

	require.NoError(t, c.Execute())
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "poll failed: connection refused")
}

func TestStatusCmdDetailedReportsFailedPoll(t *testing.T) {
	captureColors(t)
	boom := errors.New("connection refused")
	c := NewStatusCmd(&fakeStatusClient{snap: inbox.Snapshot{ListAvailable: true, LastError: boom}, err: boom})
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{"--format=detailed"})

	require.NoError(t, c.Execute())
	assert.Equal(t, "unread: 0 | total: 0 | last poll failed: connection refused\n", out.String())
}

func TestStatusCmdRejectsUnknownFormat(t *testing.T) {
	c := NewStatusCmd(&fakeStatusClient{})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{"--format=json"})

	err := c.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
