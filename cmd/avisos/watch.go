/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/inbox"
	"github.com/mobilize-transporte/avisos/internal/metrics"
	"github.com/mobilize-transporte/avisos/internal/poller"
	"github.com/mobilize-transporte/avisos/internal/status"
	"github.com/spf13/cobra"
)

type watchClient interface {
	NewInbox(ctx context.Context, recorder inbox.Recorder) (*inbox.Inbox, error)
	NewPoller(tick poller.TickFunc) *poller.Poller
}

// NewWatchCmd creates the watch command with explicit dependencies.
func NewWatchCmd(client watchClient) *cobra.Command {
	if client == nil {
		panic("NewWatchCmd: client dependency cannot be nil")
	}

	var (
		metricsAddr string
		formatFlag  string
	)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll and print new notifications",
		Long: `Poll the backend and print new notifications as they arrive.

A status line is printed whenever the unread count or banner changes.

USAGE:
    avisos watch [OPTIONS]

OPTIONS:
    --format=<format>      Status line format (default: status_format setting)
    --metrics-addr=<addr>  Serve Prometheus metrics on addr (e.g. :9090)`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var recorder inbox.Recorder
			if metricsAddr != "" {
				rec := metrics.New()
				recorder = rec
				go func() {
					if err := rec.Serve(ctx, metricsAddr); err != nil {
						colors.Error("metrics server:", err.Error())
					}
				}()
			}

			ib, err := client.NewInbox(ctx, recorder)
			if err != nil {
				return err
			}
			updates, unsubscribe := ib.Subscribe()
			defer unsubscribe()

			p := client.NewPoller(ib.Tick)
			p.Start(ctx)
			defer p.Stop()

			if formatFlag == "" {
				formatFlag = config.Get("status_format", status.FormatCompact)
			}
			colors.Info("Watching notifications (Ctrl+C to stop)...")
			return Watch(ctx, WatchOptions{
				Updates: updates,
				Format:  formatFlag,
				Output:  c.OutOrStdout(),
			})
		},
	}

	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	watchCmd.Flags().StringVar(&formatFlag, "format", "", "Status line format: compact, detailed, count-only")

	return watchCmd
}

// WatchOptions holds the parameters of Watch.
type WatchOptions struct {
	Updates <-chan inbox.Snapshot // inbox snapshots, newest last
	Format  string                // status line format
	Output  io.Writer             // default os.Stdout
}

// Watch prints every unread notification once and a status line whenever it
// changes. It returns when ctx is done or the update channel closes.
func Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if _, err := status.Render(inbox.Snapshot{}, status.Options{Format: opts.Format}); err != nil {
		return err
	}

	seen := make(map[string]bool)
	lastLine := ""
	lastErr := ""

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-opts.Updates:
			if !ok {
				return nil
			}
			if snap.LastError != nil {
				if msg := snap.LastError.Error(); msg != lastErr {
					colors.Warning("poll failed:", msg)
					lastErr = msg
				}
			} else {
				lastErr = ""
			}

			var fresh []domain.Notification
			fresh, seen = unseenUnread(snap, seen)
			for _, n := range fresh {
				printNotification(n, opts.Output)
			}

			line, _ := status.Render(snap, status.Options{Format: opts.Format})
			if line != lastLine {
				if line != "" {
					_, _ = fmt.Fprintln(opts.Output, line)
				}
				lastLine = line
			}
		}
	}
}

// unseenUnread returns the unread notifications of snap not in seen, oldest
// first, and the ids of snap's list as the next seen set.
func unseenUnread(snap inbox.Snapshot, seen map[string]bool) ([]domain.Notification, map[string]bool) {
	next := make(map[string]bool, len(snap.Notifications))
	var fresh []domain.Notification
	for i := len(snap.Notifications) - 1; i >= 0; i-- {
		n := snap.Notifications[i]
		next[n.ID] = true
		if seen[n.ID] {
			continue
		}
		if n.IsNewerThan(snap.Watermark.Time()) {
			fresh = append(fresh, n)
		}
	}
	return fresh, next
}

// printNotification prints a single notification to the writer with formatting.
func printNotification(n domain.Notification, w io.Writer) {
	timeStr := "----------  --:--:--"
	if n.CreatedAt != nil {
		timeStr = n.CreatedAt.Local().Format("2006-01-02 15:04:05")
	}
	_, _ = fmt.Fprintf(w, "%s[%s] %s%s\n", colors.Cyan, timeStr, n.Title, colors.Reset)
	if body := strings.Join(strings.Fields(n.Body), " "); body != "" {
		_, _ = fmt.Fprintf(w, "  └─ %s\n", body)
	}
}

var watchCmd = NewWatchCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(watchCmd)
}
