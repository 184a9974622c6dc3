/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/inbox"
	"github.com/mobilize-transporte/avisos/internal/poller"
	"github.com/mobilize-transporte/avisos/internal/tui"
	"github.com/spf13/cobra"
)

type inboxClient interface {
	NewInbox(ctx context.Context, recorder inbox.Recorder) (*inbox.Inbox, error)
	NewPoller(tick poller.TickFunc) *poller.Poller
}

// runTUIFunc starts the terminal UI. Can be changed for testing.
var runTUIFunc = tui.Run

// NewInboxCmd creates the inbox command with explicit dependencies.
func NewInboxCmd(client inboxClient) *cobra.Command {
	if client == nil {
		panic("NewInboxCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "inbox",
		Short: "Open the interactive notification inbox",
		Long: `Open the interactive notification inbox.

KEYS:
    n        Toggle the latest notifications
    a        Mark all as seen
    r        Refresh now
    j/k      Move
    ?        Help
    q        Quit`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ib, err := client.NewInbox(ctx, nil)
			if err != nil {
				return err
			}
			return runTUIFunc(ctx, tui.Options{
				Inbox:      ib,
				Poller:     client.NewPoller(ib.Tick),
				ModalLimit: config.GetInt("modal_limit", tui.DefaultModalLimit),
			})
		},
	}
}

var inboxCmd = NewInboxCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(inboxCmd)
}
