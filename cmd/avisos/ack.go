/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/freshness"
	"github.com/spf13/cobra"
)

type ackClient interface {
	Acknowledge(ctx context.Context) (freshness.Watermark, error)
}

// NewAckCmd creates the ack command with explicit dependencies.
func NewAckCmd(client ackClient) *cobra.Command {
	if client == nil {
		panic("NewAckCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "ack",
		Short: "Mark all notifications as seen",
		Long: `Mark every notification received so far as seen.

The read watermark advances to now and never moves backwards.

USAGE:
    avisos ack`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			w, err := client.Acknowledge(c.Context())
			if err != nil {
				return err
			}
			colors.Success("Notifications marked as seen up to " + w.Time().Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

var ackCmd = NewAckCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(ackCmd)
}
