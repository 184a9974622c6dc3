/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"fmt"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/inbox"
	"github.com/mobilize-transporte/avisos/internal/status"
	"github.com/spf13/cobra"
)

type statusClient interface {
	Poll(ctx context.Context) (inbox.Snapshot, error)
}

// NewStatusCmd creates the status command with explicit dependencies.
func NewStatusCmd(client statusClient) *cobra.Command {
	if client == nil {
		panic("NewStatusCmd: client dependency cannot be nil")
	}

	var (
		formatFlag string
		widthFlag  int
	)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Poll once and print a status line",
		Long: `Poll the backend once and print a status line.

USAGE:
    avisos status [OPTIONS]

OPTIONS:
    --format=<format>    compact, detailed or count-only (default: status_format setting)
    --width=<n>          Maximum banner length in compact output (default: 40)

EXAMPLES:
    avisos status                     # 🔔 2 | Linha 12 suspensa
    avisos status --format=detailed   # unread: 2 | total: 5 | updated: 10:42:00 | ...
    avisos status --format=count-only # 2`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			format := formatFlag
			if format == "" {
				format = config.Get("status_format", status.FormatCompact)
			}

			snap, err := client.Poll(c.Context())
			if err != nil {
				// Each run starts from an empty inbox, so compact and count-only
				// print nothing here and detailed reports the failure. Exit 0.
				colors.Warning("poll failed:", err.Error())
			}

			line, err := status.Render(snap, status.Options{Format: format, BannerWidth: widthFlag})
			if err != nil {
				return err
			}
			if line != "" {
				fmt.Fprintln(c.OutOrStdout(), line)
			}
			return nil
		},
	}

	statusCmd.Flags().StringVar(&formatFlag, "format", "", "Output format: compact, detailed, count-only")
	statusCmd.Flags().IntVar(&widthFlag, "width", status.DefaultBannerWidth, "Maximum banner length in compact output")

	return statusCmd
}

var statusCmd = NewStatusCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(statusCmd)
}
