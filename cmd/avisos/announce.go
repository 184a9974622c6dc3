/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/announcement"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/spf13/cobra"
)

type announcementStore interface {
	Load(ctx context.Context) (announcement.Announcement, bool, error)
	Publish(ctx context.Context, message string) (announcement.Announcement, error)
	Clear(ctx context.Context) error
	TTL() time.Duration
}

type announceClient interface {
	Announcements(ctx context.Context) (announcementStore, error)
}

// NewAnnounceCmd creates the announce command group with explicit dependencies.
func NewAnnounceCmd(client announceClient) *cobra.Command {
	if client == nil {
		panic("NewAnnounceCmd: client dependency cannot be nil")
	}

	announceCmd := &cobra.Command{
		Use:   "announce",
		Short: "Manage the local announcement banner",
		Long: `Manage the local announcement banner.

Announcements are stored on this device and expire after
announcement_ttl_seconds (default: 300).

USAGE:
    avisos announce set <message>
    avisos announce show
    avisos announce clear`,
	}

	setCmd := &cobra.Command{
		Use:   "set <message>",
		Short: "Publish an announcement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			src, err := client.Announcements(c.Context())
			if err != nil {
				return err
			}
			a, err := src.Publish(c.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			colors.Success("Announcement published until " + a.ExpiresAt(src.TTL()).Local().Format("15:04:05"))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current announcement",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			src, err := client.Announcements(c.Context())
			if err != nil {
				return err
			}
			a, ok, err := src.Load(c.Context())
			if err != nil {
				return err
			}
			if !ok {
				colors.Info("No active announcement")
				return nil
			}
			fmt.Fprintln(c.OutOrStdout(), a.Message)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the announcement",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			src, err := client.Announcements(c.Context())
			if err != nil {
				return err
			}
			if err := src.Clear(c.Context()); err != nil {
				return err
			}
			colors.Success("Announcement cleared")
			return nil
		},
	}

	announceCmd.AddCommand(setCmd, showCmd, clearCmd)
	return announceCmd
}

var announceCmd = NewAnnounceCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(announceCmd)
}
