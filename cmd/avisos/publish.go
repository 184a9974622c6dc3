/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"fmt"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/remote"
	"github.com/spf13/cobra"
)

type publishClient interface {
	Publish(ctx context.Context, req remote.PublishRequest) (remote.PublishResult, error)
}

// NewPublishCmd creates the publish command with explicit dependencies.
func NewPublishCmd(client publishClient) *cobra.Command {
	if client == nil {
		panic("NewPublishCmd: client dependency cannot be nil")
	}

	var (
		title     string
		body      string
		recipient string
	)

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Send a notification to the backend",
		Long: `Send a notification to the backend.

USAGE:
    avisos publish --title <title> --body <body> [--recipient <id>]

OPTIONS:
    --title <title>       Notification title (required)
    --body <body>         Notification text (required)
    --recipient <id>      Recipient id (default: all)`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			res, err := client.Publish(c.Context(), remote.PublishRequest{
				Recipient: recipient,
				Title:     title,
				Body:      body,
			})
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			if !res.Saved {
				colors.Warning("notification not saved:", res.Message)
				return nil
			}
			if res.Notification != nil {
				fmt.Fprintln(c.OutOrStdout(), res.Notification.ID)
			}
			colors.Success("Notification published")
			return nil
		},
	}

	publishCmd.Flags().StringVar(&title, "title", "", "Notification title")
	publishCmd.Flags().StringVar(&body, "body", "", "Notification text")
	publishCmd.Flags().StringVar(&recipient, "recipient", remote.DefaultRecipient, "Recipient id")
	_ = publishCmd.MarkFlagRequired("title")
	_ = publishCmd.MarkFlagRequired("body")

	return publishCmd
}

var publishCmd = NewPublishCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(publishCmd)
}
