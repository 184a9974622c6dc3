/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/devserver"
	"github.com/spf13/cobra"
)

// serveFunc runs the development backend. Can be changed for testing.
var serveFunc = devserver.Serve

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory development backend",
		Long: `Run an in-memory notification backend for local development.

Routes:
    GET   /notifications               bare JSON array
    POST  /notifications               create a notification
    GET   /api/notificacoes            {"notificacoes": [...]}
    POST  /api/notificacoes            create a notification
    PATCH /api/notificacoes/{id}/lida  mark as read
    GET   /healthz

USAGE:
    avisos serve [--addr :3002]`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.Get("serve_addr", devserver.DefaultAddr)
			}
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			colors.Info("Serving notifications on " + addr + " (Ctrl+C to stop)")
			return serveFunc(ctx, addr, devserver.Options{})
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: serve_addr setting)")
	return serveCmd
}

var serveCmd = NewServeCmd()

func init() {
	cmd.RootCmd.AddCommand(serveCmd)
}
