/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/credential"
	"github.com/spf13/cobra"
)

type tokenClient interface {
	SetToken(token string) error
	ClearToken() error
}

// NewTokenCmd creates the token command group with explicit dependencies.
func NewTokenCmd(client tokenClient) *cobra.Command {
	if client == nil {
		panic("NewTokenCmd: client dependency cannot be nil")
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the backend bearer token",
		Long: fmt.Sprintf(`Manage the bearer token sent to the backend.

The token is kept in the system keyring. %s overrides it.

USAGE:
    avisos token set [token]    # reads stdin when no token is given
    avisos token clear`, credential.TokenEnv),
	}

	setCmd := &cobra.Command{
		Use:   "set [token]",
		Short: "Store the bearer token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				var err error
				token, err = readToken(c.InOrStdin())
				if err != nil {
					return err
				}
			}
			if err := client.SetToken(token); err != nil {
				return err
			}
			colors.Success("Token stored")
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the bearer token",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := client.ClearToken(); err != nil {
				return err
			}
			colors.Success("Token removed")
			return nil
		},
	}

	tokenCmd.AddCommand(setCmd, clearCmd)
	return tokenCmd
}

func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var tokenCmd = NewTokenCmd(appDeps)

func init() {
	cmd.RootCmd.AddCommand(tokenCmd)
}
