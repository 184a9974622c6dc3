/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/logging"
	"github.com/mobilize-transporte/avisos/internal/version"
	"github.com/spf13/cobra"
)

// commandOrder is the order commands appear in the help text.
var commandOrder = []string{
	"watch",
	"inbox",
	"status",
	"ack",
	"publish",
	"announce",
	"token",
	"serve",
	"version",
}

var (
	configPath string
	debugFlag  bool
	quietFlag  bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "avisos",
	Short:         "Transport notices in your terminal.",
	Long:          `Transport notices in your terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := logging.ShutdownGlobal(); err != nil {
			colors.Debug("logger shutdown:", err.Error())
		}
	},
}

// Execute runs the root command and prints the returned error.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		colors.Error(err.Error())
	}
	return err
}

func init() {
	RootCmd.Version = version.String()
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/avisos/config.toml)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print debug output")
	RootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print errors and warnings")

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != RootCmd {
			fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		printHelpText(cmd)
	})
}

// setup loads configuration and initializes console and file logging.
func setup(cmd *cobra.Command) error {
	if configPath != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG_PATH", configPath); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	config.Load()

	colors.SetDebug(debugFlag || config.GetBool("debug", false))
	colors.SetQuiet(quietFlag || config.GetBool("quiet", false))

	if err := logging.InitGlobal(cmd.Name()); err != nil {
		colors.Warning("file logging disabled:", err.Error())
	}
	return nil
}

func printHelpText(cmd *cobra.Command) {
	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Name(), found.Short))
	}

	helpText := fmt.Sprintf(`avisos v%s

Transport notices in your terminal.

USAGE:
    avisos [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    --config <path> Config file
    --debug         Print debug output
    -q, --quiet     Only print errors and warnings
    -h, --help      Show help message
`, version.String(), strings.Join(cmdLines, "\n"))
	fmt.Fprint(cmd.OutOrStdout(), helpText)
}
