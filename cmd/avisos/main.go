/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"

	"github.com/mobilize-transporte/avisos/cmd"
	"github.com/mobilize-transporte/avisos/internal/colors"
)

func main() {
	os.Exit(run(cmd.Execute))
}

// run executes the CLI and releases shared resources before exiting.
func run(execute func() error) int {
	defer func() {
		if err := appDeps.Close(); err != nil {
			colors.Debug("closing preferences:", err.Error())
		}
	}()
	if err := execute(); err != nil {
		return 1
	}
	return 0
}
