package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CWBudde/go-robot-lsp/internal/lsp"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the robot-lsp version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		name := color.New(color.FgYellow, color.Bold).Sprint(lsp.ServerName)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s/%s)\n", name, lsp.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
