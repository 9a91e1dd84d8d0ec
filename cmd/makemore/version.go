package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/born-ml/makemore/internal/parallel"
)

const version = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	// No config is needed to print the version.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "makemore %s\n", version)
		workers := parallel.DefaultConfig().NumWorkers
		fmt.Fprintf(out, "%s %s/%s, %s, %d workers\n", runtime.Version(), runtime.GOOS, runtime.GOARCH, parallel.CPUName(), workers)
	},
}
