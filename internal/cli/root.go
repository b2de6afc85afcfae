// Package cli implements the liveprof command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "liveprof",
	Short: "Live progress reporting for long-running Go workloads",
	Long: `Liveprof samples the Go runtime while an operation runs and keeps a
snapshot table updated on the terminal at a fixed interval. When the
operation completes, a final snapshot is shown exactly once and is never
overwritten by a stale update.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("liveprof version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
