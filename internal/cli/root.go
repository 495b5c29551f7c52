// Package cli provides the simdrive command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "simdrive",
	Short: "Control client for the frame-stepped driving simulation server",
	Long: `simdrive drives a remote driving-simulation server that advances in
discrete, acknowledged frames. It negotiates episode settings, selects a
spawn point, then alternates one measurement read with one control write
per frame, restarting the whole session with backoff if the connection is
lost.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("simdrive version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
