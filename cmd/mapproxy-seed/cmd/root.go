// Package cmd defines and implements the CLI commands for the mapproxy-seed
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapproxy-seed",
		Short: "Pre-populate a tile cache for a coverage area",
		Long: `mapproxy-seed walks a tile grid recursively, decides which tiles fall
inside the configured coverage areas, and fetches the missing ones into the
tile cache with a bounded pool of workers.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the config file")
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
