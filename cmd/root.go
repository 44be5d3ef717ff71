// Package cmd defines the bookmarksd command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarksd",
		Short: "A single-user bookmark manager with wayback archiving.",
		Long: `bookmarksd serves a personal bookmark collection backed by flat JSON
files and asks the Internet Archive's wayback machine to snapshot saved
pages, either on demand or from a background sweep.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newHashTokenCmd())
	cmd.AddCommand(newBackupCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
