// Package main implements the visitor flow service entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the service version, overridden at link time.
var Version = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "vfc",
		Short:         "Real-time visitor arrival intensity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default $VFC_CONFIG or ./config.yaml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newEstimateCommand(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "vfc %s\n", Version)
			},
		},
	)
	return root
}
