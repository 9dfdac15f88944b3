// Package cmd wires the wicky command line: the HTTP service and the offline text commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/haierkeys/wicky/internal/app"

	"github.com/spf13/cobra"
)

// configDefault is the embedded config.yaml, written out when no config file is found
var configDefault string

var rootCmd = &cobra.Command{
	Use:           "wicky",
	Short:         app.Name + " keeps text fields mergeable with a full patch history",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
