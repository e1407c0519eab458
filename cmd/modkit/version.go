package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/modkit/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the modkit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "modkit %s (commit %s, %s)\n", info.Version, info.GitCommit, info.GoVersion)
			return err
		},
	}
}
