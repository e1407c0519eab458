package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/runner"
)

type historyOptions struct {
	limit  int
	asJSON bool
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history <module>",
		Short: "Show the metadata history of a module, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			log := root.logger(cfg)

			store, err := runner.OpenStorage(cfg, log)
			if err != nil {
				return err
			}
			hs, closeHistory, err := runner.OpenHistoryStore(cmd.Context(), cfg, store, log)
			if err != nil {
				return err
			}
			defer closeHistory()

			fqn := args[0]
			h, err := hs.Read(cmd.Context(), fqn)
			if errors.IsCode(err, errors.ErrCodeNotFound) {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "no history for %s\n", fqn)
				return err
			}
			if err != nil {
				return err
			}
			if opts.limit > 0 && len(h.Entries) > opts.limit {
				h.Entries = h.Entries[:opts.limit]
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(h)
			}
			return writeHistory(cmd.OutOrStdout(), h)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "show at most this many entries")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the history as JSON")
	return cmd
}

func writeHistory(w io.Writer, h *metadata.History) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRUN\tTIME\tURN\tDURATION\tPERSISTED")
	for i, m := range h.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%dms\t%t\n",
			i, m.RunID, m.Timestamp.Format(time.RFC3339), m.URN, m.DurationMs, m.Persisted)
	}
	return tw.Flush()
}
