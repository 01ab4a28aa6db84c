package main

import (
	"fmt"
	"time"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show ref update history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				old := "0000000"
				if e.OldHash != object.ZeroHash {
					old = e.OldHash.Short()
				}
				ts := e.Committer.When.UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%s %s..%s %s %s\n", e.NewHash.Short(), old, e.NewHash.Short(), ts, e.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}
