package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var (
		parent  string
		message string
	)

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p <parent>] -m <message>",
		Short: "Create a commit object for a tree without moving any ref",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return errors.New("commit message is required (-m)")
			}
			r, err := openRepo()
			if err != nil {
				return err
			}

			tree, err := resolveObject(r, args[0])
			if err != nil {
				return err
			}
			parentHash := object.ZeroHash
			if parent != "" {
				if parentHash, err = resolveObject(r, parent); err != nil {
					return err
				}
			}

			h, err := r.CommitTree(tree, parentHash, message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
