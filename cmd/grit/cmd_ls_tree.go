package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
)

func newLsTreeCmd() *cobra.Command {
	var (
		nameOnly  bool
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "ls-tree [--name-only] [-r] <tree-ish>",
		Short: "List the entries of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := resolveObject(r, args[0])
			if err != nil {
				return err
			}
			treeHash, err := r.PeelToTree(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if recursive {
				files, err := r.FlattenTree(treeHash)
				if err != nil {
					return err
				}
				for _, f := range files {
					if nameOnly {
						fmt.Fprintln(out, f.Path)
						continue
					}
					fmt.Fprintf(out, "%s %s %s\t%s\n", padMode(f.Mode), object.TreeEntry{Mode: f.Mode}.Type(), f.Hash, f.Path)
				}
				return nil
			}

			tree, err := r.Store.ReadTree(treeHash)
			if err != nil {
				return err
			}
			for _, e := range tree.Entries {
				if nameOnly {
					fmt.Fprintln(out, e.Name)
					continue
				}
				fmt.Fprintf(out, "%s %s %s\t%s\n", padMode(e.Mode), e.Type(), e.Hash, e.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}

// padMode renders a tree mode six digits wide, as git prints it.
func padMode(mode string) string {
	if len(mode) >= 6 {
		return mode
	}
	return strings.Repeat("0", 6-len(mode)) + mode
}
