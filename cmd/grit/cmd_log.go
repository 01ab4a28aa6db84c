package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var (
		oneline bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "log [<commit>]",
		Short: "Show first-parent commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			headHash, err := r.HeadCommit()
			if err != nil && !errors.Is(err, repo.ErrNoCommits) {
				return fmt.Errorf("cannot resolve HEAD: %w", err)
			}
			start := headHash
			if len(args) == 1 {
				if start, err = resolveObject(r, args[0]); err != nil {
					return err
				}
			}
			if start.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			entries, err := r.Log(start, limit)
			if err != nil {
				return err
			}

			branchName, _ := r.CurrentBranch()
			tags, err := r.ListTags()
			if err != nil {
				return err
			}
			tagsByHash := make(map[object.Hash][]string, len(tags))
			for name, h := range tags {
				tagsByHash[h] = append(tagsByHash[h], name)
			}
			yellow := color.New(color.FgYellow).SprintFunc()
			cyan := color.New(color.FgCyan).SprintFunc()

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				h, c := entry.Hash, entry.Commit
				decoration := buildDecoration(h, headHash, branchName, tagsByHash[h])
				if decoration != "" {
					decoration = " " + cyan(decoration)
				}

				if oneline {
					fmt.Fprintf(out, "%s%s %s\n", yellow(h.Short()), decoration, firstLine(c.Message))
					continue
				}
				fmt.Fprintf(out, "%s%s\n", yellow("commit "+h.String()), decoration)
				fmt.Fprintf(out, "Author: %s\n", c.Author.Identity)
				fmt.Fprintf(out, "Date:   %s\n", c.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show (0 for all)")
	return cmd
}

// buildDecoration returns a string like "(HEAD -> main, tag: v1)" naming
// what points at the commit, or "" if nothing does.
func buildDecoration(commitHash, headHash object.Hash, branchName string, tags []string) string {
	var parts []string
	if !headHash.IsZero() && commitHash == headHash {
		if branchName != "" {
			parts = append(parts, "HEAD -> "+branchName)
		} else {
			parts = append(parts, "HEAD")
		}
	}
	sort.Strings(tags)
	for _, tag := range tags {
		parts = append(parts, "tag: "+tag)
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
