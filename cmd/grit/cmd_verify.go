package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var signatures bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify object integrity and that every ref's history is complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			report, err := r.Store.Verify()
			if err != nil {
				return err
			}

			roots, err := refRoots(r)
			if err != nil {
				return err
			}
			reachable, missing, err := r.Store.ReachableSet(roots)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				names := make([]string, len(missing))
				for i, h := range missing {
					names[i] = h.String()
				}
				return fmt.Errorf("verify: %d missing object(s): %s: %w", len(missing), strings.Join(names, ", "), object.ErrNotFound)
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"ok: verified %d loose object(s) (%d blob, %d tree, %d commit), %d reachable from %d ref(s)\n",
				report.LooseObjects,
				report.Blobs,
				report.Trees,
				report.Commits,
				len(reachable),
				len(roots),
			)
			if signatures {
				return verifyHeadSignatures(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&signatures, "signatures", false, "also check SSH signatures on HEAD's first-parent history")
	return cmd
}

func verifyHeadSignatures(cmd *cobra.Command, r *repo.Repo) error {
	head, err := r.HeadCommit()
	if errors.Is(err, repo.ErrNoCommits) {
		return nil
	}
	if err != nil {
		return err
	}
	entries, err := r.Log(head, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		if e.Commit.Signature == "" {
			fmt.Fprintf(out, "%s unsigned\n", e.Hash.Short())
			continue
		}
		fingerprint, err := verifySSHCommitSignature(object.CommitSigningPayload(e.Commit), e.Commit.Signature)
		if err != nil {
			return fmt.Errorf("verify commit %s: %w", e.Hash, err)
		}
		fmt.Fprintf(out, "%s good signature %s\n", e.Hash.Short(), fingerprint)
	}
	return nil
}

// refRoots collects every ref tip plus HEAD.
func refRoots(r *repo.Repo) ([]object.Hash, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}
	roots := make([]object.Hash, 0, len(refs)+1)
	for _, h := range refs {
		roots = append(roots, h)
	}
	head, err := r.HeadCommit()
	switch {
	case err == nil:
		roots = append(roots, head)
	case !errors.Is(err, repo.ErrNoCommits):
		return nil, err
	}
	return roots, nil
}
