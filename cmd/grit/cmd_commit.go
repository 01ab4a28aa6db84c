package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCommitCmd() *cobra.Command {
	var (
		message string
		sign    bool
		keyPath string
	)

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Snapshot the working directory and advance the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return errors.New("commit message is required (-m)")
			}

			r, err := openRepo()
			if err != nil {
				return err
			}

			var signer repo.CommitSigner
			if sign || keyPath != "" {
				var resolved string
				signer, resolved, err = newSSHCommitSigner(keyPath)
				if err != nil {
					return err
				}
				r.Logger.Debug("signing commit", zap.String("key", resolved))
			}

			h, err := r.CommitWorkingTree(message, signer)
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil || branch == "" {
				branch = "detached HEAD"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for --sign (default: ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")
	return cmd
}
