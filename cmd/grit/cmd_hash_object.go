package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object [-w] <file>",
		Short: "Compute the blob hash of a file, optionally storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				h   object.Hash
				err error
			)
			if write {
				r, openErr := openRepo()
				if openErr != nil {
					return openErr
				}
				h, err = r.Store.WriteBlobFile(args[0])
			} else {
				h, err = hashFile(args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the blob into the object store")
	return cmd
}

// hashFile digests a file as a blob without a repository.
func hashFile(path string) (h object.Hash, err error) {
	obj, err := object.OpenBlobFile(path)
	if err != nil {
		return object.ZeroHash, err
	}
	defer func() {
		err = multierr.Append(err, obj.Close())
	}()
	return object.ComputeHash(obj)
}
