package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newCatFileCmd() *cobra.Command {
	var (
		pretty   bool
		showType bool
		showSize bool
	)

	cmd := &cobra.Command{
		Use:   "cat-file (-p | -t | -s) <object>",
		Short: "Print a blob's content, or any object's type or size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			selected := 0
			for _, b := range []bool{pretty, showType, showSize} {
				if b {
					selected++
				}
			}
			if selected != 1 {
				return errors.New("exactly one of -p, -t or -s is required")
			}

			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := resolveObject(r, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showType || showSize {
				objType, size, err := r.Store.Stat(h)
				if err != nil {
					return err
				}
				if showType {
					fmt.Fprintln(out, objType)
				} else {
					fmt.Fprintln(out, size)
				}
				return nil
			}

			obj, err := r.Store.Open(h)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, obj.Close())
			}()
			if obj.Type != object.TypeBlob {
				return fmt.Errorf("cat-file -p: %s is a %s: %w", h, obj.Type, object.ErrTypeMismatch)
			}
			if _, err := io.Copy(out, obj); err != nil {
				return fmt.Errorf("cat-file %s: %w", h, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "print blob content")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print payload size")
	return cmd
}
