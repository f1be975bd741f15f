package main

import (
	"fmt"

	"github.com/odvcencio/lut/pkg/object"
	"github.com/spf13/cobra"
)

func newLsTreeCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree <tree-or-commit>",
		Short: "List the entries of a tree",
		Long:  "List the entries of a tree. A commit hash (or HEAD) lists that commit's root tree.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := resolveObjectArg(r, args[0])
			if err != nil {
				return err
			}

			objType, _, err := object.Read(r.Store, h)
			if err != nil {
				return err
			}
			switch objType {
			case object.TypeCommit:
				c, err := object.ReadCommit(r.Store, h)
				if err != nil {
					return err
				}
				h = c.TreeHash
			case object.TypeTree:
			default:
				return fmt.Errorf("%w: %s is a %s, not a tree", object.ErrTypeMismatch, h.Short(), objType)
			}

			out := cmd.OutOrStdout()
			if recursive {
				files, err := r.FlattenTree(h)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintf(out, "%s %s %s\t%s\n", object.TreeModeFile, object.TypeBlob, f.BlobHash, f.Path)
				}
				return nil
			}

			tr, err := object.ReadTree(r.Store, h)
			if err != nil {
				return err
			}
			printTreeEntries(out, tr.Entries)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees and list only files")
	return cmd
}
