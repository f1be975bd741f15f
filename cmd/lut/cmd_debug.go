package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/lut/pkg/object"
	"github.com/odvcencio/lut/pkg/repo"
	"github.com/spf13/cobra"
)

func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug <hash>",
		Short: "Print an object's header and hex-encoded body",
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
			objType, content, err := object.Read(r.Store, h)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "header: %s %d\n", objType, len(content))
			fmt.Fprintf(out, "body (hex): %s\n", hex.EncodeToString(content))
			return nil
		},
	}
}

func newCatObjectCmd(a *app) *cobra.Command {
	var pretty bool
	var typeOnly bool

	cmd := &cobra.Command{
		Use:   "cat-object <hash>",
		Short: "Print the content of a stored object",
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
			objType, content, err := object.Read(r.Store, h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case typeOnly:
				fmt.Fprintln(out, objType)
				return nil
			case !pretty || objType == object.TypeBlob:
				_, err := out.Write(content)
				return err
			case objType == object.TypeTree:
				tr, err := object.UnmarshalTree(content)
				if err != nil {
					return err
				}
				printTreeEntries(out, tr.Entries)
				return nil
			default:
				c, err := object.UnmarshalCommit(content)
				if err != nil {
					return err
				}
				printCommit(out, c)
				return nil
			}
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print trees and commits")
	cmd.Flags().BoolVarP(&typeOnly, "type", "t", false, "print only the object type")
	return cmd
}

// resolveObjectArg accepts a full object hash or the literal HEAD.
func resolveObjectArg(r *repo.Repo, arg string) (object.Hash, error) {
	if strings.EqualFold(arg, "HEAD") {
		h, err := r.Head.LoadHead()
		if err != nil {
			return "", err
		}
		if h == "" {
			return "", fmt.Errorf("HEAD has no commits yet")
		}
		return h, nil
	}
	h := object.Hash(arg)
	if err := object.ValidateHash(h); err != nil {
		return "", err
	}
	return h, nil
}

func printTreeEntries(out io.Writer, entries []object.TreeEntry) {
	for _, e := range entries {
		kind := object.TypeBlob
		if e.IsDir() {
			kind = object.TypeTree
		}
		fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, kind, e.Hash, e.Name)
	}
}

func printCommit(out io.Writer, c *object.CommitObj) {
	fmt.Fprintf(out, "tree %s\n", c.TreeHash)
	if c.Parent != "" {
		fmt.Fprintf(out, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(out, "author %s\n", c.Author)
	fmt.Fprintf(out, "committer %s\n", c.Committer)
	if c.Signature != "" {
		fmt.Fprintf(out, "signature %s\n", c.Signature)
	}
	fmt.Fprintf(out, "\n%s\n", c.Message)
}
