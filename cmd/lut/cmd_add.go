package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "Store files as blobs and replace the staging table",
		Long: "Store every file under the given paths as a blob and replace the staging\n" +
			"table with them. Directories are walked recursively; use \".\" for the\n" +
			"whole working tree.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			res, err := r.Add(args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged %d file(s), %d new\n", len(res.Staged), len(res.NewBlobs))
			return nil
		},
	}
}
