package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/lut/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty lut repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			// Ensure the target directory exists.
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, err := repo.Init(abs, repo.WithLogger(a.logger))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty lut repository in %s\n", r.LutDir+string(filepath.Separator))
			return nil
		},
	}
}

// openRepo opens the repository containing the working directory.
func (a *app) openRepo() (*repo.Repo, error) {
	return repo.Open(".", repo.WithLogger(a.logger))
}
