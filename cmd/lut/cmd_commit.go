package main

import (
	"fmt"

	"github.com/odvcencio/lut/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCommitCmd(a *app) *cobra.Command {
	var message string
	var author string
	var sign bool
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record the staging table as a new commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			opts := repo.CommitOptions{Message: message, Author: author}
			if sign || signKey != "" {
				if signKey == "" {
					cfg, err := r.ReadConfig()
					if err != nil {
						return err
					}
					signKey = cfg.Commit.SignKey
				}
				signer, err := loadSSHSigner(signKey)
				if err != nil {
					return err
				}
				a.logger.Debug("signing commit", zap.String("key", signer.path))
				opts.Signer = signer.Sign
			}

			res, err := r.Commit(opts)
			if err != nil {
				return err
			}
			if res.Empty() {
				fmt.Fprintln(cmd.ErrOrStderr(), "already up-to-date (nothing new was added)")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[HEAD %s] %s\n", res.Hash.Short(), firstLine(res.Message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (default \""+repo.DefaultMessage+"\")")
	cmd.Flags().StringVar(&author, "author", "", "override author (default: config user, then $USER)")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key used for signing (implies --sign)")

	return cmd
}
