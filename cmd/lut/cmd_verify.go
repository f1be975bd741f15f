package main

import (
	"fmt"

	"github.com/odvcencio/lut/pkg/object"
	"github.com/odvcencio/lut/pkg/repo"
	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	var signatures bool
	var allowedKeyFiles []string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify every object reachable from HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			report, err := r.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(
				out,
				"ok: verified %d object(s): %d commit(s), %d tree(s), %d blob(s)\n",
				report.Total(),
				report.Commits,
				report.Trees,
				report.Blobs,
			)

			if !signatures && len(allowedKeyFiles) == 0 {
				return nil
			}
			allowed, err := loadAllowedKeys(allowedKeyFiles)
			if err != nil {
				return err
			}
			head, err := r.Head.LoadHead()
			if err != nil {
				return err
			}
			signed := 0
			for entry, err := range r.History(cmd.Context(), head, repo.HistoryOptions{}) {
				if err != nil {
					return err
				}
				c := entry.Commit
				if c.Signature == "" {
					continue
				}
				if err := verifySSHSignature(c.Signature, object.CommitSigningPayload(c), allowed); err != nil {
					return fmt.Errorf("commit %s: bad signature: %w", entry.Hash.Short(), err)
				}
				signed++
			}
			fmt.Fprintf(out, "ok: %d signed commit(s) verified\n", signed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&signatures, "signatures", false,
		"also check SSH signatures on commits (integrity only: the key comes from the signature itself unless --allowed-key is given)")
	cmd.Flags().StringArrayVar(&allowedKeyFiles, "allowed-key", nil,
		"authorized_keys-format file of signer keys to trust (repeatable, implies --signatures)")
	return cmd
}
