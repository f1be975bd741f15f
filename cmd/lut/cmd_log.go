package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odvcencio/lut/pkg/object"
	"github.com/odvcencio/lut/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history from HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must not be negative")
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}

			headHash, err := r.Head.LoadHead()
			if err != nil {
				return fmt.Errorf("cannot read HEAD: %w", err)
			}
			if headHash == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			opts := repo.HistoryOptions{MaxDepth: cfg.Log.MaxDepth}
			if limit > 0 && (opts.MaxDepth == 0 || limit < opts.MaxDepth) {
				opts.MaxDepth = limit
			}

			out := cmd.OutOrStdout()
			for entry, err := range r.History(cmd.Context(), headHash, opts) {
				if err != nil {
					return err
				}
				decoration := ""
				if entry.Hash == headHash {
					decoration = "(HEAD)"
				}
				if oneline {
					printOneline(out, entry, decoration)
				} else {
					printEntry(out, entry, decoration)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (default: config log.max_depth)")

	return cmd
}

func printOneline(out io.Writer, entry repo.LogEntry, decoration string) {
	if decoration != "" {
		fmt.Fprintf(out, "%s %s %s\n", entry.Hash.Short(), decoration, firstLine(entry.Commit.Message))
		return
	}
	fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), firstLine(entry.Commit.Message))
}

func printEntry(out io.Writer, entry repo.LogEntry, decoration string) {
	c := entry.Commit
	if decoration != "" {
		fmt.Fprintf(out, "commit %s %s\n", entry.Hash, decoration)
	} else {
		fmt.Fprintf(out, "commit %s\n", entry.Hash)
	}
	fmt.Fprintf(out, "Author: %s\n", c.Author.Name)
	fmt.Fprintf(out, "Date:   %s\n", formatSignatureTime(c.Author))
	fmt.Fprintln(out)
	for _, line := range strings.Split(c.Message, "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	fmt.Fprintln(out)
}

// formatSignatureTime renders the timestamp in the signature's own offset.
func formatSignatureTime(sig object.Signature) string {
	t := time.Unix(sig.Timestamp, 0).UTC()
	if loc, err := time.Parse("-0700", sig.Timezone); err == nil {
		t = t.In(loc.Location())
	}
	return t.Format("2006-01-02 15:04:05 -0700")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
