package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/revision"
)

func newLogCmd() *cobra.Command {
	var fromRev, toRev string
	var limit int

	cmd := &cobra.Command{
		Use:   "log [PATH]",
		Short: "Show revision history for a path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			from, err := parseRevision(fromRev)
			if err != nil {
				return err
			}
			if from.IsUnspecified() {
				from = revision.Head
			}

			to, err := parseRevision(toRev)
			if err != nil {
				return err
			}
			if to.IsUnspecified() {
				to = revision.OfNumber(0)
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			return client.Log(ctx, target, from, to, limit, false, func(e rasession.LogEntry) error {
				fmt.Printf("r%d | %s | %s\n%s\n\n", e.Revision, e.Author, e.Date.Format("2006-01-02 15:04:05"), e.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fromRev, "from", "", "start of the range (HEAD by default)")
	cmd.Flags().StringVar(&toRev, "to", "", "end of the range (revision 0 by default)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of entries (0 = unlimited)")
	return cmd
}

func newBlameCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:     "blame PATH",
		Aliases: []string{"annotate", "praise"},
		Short:   "Show the revision and author that last touched each line of a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			sel, err := parseRevision(rev)
			if err != nil {
				return err
			}
			if sel.IsUnspecified() {
				sel = revision.Head
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			lines, err := client.Blame(ctx, args[0], sel)
			if err != nil {
				return fmt.Errorf("blame: %w", err)
			}

			for _, l := range lines {
				fmt.Printf("%6d %-12s %s\n", l.Revision, l.Author, l.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to annotate at (HEAD by default)")
	return cmd
}
