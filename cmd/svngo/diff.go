package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/notify"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/svnclient"
)

func newDiffCmd() *cobra.Command {
	var fromRev, toRev string

	cmd := &cobra.Command{
		Use:   "diff [PATH]",
		Short: "Show the delta between two revisions of a path as unified diff text",
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
				from = revision.Base
			}

			to, err := parseRevision(toRev)
			if err != nil {
				return err
			}
			if to.IsUnspecified() {
				to = revision.Working
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			out, err := client.Diff(ctx, target, from, to, true)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromRev, "old", "", "left-hand revision (BASE by default)")
	cmd.Flags().StringVar(&toRev, "new", "", "right-hand revision (WORKING by default)")
	return cmd
}

func newMergeCmd() *cobra.Command {
	var fromRev, toRev string
	var recurse bool

	cmd := &cobra.Command{
		Use:   "merge SOURCE-URL TARGET",
		Short: "Merge the delta of a source URL between two revisions onto a working-copy target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			source, target := args[0], args[1]

			from, err := parseRevision(fromRev)
			if err != nil {
				return err
			}
			to, err := parseRevision(toRev)
			if err != nil {
				return err
			}
			if to.IsUnspecified() {
				to = revision.Head
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			opCtx := svnclient.OperationContext{Notify: notify.SinkFunc(func(e notify.Event) {
				if !flagQuiet {
					fmt.Printf("U  %s\n", e.Path)
				}
			})}

			if err := client.Merge(ctx, source, from, to, target, recurse, opCtx); err != nil {
				return fmt.Errorf("merge: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&fromRev, "from", "", "start of the source range (default: its creation)")
	cmd.Flags().StringVar(&toRev, "to", "", "end of the source range (HEAD by default)")
	cmd.Flags().BoolVar(&recurse, "recurse", true, "merge directories recursively")
	return cmd
}
