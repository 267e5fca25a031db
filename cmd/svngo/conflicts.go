package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/conflict"
	"github.com/tonimelisma/svngo/internal/revision"
)

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts [PATH]",
		Short: "List outstanding conflicts under a working-copy path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := client.Status(ctx, target, revision.Head, true)
			if err != nil {
				return fmt.Errorf("conflicts: %w", err)
			}

			found := false
			for _, e := range entries {
				if !e.Conflict.HasAny() {
					continue
				}
				found = true

				cf, err := client.ConflictGet(ctx, e.Path)
				if err != nil {
					return fmt.Errorf("conflicts: %s: %w", e.Path, err)
				}

				hasText, propNames, hasTree := client.ConflictGetConflicted(cf)
				fmt.Printf("%s\n", e.Path)
				if hasText {
					fmt.Println("  text conflict")
				}
				for _, name := range propNames {
					fmt.Printf("  property conflict: %s\n", name)
				}
				if hasTree {
					fmt.Println("  tree conflict")
				}
			}

			if !found {
				fmt.Println("No conflicts found.")
			}
			return nil
		},
	}
}

// parseOption maps a resolve command's --accept value onto the
// corresponding conflict.Option, mirroring svn resolve's --accept ARG.
func parseOption(s string) (conflict.Option, error) {
	switch s {
	case "postpone":
		return conflict.OptionPostpone, nil
	case "base":
		return conflict.OptionBase, nil
	case "theirs-full", "incoming":
		return conflict.OptionIncoming, nil
	case "mine-full", "working":
		return conflict.OptionWorking, nil
	case "theirs-conflict", "incoming-where-conflicted":
		return conflict.OptionIncomingWhereConflicted, nil
	case "mine-conflict", "working-where-conflicted":
		return conflict.OptionWorkingWhereConflicted, nil
	case "merged":
		return conflict.OptionMerged, nil
	case "working-state", "accept-current-wc-state":
		return conflict.OptionAcceptCurrentWCState, nil
	default:
		return 0, fmt.Errorf("unknown --accept value %q", s)
	}
}

func newResolveCmd() *cobra.Command {
	var accept string

	cmd := &cobra.Command{
		Use:   "resolve PATH",
		Short: "Resolve a conflicted path's text, property, and tree conflicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			option, err := parseOption(accept)
			if err != nil {
				return err
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Resolved(ctx, args[0], option); err != nil {
				return fmt.Errorf("resolve: %w", err)
			}

			fmt.Printf("Resolved conflicted state of '%s'\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&accept, "accept", "working", "resolution to apply: base, theirs-full, mine-full, theirs-conflict, mine-conflict, merged, working-state")
	return cmd
}
