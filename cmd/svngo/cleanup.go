package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [PATH]",
		Short: "Clear stale working-copy locks left by an interrupted operation",
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

			if err := client.Cleanup(ctx, target); err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}

			return nil
		},
	}
}

func newRelocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relocate NEW-URL [PATH]",
		Short: "Update a working copy's recorded repository URL without touching its contents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			newURL := args[0]
			target := "."
			if len(args) == 2 {
				target = args[1]
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Relocate(ctx, target, newURL); err != nil {
				return fmt.Errorf("relocate: %w", err)
			}

			fmt.Printf("Relocated '%s' to %s\n", target, newURL)
			return nil
		},
	}
}
