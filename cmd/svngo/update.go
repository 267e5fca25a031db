package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/notify"
	"github.com/tonimelisma/svngo/svnclient"
)

func newUpdateCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "update [PATH]",
		Short: "Bring a working-copy path up to date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			sel, err := parseRevision(rev)
			if err != nil {
				return err
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

			got, err := client.Update(ctx, target, sel, true, opCtx)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}

			fmt.Printf("Updated to revision %d.\n", got)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to update to (HEAD by default)")
	return cmd
}

func newSwitchCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "switch URL [PATH]",
		Short: "Retarget a working-copy path at a different repository URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			url := args[0]
			target := "."
			if len(args) == 2 {
				target = args[1]
			}

			sel, err := parseRevision(rev)
			if err != nil {
				return err
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

			got, err := client.Switch(ctx, target, url, sel, true, opCtx)
			if err != nil {
				return fmt.Errorf("switch: %w", err)
			}

			fmt.Printf("Switched to revision %d.\n", got)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to switch to (HEAD by default)")
	return cmd
}
