package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/notify"
	"github.com/tonimelisma/svngo/internal/wc"
	"github.com/tonimelisma/svngo/svnclient"
)

func newCheckoutCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "checkout URL [PATH]",
		Short: "Check out a working copy from a repository URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			url := args[0]
			path := "."
			if len(args) == 2 {
				path = args[1]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", abs, err)
			}

			sel, err := parseRevision(rev)
			if err != nil {
				return err
			}

			flagRoot = abs

			var store wc.Store
			store, err = openStore(ctx, cc.Logger)
			if err != nil {
				return err
			}

			session, err := openSession(ctx, cc.Cfg, url, cc.Logger)
			if err != nil {
				return err
			}

			client := svnclient.New(session, store, abs, nil, nil, nil, cc.Logger)

			opCtx := svnclient.OperationContext{Notify: notify.SinkFunc(func(e notify.Event) {
				if !flagQuiet {
					fmt.Printf("A  %s\n", e.Path)
				}
			})}

			got, err := client.Checkout(ctx, url, sel, ".", opCtx)
			if err != nil {
				return fmt.Errorf("checkout: %w", err)
			}

			fmt.Printf("Checked out revision %d.\n", got)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to check out (HEAD by default)")
	return cmd
}
