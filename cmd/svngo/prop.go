package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newPropsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "propset NAME VALUE PATH",
		Short: "Set a property on a working-copy path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.PropSet(ctx, args[2], args[0], []byte(args[1])); err != nil {
				return fmt.Errorf("propset: %w", err)
			}

			fmt.Printf("property '%s' set on '%s'\n", args[0], args[2])
			return nil
		},
	}
}

func newPropgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "propget NAME PATH",
		Short: "Print a property's value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			value, ok, err := client.PropGet(ctx, args[1], args[0])
			if err != nil {
				return fmt.Errorf("propget: %w", err)
			}
			if !ok {
				return fmt.Errorf("propget: %q is not set on %s", args[0], args[1])
			}

			fmt.Println(string(value))
			return nil
		},
	}
}

func newProplistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proplist [PATH]",
		Short: "List every property set on a working-copy path",
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

			props, err := client.PropList(ctx, target)
			if err != nil {
				return fmt.Errorf("proplist: %w", err)
			}

			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Printf("  %s : %s\n", name, props[name])
			}
			return nil
		},
	}
}
