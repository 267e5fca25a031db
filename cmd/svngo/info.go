package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/revision"
)

func newLsCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a directory's immediate children in the repository",
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
			if sel.IsUnspecified() {
				sel = revision.Head
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := client.Ls(ctx, target, sel)
			if err != nil {
				return fmt.Errorf("ls: %w", err)
			}

			for _, e := range entries {
				if e.Kind == "dir" {
					fmt.Printf("%-10s %s/\n", "", e.Name)
					continue
				}
				fmt.Printf("%-10s %s\n", humanize.Bytes(uint64(e.Size)), e.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to list at (HEAD by default)")
	return cmd
}

func newCatCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "cat PATH",
		Short: "Print a file's content at a given revision",
		Args:  cobra.ExactArgs(1),
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

			rc, err := client.Cat(ctx, args[0], sel)
			if err != nil {
				return fmt.Errorf("cat: %w", err)
			}
			defer rc.Close()

			_, err = io.Copy(os.Stdout, rc)
			return err
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to read at (HEAD by default)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "export PATH DEST",
		Short: "Write an unversioned copy of a repository tree to local disk",
		Args:  cobra.ExactArgs(2),
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

			if err := client.Export(ctx, args[0], sel, args[1]); err != nil {
				return fmt.Errorf("export: %w", err)
			}

			fmt.Printf("Exported to %s.\n", args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&rev, "revision", "r", "", "revision to export at (HEAD by default)")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [PATH]",
		Short: "Show a working-copy path's repository URL and UUID",
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

			url, err := client.UrlFromPath(ctx, target)
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}

			uuid, err := client.UuidFromPath(ctx, target)
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}

			fmt.Printf("Path: %s\nURL: %s\nRepository UUID: %s\n", target, url, uuid)
			return nil
		},
	}
}
