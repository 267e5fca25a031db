package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/commit"
	"github.com/tonimelisma/svngo/svnclient"
)

func newAddCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add PATH",
		Short: "Schedule a path for addition at its next commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Add(ctx, args[0], kind); err != nil {
				return fmt.Errorf("add: %w", err)
			}

			fmt.Printf("A  %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "file", "node kind: file, dir, or symlink")
	return cmd
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory and schedule it for addition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Mkdir(ctx, args[0]); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}

			fmt.Printf("A  %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var keepLocal bool

	cmd := &cobra.Command{
		Use:     "delete PATH",
		Aliases: []string{"rm", "del"},
		Short:   "Schedule a path for deletion",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Delete(ctx, args[0], keepLocal); err != nil {
				return fmt.Errorf("delete: %w", err)
			}

			fmt.Printf("D  %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepLocal, "keep-local", false, "schedule for deletion without removing the local file")
	return cmd
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy SRC DST",
		Short: "Copy a versioned path, preserving history at its next commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Copy(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("copy: %w", err)
			}

			fmt.Printf("A  %s\n", args[1])
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "move SRC DST",
		Aliases: []string{"mv", "rename"},
		Short:   "Move a versioned path, preserving history at its next commit",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Move(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("move: %w", err)
			}

			fmt.Printf("A  %s\nD  %s\n", args[1], args[0])
			return nil
		},
	}
}

func newRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert PATH",
		Short: "Discard a path's local schedule and conflict markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := client.Revert(ctx, args[0]); err != nil {
				return fmt.Errorf("revert: %w", err)
			}

			fmt.Printf("Reverted %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "import LOCAL-PATH URL",
		Short: "Commit an unversioned local tree directly into a repository URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			localPath, url := args[0], args[1]

			flagRoot = localPath

			store, err := openStore(ctx, cc.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := openSession(ctx, cc.Cfg, url, cc.Logger)
			if err != nil {
				return err
			}

			client := svnclient.New(session, store, localPath, nil, nil, nil, cc.Logger)

			msg := message
			if msg == "" {
				var err error
				msg, err = promptLogMessage()
				if err != nil {
					return err
				}
			}

			info, err := client.Import(ctx, ".", url, msg)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Printf("Imported revision %d.\n", info.Revision)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "log message")
	return cmd
}

func newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:     "commit [PATH...]",
		Aliases: []string{"ci"},
		Short:   "Upload local changes as a new revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			ctx := cmd.Context()

			targets := args
			if len(targets) == 0 {
				targets = []string{"."}
			}

			client, store, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer store.Close()

			logMsg := func(items []commit.Item) (string, bool, error) {
				msg := message
				if msg == "" {
					var err error
					msg, err = promptLogMessage()
					if err != nil {
						return "", false, err
					}
				}
				if msg == "" {
					return "", false, nil
				}
				return msg, true, nil
			}

			info, err := client.Commit(ctx, targets, svnclient.OperationContext{LogMessage: logMsg})
			if err != nil {
				return fmt.Errorf("commit: %w", err)
			}

			fmt.Printf("Committed revision %d.\n", info.Revision)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "log message")
	return cmd
}

// promptLogMessage reads a single-line log message from stdin when
// --message was not supplied, matching the interactive editor-less
// fallback (a real editor launch is left to a higher-level wrapper; the
// core only needs the resulting string).
func promptLogMessage() (string, error) {
	fmt.Fprint(os.Stderr, "Log message: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimRight(line, "\n"), nil
}
