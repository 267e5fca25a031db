package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/wc"
)

func scheduleCode(s wc.Schedule) string {
	switch s {
	case wc.ScheduleAdd:
		return "A"
	case wc.ScheduleDelete:
		return "D"
	case wc.ScheduleReplace:
		return "R"
	default:
		return " "
	}
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [PATH]",
		Short: "Show local and out-of-date status for a working-copy path",
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
				return fmt.Errorf("status: %w", err)
			}

			colorConflicts := isatty.IsTerminal(os.Stdout.Fd())

			for _, e := range entries {
				conflictMark := " "
				if e.Conflict.HasAny() {
					conflictMark = "C"
					if colorConflicts {
						conflictMark = "\033[31mC\033[0m"
					}
				}

				outOfDate := " "
				if e.OutOfDate {
					outOfDate = "*"
				}

				fmt.Printf("%s%s %s %s\n", scheduleCode(e.Schedule), conflictMark, outOfDate, e.Path)
			}

			return nil
		},
	}

	return cmd
}
