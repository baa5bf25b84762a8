package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/taskdeck/internal/services/series"
	"github.com/spf13/cobra"
)

// NewAdvanceCmd creates the advance command
func NewAdvanceCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Create the next occurrence of a recurring task",
		Long:  "Compute the next occurrence after a task's effective date and persist it as a new row in the same series.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := context.Background()
			task, err := e.resolveInstance(ctx, args[0])
			if err != nil {
				return err
			}

			var fromPtr *time.Time
			if from != "" {
				day, err := parseDateArg(from)
				if err != nil {
					return err
				}
				fromPtr = &day
			}
			next, err := e.series.Advance(ctx, task, fromPtr)
			if errors.Is(err, series.ErrNotRecurring) {
				return fmt.Errorf("task %s is not recurring", task.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to advance series: %w", err)
			}
			if next == nil {
				fmt.Println("Series is exhausted: no occurrence remains after its end condition.")
				return nil
			}
			fmt.Printf("Advanced to %s\n", next.EffectiveDate().Format("2006-01-02"))
			printTask(next)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "advance past this date instead of the task's own date (YYYY-MM-DD)")
	return cmd
}
