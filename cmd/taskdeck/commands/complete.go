package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/taskdeck/internal/services/series"
	"github.com/spf13/cobra"
)

// NewCompleteCmd creates the complete command
func NewCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an occurrence as done",
		Long:  "Mark a task or occurrence as done. Virtual occurrences are materialized into the store first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := context.Background()
			inst, err := e.resolveInstance(ctx, args[0])
			if err != nil {
				return err
			}
			done, err := e.series.CompleteInstance(ctx, inst)
			if errors.Is(err, series.ErrBadTransition) {
				return fmt.Errorf("task %s is %s and cannot be completed", inst.ID, inst.Status)
			}
			if err != nil {
				return fmt.Errorf("failed to complete task: %w", err)
			}
			fmt.Printf("Completed %s (%s)\n", done.ID, done.Content)
			return nil
		},
	}
}
