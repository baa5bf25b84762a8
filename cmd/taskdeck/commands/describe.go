package commands

import (
	"context"
	"fmt"

	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/recurrence"
	"github.com/spf13/cobra"
)

// NewDescribeCmd creates the describe command
func NewDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id>",
		Short: "Show a series and its schedule in plain language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := context.Background()
			task, err := e.store.FindByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to look up task: %w", err)
			}
			if task == nil {
				return fmt.Errorf("no task with id %q", args[0])
			}

			fmt.Printf("Task:    %s\n", task.Content)
			fmt.Printf("ID:      %s\n", task.ID)
			fmt.Printf("Status:  %s\n", task.Status)
			if task.ListID != "" {
				fmt.Printf("List:    %s\n", task.ListID)
			}
			if task.Recurrence == nil {
				fmt.Println("Repeats: never")
				return nil
			}
			text := recurrence.Describe(*task.Recurrence, task.EffectiveDate())
			if text == "" {
				fmt.Println("Repeats: (invalid rule)")
				return nil
			}
			fmt.Printf("Repeats: %s\n", text)

			overrides, err := e.store.FindOverrideInstances(ctx, task.SeriesRootID())
			if err != nil {
				return fmt.Errorf("failed to load overrides: %w", err)
			}
			if len(overrides) > 0 {
				fmt.Printf("Overrides (%d):\n", len(overrides))
				for _, o := range overrides {
					fmt.Printf("  %s  %s\n", models.DateKey(*o.OccurrenceDate), o.Status)
				}
			}
			return nil
		},
	}
}
