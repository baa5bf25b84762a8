package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/taskdeck/internal/services/series"
	"github.com/spf13/cobra"
)

// NewUpdateCmd creates the update command
func NewUpdateCmd() *cobra.Command {
	var content string
	var listID string
	var reminder string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one occurrence of a series",
		Long:  "Change the content, list or reminder of a single occurrence. Virtual occurrences are materialized so the edit sticks to that date only.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			upd := series.Update{}
			if cmd.Flags().Changed("content") {
				upd.Content = &content
			}
			if cmd.Flags().Changed("list") {
				upd.ListID = &listID
			}
			if cmd.Flags().Changed("reminder") {
				at, err := time.Parse("2006-01-02 15:04", reminder)
				if err != nil {
					return fmt.Errorf("invalid reminder %q (want \"YYYY-MM-DD HH:MM\")", reminder)
				}
				at = at.UTC()
				upd.ReminderAt = &at
			}
			if upd.Content == nil && upd.ListID == nil && upd.ReminderAt == nil {
				return fmt.Errorf("nothing to update: pass --content, --list or --reminder")
			}

			ctx := context.Background()
			inst, err := e.resolveInstance(ctx, args[0])
			if err != nil {
				return err
			}
			saved, err := e.series.UpdateInstance(ctx, inst, upd)
			if err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
			fmt.Printf("Updated %s\n", saved.ID)
			printTask(saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "new task content")
	cmd.Flags().StringVar(&listID, "list", "", "move this occurrence to another list")
	cmd.Flags().StringVar(&reminder, "reminder", "", "reminder time (\"YYYY-MM-DD HH:MM\", UTC)")
	return cmd
}
