package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/taskdeck/internal/models"
	"github.com/spf13/cobra"
)

// NewAgendaCmd creates the agenda command
func NewAgendaCmd() *cobra.Command {
	var days int
	var from string
	var showAll bool
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "List upcoming occurrences of all recurring series",
		Long:  "Expand every recurring series over a date window and print the resulting instances, overrides included.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := context.Background()
			start := time.Now().UTC().Truncate(24 * time.Hour)
			if from != "" {
				start, err = parseDateArg(from)
				if err != nil {
					return err
				}
			}
			if days <= 0 {
				days = e.cfg.ExpandWindowDays
			}
			end := start.AddDate(0, 0, days)

			roots, err := e.store.ListSeries(ctx)
			if err != nil {
				return fmt.Errorf("failed to list series: %w", err)
			}
			instances, err := e.series.ExpandMultiple(ctx, roots, start, end)
			if err != nil {
				return fmt.Errorf("failed to expand series: %w", err)
			}

			shown := 0
			for _, inst := range instances {
				if !showAll && (inst.Status == models.StatusDone || inst.Status == models.StatusDeleted) {
					continue
				}
				if shown == 0 {
					fmt.Printf("Agenda %s to %s:\n", start.Format(models.DateKeyLayout), end.Format(models.DateKeyLayout))
				}
				printTask(inst)
				shown++
			}
			if shown == 0 {
				fmt.Println("Nothing scheduled in this window.")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window length in days (default: configured expand window)")
	cmd.Flags().StringVar(&from, "from", "", "window start date (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&showAll, "all", false, "include done and deleted occurrences")
	return cmd
}
