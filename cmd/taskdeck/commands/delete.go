package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/taskdeck/internal/services/series"
	"github.com/spf13/cobra"
)

// NewDeleteOccurrenceCmd creates the delete-occurrence command
func NewDeleteOccurrenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-occurrence <series-id> <date>",
		Short: "Delete a single occurrence of a series",
		Long:  "Remove one occurrence date from a recurring series. Existing overrides are removed; otherwise a deletion marker keeps the date from reappearing.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			day, err := parseDateArg(args[1])
			if err != nil {
				return err
			}
			if err := e.series.DeleteInstance(context.Background(), args[0], day); err != nil {
				return fmt.Errorf("failed to delete occurrence: %w", err)
			}
			fmt.Printf("Deleted occurrence of %s on %s\n", args[0], args[1])
			return nil
		},
	}
}

// NewDeleteSeriesCmd creates the delete-series command
func NewDeleteSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-series <series-id>",
		Short: "Delete a recurring series and all its overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			err = e.series.DeleteSeries(context.Background(), args[0])
			if errors.Is(err, series.ErrNotFound) {
				return fmt.Errorf("no series with id %q", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to delete series: %w", err)
			}
			fmt.Printf("Deleted series %s\n", args[0])
			return nil
		},
	}
}
