package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRemindCmd creates the remind command
func NewRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder daemon",
		Long:  "Expand all recurring series over the configured window, arm a timer per upcoming reminder and refresh the set daily. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			fire := func(task models.Task) {
				fmt.Printf("[%s] Reminder: %s (%s)\n", time.Now().Format("15:04"), task.Content, task.ID)
			}
			rem := scheduler.New(e.store, e.series, e.cfg.ExpandWindowDays, fire, e.logger, time.Local)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if err := rem.Start(ctx, e.cfg.RefreshTime); err != nil {
				return fmt.Errorf("failed to start reminder scheduler: %w", err)
			}
			e.logger.Info("reminder_daemon_started",
				zap.Int("window_days", e.cfg.ExpandWindowDays),
				zap.Int("pending", rem.Pending()))

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			e.logger.Info("reminder_daemon_stopping")
			rem.Stop()
			return nil
		},
	}
}
