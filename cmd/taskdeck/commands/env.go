package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/benvon/taskdeck/internal/config"
	"github.com/benvon/taskdeck/internal/database"
	"github.com/benvon/taskdeck/internal/logger"
	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/recurrence"
	"github.com/benvon/taskdeck/internal/services/series"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env bundles everything a command needs to talk to the store.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
	store  *database.TaskRepository
	calc   *recurrence.Calculator
	series *series.Service
}

// openEnv loads config, opens the database and wires the series service.
// Callers must defer env.close().
func openEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.DebugMode = true
	}

	log, err := logger.New(cfg.DebugMode, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := database.NewTaskRepository(db)
	calc := recurrence.NewCalculatorWithCache(recurrence.CacheConfig{
		TTL:             time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		MaxEntries:      cfg.CacheMaxEntries,
		CleanupInterval: 5 * time.Minute,
	})
	svc := series.New(store, calc, log)

	return &env{
		cfg:    cfg,
		logger: log,
		db:     db,
		store:  store,
		calc:   calc,
		series: svc,
	}, nil
}

func (e *env) close() {
	e.calc.Close()
	if err := e.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
	_ = logger.Sync(e.logger)
}

// resolveInstance turns a CLI identifier into a task. Plain IDs load
// directly; virtual IDs ("{seriesID}_{YYYY-MM-DD}") expand the series
// root for that single day so commands can act on an occurrence that
// was never materialized.
func (e *env) resolveInstance(ctx context.Context, id string) (*models.Task, error) {
	task, err := e.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up task: %w", err)
	}
	if task != nil {
		return task, nil
	}

	seriesID, date, ok := models.ParseVirtualID(id)
	if !ok {
		return nil, fmt.Errorf("no task with id %q", id)
	}
	root, err := e.store.FindByID(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up series: %w", err)
	}
	if root == nil || root.Recurrence == nil {
		return nil, fmt.Errorf("no recurring series with id %q", seriesID)
	}
	instances, err := e.series.Expand(ctx, root, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to expand series: %w", err)
	}
	for _, inst := range instances {
		if models.DateKey(inst.EffectiveDate()) == models.DateKey(date) {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("series %q has no occurrence on %s", seriesID, date.Format(models.DateKeyLayout))
}

func parseDateArg(s string) (time.Time, error) {
	t, err := time.Parse(models.DateKeyLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func printTask(task *models.Task) {
	status := string(task.Status)
	if task.Metadata.IsVirtual {
		status += " (virtual)"
	}
	fmt.Printf("  %-44s  %-18s  %s\n", task.ID, status, task.Content)
	if task.ReminderAt != nil {
		fmt.Printf("  %-44s  reminder at %s\n", "", task.ReminderAt.Format("2006-01-02 15:04"))
	}
}
