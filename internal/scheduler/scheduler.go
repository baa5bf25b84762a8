package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benvon/taskdeck/internal/database"
	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/services/series"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FireFunc receives an occurrence whose reminder came due. Delivery (toast,
// sound, whatever the shell does with it) lives entirely with the caller.
type FireFunc func(task models.Task)

// Reminders owns one cancellable timer per upcoming occurrence. It is an
// explicit object constructed once per application lifetime and passed by
// reference to whoever needs to (re)schedule; there is no package-level
// state. A daily cron job re-expands the upcoming window so timers exist
// for occurrences that rolled into view.
type Reminders struct {
	mu     sync.Mutex
	timers map[string]*time.Timer

	cron       *cron.Cron
	store      database.TaskStore
	series     *series.Service
	fire       FireFunc
	logger     *zap.Logger
	windowDays int
	now        func() time.Time
}

// New creates a reminder scheduler covering windowDays days of upcoming
// occurrences per refresh.
func New(store database.TaskStore, svc *series.Service, windowDays int, fire FireFunc, logger *zap.Logger, loc *time.Location) *Reminders {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if windowDays < 1 {
		windowDays = 1
	}
	return &Reminders{
		timers:     make(map[string]*time.Timer),
		cron:       cron.New(cron.WithLocation(loc)),
		store:      store,
		series:     svc,
		fire:       fire,
		logger:     logger,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Start runs an immediate refresh and registers the daily refresh job at
// the given HH:MM local time.
func (r *Reminders) Start(ctx context.Context, refreshAt string) error {
	spec, err := dailySpec(refreshAt)
	if err != nil {
		return err
	}
	if _, err := r.cron.AddFunc(spec, func() {
		if err := r.Refresh(context.Background()); err != nil {
			r.logger.Error("failed_to_refresh_reminders", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	if err := r.Refresh(ctx); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Refresh re-expands every series over the upcoming window and schedules a
// timer for each occurrence with a future reminder.
func (r *Reminders) Refresh(ctx context.Context) error {
	roots, err := r.store.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list series: %w", err)
	}

	start := r.now()
	end := start.AddDate(0, 0, r.windowDays)
	occurrences, err := r.series.ExpandMultiple(ctx, roots, start, end)
	if err != nil {
		return fmt.Errorf("failed to expand series: %w", err)
	}

	scheduled := 0
	active := make(map[string]struct{}, len(occurrences))
	for _, occ := range occurrences {
		if occ.Status == models.StatusDone || occ.Status == models.StatusDeleted {
			continue
		}
		if occ.ReminderAt != nil {
			active[occ.ID] = struct{}{}
		}
		if r.Schedule(occ) {
			scheduled++
		}
	}

	// Occurrences completed or tombstoned since the last refresh no longer
	// appear active; their timers must not fire a stale reminder.
	cancelled := 0
	r.mu.Lock()
	for id, timer := range r.timers {
		if _, ok := active[id]; !ok {
			timer.Stop()
			delete(r.timers, id)
			cancelled++
		}
	}
	r.mu.Unlock()

	r.logger.Info("refreshed_reminders",
		zap.Int("series_count", len(roots)),
		zap.Int("scheduled", scheduled),
		zap.Int("cancelled", cancelled),
	)
	return nil
}

// Schedule arms (or re-arms) the timer for one occurrence. It reports
// whether a timer was set; occurrences without a future reminder are
// skipped, and any previous timer for the same id is cancelled first.
func (r *Reminders) Schedule(task *models.Task) bool {
	if task.ReminderAt == nil {
		return false
	}
	delay := task.ReminderAt.Sub(r.now())
	if delay <= 0 {
		return false
	}

	cp := *task

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[cp.ID]; ok {
		existing.Stop()
	}
	r.timers[cp.ID] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, cp.ID)
		r.mu.Unlock()

		r.logger.Debug("reminder_due", zap.String("id", cp.ID))
		if r.fire != nil {
			r.fire(cp)
		}
	})
	return true
}

// Cancel stops and removes the timer for a task id, reporting whether one
// existed.
func (r *Reminders) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer, ok := r.timers[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(r.timers, id)
	return true
}

// Pending returns the number of armed timers.
func (r *Reminders) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop halts the cron job and cancels every armed timer.
func (r *Reminders) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}

// dailySpec converts an "HH:MM" time into a cron spec for a daily job.
func dailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
