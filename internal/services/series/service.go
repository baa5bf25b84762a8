package series

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/taskdeck/internal/database"
	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/recurrence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReminderTime is applied when a rule carries no reminder time of
// its own and the series is advanced.
const DefaultReminderTime = "09:00"

// Service materializes recurring-series occurrences over the persisted
// override store: it merges computed occurrence dates with override rows,
// converts virtual instances into real rows when the user acts on them, and
// advances a series after an occurrence completes.
type Service struct {
	store  database.TaskStore
	calc   *recurrence.Calculator
	logger *zap.Logger
	now    func() time.Time
}

// New creates an instance-materialization service.
func New(store database.TaskStore, calc *recurrence.Calculator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		calc:   calc,
		logger: logger,
		now:    time.Now,
	}
}

// Update is the explicit allow-list of fields a single occurrence may be
// edited with. Anything else stays under the series root's control.
type Update struct {
	Content    *string
	ListID     *string
	ReminderAt *time.Time
}

// Expand returns the occurrences of one series within [start, end], date
// ascending. Each occurrence is the override row where one exists for that
// date (tombstones included; callers decide whether to filter deleted ones)
// and a synthesized virtual instance otherwise. Tasks without a recurrence
// rule expand to nothing.
func (s *Service) Expand(ctx context.Context, seriesTask *models.Task, start, end time.Time) ([]*models.Task, error) {
	if seriesTask == nil || seriesTask.Recurrence == nil {
		return nil, nil
	}

	dates := s.calc.Occurrences(*seriesTask.Recurrence, seriesTask.CreatedAt, start, end)
	if len(dates) == 0 {
		return nil, nil
	}

	// One store call per series; the override map must be complete before
	// any virtual instance is synthesized.
	overrides, err := s.store.FindOverrideInstances(ctx, seriesTask.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch override instances: %w", err)
	}
	byDate := make(map[string]*models.Task, len(overrides))
	for _, o := range overrides {
		if o.OccurrenceDate != nil {
			byDate[models.DateKey(*o.OccurrenceDate)] = o
		}
	}

	out := make([]*models.Task, 0, len(dates))
	for _, day := range dates {
		if override, ok := byDate[models.DateKey(day)]; ok {
			out = append(out, override)
			continue
		}
		out = append(out, s.virtualInstance(seriesTask, day))
	}

	return out, nil
}

// ExpandMultiple expands each series and merges the results into one list
// ordered by effective date. The sort is stable, so occurrences sharing a
// date keep their per-series order.
func (s *Service) ExpandMultiple(ctx context.Context, seriesTasks []*models.Task, start, end time.Time) ([]*models.Task, error) {
	var out []*models.Task
	for _, task := range seriesTasks {
		expanded, err := s.Expand(ctx, task, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate().Before(out[j].EffectiveDate())
	})
	return out, nil
}

// Materialize converts a virtual instance into a persisted override row:
// a fresh id, the virtual instance's status and metadata, no recurrence
// rule, and the (series, occurrence date) key preserved. Calling it on a
// non-virtual instance is a contract violation.
func (s *Service) Materialize(ctx context.Context, inst *models.Task) (*models.Task, error) {
	if inst == nil || !inst.IsVirtual() {
		return nil, ErrNotVirtual
	}
	if inst.SeriesID == "" || inst.OccurrenceDate == nil {
		return nil, fmt.Errorf("%w: virtual instance missing series key", ErrNotVirtual)
	}

	metadata := inst.Metadata.Clone()
	metadata.IsVirtual = false

	task := &models.Task{
		ID:             uuid.NewString(),
		Content:        inst.Content,
		ListID:         inst.ListID,
		Status:         inst.Status,
		Metadata:       metadata,
		SeriesID:       inst.SeriesID,
		OccurrenceDate: inst.OccurrenceDate,
		DueAt:          inst.DueAt,
		ReminderAt:     inst.ReminderAt,
		CreatedAt:      s.now(),
	}

	if err := s.store.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save materialized instance: %w", err)
	}

	s.logger.Debug("materialized_instance",
		zap.String("series_id", task.SeriesID),
		zap.String("occurrence_date", models.DateKey(*task.OccurrenceDate)),
		zap.String("id", task.ID),
	)
	return task, nil
}

// CompleteInstance marks one occurrence done. A virtual instance is
// materialized first; either path ends with exactly one persisted row for
// the (series, occurrence date) pair. Completing an already-done row is a
// no-op.
func (s *Service) CompleteInstance(ctx context.Context, inst *models.Task) (*models.Task, error) {
	if inst == nil {
		return nil, ErrNotFound
	}

	target := inst
	if inst.IsVirtual() {
		materialized, err := s.Materialize(ctx, inst)
		if err != nil {
			return nil, err
		}
		target = materialized
	} else {
		current, err := s.store.FindByID(ctx, inst.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load instance: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, inst.ID)
		}
		target = current
	}

	if target.Status == models.StatusDone {
		return target, nil
	}
	if !models.CanTransition(target.Status, models.StatusDone) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, target.Status, models.StatusDone)
	}

	completedAt := s.now()
	target.Status = models.StatusDone
	target.CompletedAt = &completedAt

	if err := s.store.Save(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to save completed instance: %w", err)
	}

	s.logger.Info("completed_instance",
		zap.String("id", target.ID),
		zap.String("series_id", target.SeriesID),
	)
	return target, nil
}

// DeleteInstance removes one occurrence. An existing override row is hard
// deleted (it was the only record of that occurrence's edits); a still
// virtual occurrence gets a tombstone row so later expansions do not
// re-synthesize the default.
func (s *Service) DeleteInstance(ctx context.Context, seriesID string, occurrenceDate time.Time) error {
	day := dayOf(occurrenceDate)

	existing, err := s.store.FindOverrideInstance(ctx, seriesID, day)
	if err != nil {
		return fmt.Errorf("failed to look up override instance: %w", err)
	}

	if existing != nil {
		if _, err := s.store.Delete(ctx, existing.ID); err != nil {
			return fmt.Errorf("failed to delete override instance: %w", err)
		}
		s.logger.Info("deleted_override_instance",
			zap.String("series_id", seriesID),
			zap.String("occurrence_date", models.DateKey(day)),
		)
		return nil
	}

	tombstone := &models.Task{
		ID:             uuid.NewString(),
		Content:        "",
		Status:         models.StatusDeleted,
		SeriesID:       seriesID,
		OccurrenceDate: &day,
		CreatedAt:      s.now(),
	}
	if err := s.store.Save(ctx, tombstone); err != nil {
		return fmt.Errorf("failed to save tombstone: %w", err)
	}

	s.logger.Info("tombstoned_occurrence",
		zap.String("series_id", seriesID),
		zap.String("occurrence_date", models.DateKey(day)),
	)
	return nil
}

// UpdateInstance edits one occurrence, materializing it first when virtual.
func (s *Service) UpdateInstance(ctx context.Context, inst *models.Task, upd Update) (*models.Task, error) {
	if inst == nil {
		return nil, ErrNotFound
	}

	target := inst
	if inst.IsVirtual() {
		materialized, err := s.Materialize(ctx, inst)
		if err != nil {
			return nil, err
		}
		target = materialized
	} else {
		current, err := s.store.FindByID(ctx, inst.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load instance: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, inst.ID)
		}
		target = current
	}

	if upd.Content != nil {
		target.Content = *upd.Content
	}
	if upd.ListID != nil {
		target.ListID = *upd.ListID
	}
	if upd.ReminderAt != nil {
		target.ReminderAt = upd.ReminderAt
	}

	if err := s.store.Save(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to save updated instance: %w", err)
	}
	return target, nil
}

// Advance computes the next occurrence strictly after from (default: the
// task's own effective date) and persists it as a brand-new task row
// carrying the rule forward, keyed to the stable series root id. It returns
// (nil, nil) once the rule's end condition leaves nothing to advance to.
func (s *Service) Advance(ctx context.Context, seriesTask *models.Task, from *time.Time) (*models.Task, error) {
	if seriesTask == nil || seriesTask.Recurrence == nil {
		return nil, ErrNotRecurring
	}

	// Default rule fields (byMonthDay, byMonth, daysOfWeek) derive from the
	// anchor, so the anchor must stay the root's date: deriving it from an
	// advanced row would re-default a clamped occurrence (a series anchored
	// Jan 31 advanced onto Feb 28 would drift to day 28 forever).
	anchor := seriesTask.EffectiveDate()
	if seriesTask.SeriesID != "" {
		root, err := s.store.FindByID(ctx, seriesTask.SeriesRootID())
		if err != nil {
			return nil, fmt.Errorf("failed to load series root: %w", err)
		}
		if root != nil {
			anchor = root.EffectiveDate()
		}
	}

	fromDate := seriesTask.EffectiveDate()
	if from != nil {
		fromDate = *from
	}

	next := s.calc.Next(*seriesTask.Recurrence, anchor, fromDate)
	if next == nil {
		s.logger.Debug("series_exhausted",
			zap.String("series_id", seriesTask.SeriesRootID()),
		)
		return nil, nil
	}

	reminderClock := seriesTask.Recurrence.ReminderTime
	if reminderClock == "" {
		reminderClock = DefaultReminderTime
	}
	reminderAt, err := atClock(*next, reminderClock)
	if err != nil {
		return nil, fmt.Errorf("failed to compute reminder time: %w", err)
	}

	task := &models.Task{
		ID:             uuid.NewString(),
		Content:        seriesTask.Content,
		ListID:         seriesTask.ListID,
		Status:         models.StatusTodo,
		Metadata:       seriesTask.Metadata.Clone(),
		Recurrence:     seriesTask.Recurrence,
		SeriesID:       seriesTask.SeriesRootID(),
		OccurrenceDate: next,
		ReminderAt:     &reminderAt,
		CreatedAt:      s.now(),
	}

	if err := s.store.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save advanced task: %w", err)
	}

	s.logger.Info("advanced_series",
		zap.String("series_id", task.SeriesID),
		zap.String("next_occurrence", models.DateKey(*next)),
	)
	return task, nil
}

// DeleteSeries removes a series root and all its override rows.
func (s *Service) DeleteSeries(ctx context.Context, seriesID string) error {
	removed, err := s.store.DeleteSeries(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, seriesID)
	}

	s.logger.Info("deleted_series",
		zap.String("series_id", seriesID),
		zap.Int64("rows_removed", removed),
	)
	return nil
}

// virtualInstance synthesizes the computed default occurrence for one date.
func (s *Service) virtualInstance(root *models.Task, day time.Time) *models.Task {
	metadata := root.Metadata.Clone()
	metadata.IsVirtual = true
	occurrence := day

	return &models.Task{
		ID:             models.VirtualID(root.ID, day),
		Content:        root.Content,
		ListID:         root.ListID,
		Status:         models.StatusTodo,
		Metadata:       metadata,
		SeriesID:       root.ID,
		OccurrenceDate: &occurrence,
		ReminderAt:     s.virtualReminder(root, day),
		CreatedAt:      root.CreatedAt,
	}
}

// virtualReminder applies the rule's clock time to the occurrence date, or
// falls back to the anchor-relative offset of the root's own reminder.
func (s *Service) virtualReminder(root *models.Task, day time.Time) *time.Time {
	if root.Recurrence != nil && root.Recurrence.ReminderTime != "" {
		at, err := atClock(day, root.Recurrence.ReminderTime)
		if err == nil {
			return &at
		}
	}
	if root.ReminderAt != nil {
		offset := root.ReminderAt.Sub(dayOf(*root.ReminderAt))
		at := dayOf(day).Add(offset)
		return &at
	}
	return nil
}

// atClock combines a calendar day with an "HH:MM" clock string.
func atClock(day time.Time, clock string) (time.Time, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
