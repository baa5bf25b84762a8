package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benvon/taskdeck/internal/models"
)

const taskColumns = `id, content, list_id, status, metadata, recurrence,
	series_id, occurrence_date, due_at, reminder_at, created_at, updated_at, completed_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Save upserts a task by id. The partial unique index on
// (series_id, occurrence_date) makes this insert-or-replace for override
// rows too, so concurrent writes against the same occurrence resolve
// last-write-wins rather than erroring.
func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	query := `
		INSERT OR REPLACE INTO tasks
			(id, content, list_id, status, metadata, recurrence, series_id,
			 occurrence_date, due_at, reminder_at, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	metadataJSON, err := json.Marshal(task.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var recurrenceJSON any
	if task.Recurrence != nil {
		b, err := json.Marshal(task.Recurrence)
		if err != nil {
			return fmt.Errorf("failed to marshal recurrence: %w", err)
		}
		recurrenceJSON = string(b)
	}

	occurrenceKey := ""
	if task.OccurrenceDate != nil {
		occurrenceKey = models.DateKey(*task.OccurrenceDate)
	}

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		task.ID,
		task.Content,
		task.ListID,
		task.Status,
		metadataJSON,
		recurrenceJSON,
		task.SeriesID,
		occurrenceKey,
		nullTime(task.DueAt),
		nullTime(task.ReminderAt),
		task.CreatedAt,
		task.UpdatedAt,
		nullTime(task.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

// FindByID retrieves a task by id, returning (nil, nil) when no row exists.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = ?`, taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Delete removes a task by id. The bool reports whether a row was deleted.
func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// FindOverrideInstances retrieves every override row for a series, ordered
// by occurrence date.
func (r *TaskRepository) FindOverrideInstances(ctx context.Context, seriesID string) ([]*models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE series_id = ? AND occurrence_date != ''
		ORDER BY occurrence_date
	`, taskColumns)

	rows, err := r.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query override instances: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// FindOverrideInstance retrieves the override row for one occurrence,
// returning (nil, nil) when the occurrence is still virtual.
func (r *TaskRepository) FindOverrideInstance(ctx context.Context, seriesID string, occurrenceDate time.Time) (*models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE series_id = ? AND occurrence_date = ?
	`, taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, seriesID, models.DateKey(occurrenceDate)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override instance: %w", err)
	}
	return task, nil
}

// ListSeries retrieves every series root: tasks carrying a recurrence rule
// that do not themselves belong to a series. Advanced rows carry the rule
// forward but point back at the root via series_id; expanding them as roots
// in their own right would list every occurrence twice.
func (r *TaskRepository) ListSeries(ctx context.Context) ([]*models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE recurrence IS NOT NULL AND series_id = ''
		ORDER BY created_at
	`, taskColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series roots: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// DeleteSeries removes a series root together with all its override rows.
// It returns the number of rows removed.
func (r *TaskRepository) DeleteSeries(ctx context.Context, seriesID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? OR series_id = ?`, seriesID, seriesID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete series: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		metadataJSON   []byte
		recurrenceJSON sql.NullString
		occurrenceKey  string
		dueAt          sql.NullTime
		reminderAt     sql.NullTime
		completedAt    sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Content,
		&task.ListID,
		&task.Status,
		&metadataJSON,
		&recurrenceJSON,
		&task.SeriesID,
		&occurrenceKey,
		&dueAt,
		&reminderAt,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metadataJSON, &task.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	if recurrenceJSON.Valid && recurrenceJSON.String != "" {
		rule := &models.RecurrenceRule{}
		if err := json.Unmarshal([]byte(recurrenceJSON.String), rule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recurrence: %w", err)
		}
		task.Recurrence = rule
	}

	if occurrenceKey != "" {
		day, err := time.ParseInLocation(models.DateKeyLayout, occurrenceKey, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse occurrence date %q: %w", occurrenceKey, err)
		}
		task.OccurrenceDate = &day
	}

	if dueAt.Valid {
		task.DueAt = &dueAt.Time
	}
	if reminderAt.Valid {
		task.ReminderAt = &reminderAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
