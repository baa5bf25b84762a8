package models

import (
	"fmt"
	"strings"
	"time"
)

// Task represents a task row in the local store. A task with a non-nil
// Recurrence is a series root: it is the template for its occurrences and is
// never shown as an actionable item itself. A task with SeriesID and
// OccurrenceDate set (and Recurrence nil) is an override instance of one
// occurrence of that series.
type Task struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"`
	ListID         string          `json:"list_id,omitempty"`
	Status         Status          `json:"status"`
	Metadata       Metadata        `json:"metadata"`
	Recurrence     *RecurrenceRule `json:"recurrence,omitempty"`
	SeriesID       string          `json:"series_id,omitempty"`
	OccurrenceDate *time.Time      `json:"occurrence_date,omitempty"`
	DueAt          *time.Time      `json:"due_at,omitempty"`
	ReminderAt     *time.Time      `json:"reminder_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// IsSeriesRoot reports whether the task is a recurring series definition.
func (t *Task) IsSeriesRoot() bool {
	return t.Recurrence != nil
}

// IsVirtual reports whether the task is a computed, not-persisted occurrence.
func (t *Task) IsVirtual() bool {
	return t.Metadata.IsVirtual
}

// EffectiveDate is the calendar position of the task: the occurrence date for
// instances, the creation date (recurrence anchor) otherwise.
func (t *Task) EffectiveDate() time.Time {
	if t.OccurrenceDate != nil {
		return *t.OccurrenceDate
	}
	return t.CreatedAt
}

// SeriesRootID returns the stable id of the series this task belongs to.
// For the root itself that is its own id; instances point back via SeriesID.
func (t *Task) SeriesRootID() string {
	if t.SeriesID != "" {
		return t.SeriesID
	}
	return t.ID
}

// DateKeyLayout is the calendar-date serialization used for override keys
// and virtual instance ids.
const DateKeyLayout = "2006-01-02"

// DateKey formats a time as the YYYY-MM-DD override key for its calendar day.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// VirtualID builds the synthetic id "{seriesID}_{YYYY-MM-DD}" for a virtual
// instance. The format is a stable convention other layers may parse.
func VirtualID(seriesID string, day time.Time) string {
	return fmt.Sprintf("%s_%s", seriesID, DateKey(day))
}

// ParseVirtualID splits a virtual instance id into its series id and
// occurrence day. ok is false when the id does not follow the convention.
func ParseVirtualID(id string) (seriesID string, day time.Time, ok bool) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return "", time.Time{}, false
	}
	d, err := time.ParseInLocation(DateKeyLayout, id[i+1:], time.UTC)
	if err != nil {
		return "", time.Time{}, false
	}
	return id[:i], d, true
}
