package models

import "time"

// RecurrenceType is the base unit a rule repeats on
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

// EndConditionType selects how a rule stops producing occurrences
type EndConditionType string

const (
	EndByDate  EndConditionType = "date"
	EndByCount EndConditionType = "count"
)

// EndCondition is an inclusive stopping rule: either a last allowed date or
// a total occurrence count.
type EndCondition struct {
	Type    EndConditionType `json:"type"`
	EndDate *time.Time       `json:"end_date,omitempty"`
	Count   int              `json:"count,omitempty"`
}

// NthWeekday addresses the Nth occurrence of a weekday within a month,
// e.g. {Weekday: 1, Week: 3} for the third Monday.
type NthWeekday struct {
	Weekday int `json:"weekday" validate:"min=0,max=6"`
	Week    int `json:"week" validate:"min=1,max=5"`
}

// RecurrenceRule describes how a series repeats. Optional fields default
// from the anchor date (the series root's creation date): DaysOfWeek to the
// anchor's weekday, ByMonthDay to its day of month, ByMonth to its month.
// Weekdays use Sunday=0.
type RecurrenceRule struct {
	Type         RecurrenceType `json:"type" validate:"required,recurrence_type"`
	Interval     int            `json:"interval,omitempty" validate:"min=0"`
	DaysOfWeek   []int          `json:"days_of_week,omitempty" validate:"dive,min=0,max=6"`
	ByMonthDay   []int          `json:"by_month_day,omitempty" validate:"dive,min=1,max=31"`
	ByMonth      []int          `json:"by_month,omitempty" validate:"dive,min=1,max=12"`
	ByWeekDay    *NthWeekday    `json:"by_week_day,omitempty"`
	ReminderTime string         `json:"reminder_time,omitempty" validate:"omitempty,clock_time"`
	EndCondition *EndCondition  `json:"end_condition,omitempty"`
}
