package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/benvon/taskdeck/internal/models"
)

var shortWeekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var ordinals = map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 5: "5th"}

// Describe renders a rule as a human-readable summary, e.g.
// "every 2 weeks on Mon, Wed, until 2025-12-31". It resolves defaults
// against the anchor exactly like Occurrences does, so the text never
// disagrees with the enumeration. Invalid rules yield an empty string.
func Describe(rule models.RecurrenceRule, anchor time.Time) string {
	if !IsValid(rule) {
		return ""
	}
	n := normalize(rule, anchor)

	var b strings.Builder
	switch n.ruleType {
	case models.RecurrenceDaily:
		b.WriteString(every(n.interval, "day"))
	case models.RecurrenceWeekly:
		b.WriteString(every(n.interval, "week"))
		b.WriteString(" on ")
		b.WriteString(weekdayList(n.daysOfWeek))
	case models.RecurrenceMonthly:
		b.WriteString(every(n.interval, "month"))
		b.WriteString(" on ")
		if n.byWeekDay != nil {
			b.WriteString(nthWeekdayText(*n.byWeekDay))
		} else {
			b.WriteString(dayList(n.byMonthDay))
		}
	case models.RecurrenceYearly:
		b.WriteString(every(n.interval, "year"))
		b.WriteString(" on ")
		b.WriteString(monthDayList(n.byMonth, n.byMonthDay))
	}

	if n.endDate != nil {
		fmt.Fprintf(&b, ", until %s", n.endDate.Format(models.DateKeyLayout))
	} else if n.count == 1 {
		b.WriteString(", once")
	} else if n.count > 1 {
		fmt.Fprintf(&b, ", %d times", n.count)
	}

	return b.String()
}

func every(interval int, unit string) string {
	if interval == 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", interval, unit)
}

func weekdayList(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, shortWeekdays[d])
	}
	return strings.Join(names, ", ")
}

func dayList(days []int) string {
	if len(days) == 1 {
		return fmt.Sprintf("day %d", days[0])
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, fmt.Sprintf("%d", d))
	}
	return "days " + strings.Join(parts, ", ")
}

func monthDayList(months, days []int) string {
	parts := make([]string, 0, len(months)*len(days))
	for _, m := range months {
		for _, d := range days {
			parts = append(parts, fmt.Sprintf("%s %d", time.Month(m).String()[:3], d))
		}
	}
	return strings.Join(parts, ", ")
}

func nthWeekdayText(nw models.NthWeekday) string {
	return fmt.Sprintf("the %s %s", ordinals[nw.Week], time.Weekday(nw.Weekday).String())
}
