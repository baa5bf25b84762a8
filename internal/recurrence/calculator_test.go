package recurrence

import (
	"testing"
	"time"

	"github.com/benvon/taskdeck/internal/models"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func assertDates(t *testing.T, got []time.Time, want ...time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d: expected %s, got %s",
				i, want[i].Format(models.DateKeyLayout), got[i].Format(models.DateKeyLayout))
		}
	}
}

func TestOccurrences_DailyEveryDay(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceDaily}
	anchor := d(2025, time.May, 1)

	// interval=1 over [anchor, anchor+9d] yields exactly 10 days
	got := calc.Occurrences(rule, anchor, anchor, anchor.AddDate(0, 0, 9))
	if len(got) != 10 {
		t.Fatalf("expected 10 occurrences, got %d", len(got))
	}
	for i, occ := range got {
		if !occ.Equal(anchor.AddDate(0, 0, i)) {
			t.Errorf("occurrence %d: got %v", i, occ)
		}
	}
}

func TestOccurrences_DailyIntervalSnapsToAnchorGrid(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceDaily, Interval: 3}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, d(2025, time.January, 5), d(2025, time.January, 14))
	assertDates(t, got, d(2025, time.January, 7), d(2025, time.January, 10), d(2025, time.January, 13))
}

func TestOccurrences_WindowBeforeAnchor(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceDaily}
	anchor := d(2025, time.June, 10)

	got := calc.Occurrences(rule, anchor, d(2025, time.June, 1), d(2025, time.June, 12))
	assertDates(t, got, d(2025, time.June, 10), d(2025, time.June, 11), d(2025, time.June, 12))
}

func TestOccurrences_WeeklyAlternatingWeeks(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	// Mon/Wed/Fri every second week; anchor is Monday 2025-01-06.
	rule := models.RecurrenceRule{
		Type:       models.RecurrenceWeekly,
		Interval:   2,
		DaysOfWeek: []int{1, 3, 5},
	}
	anchor := d(2025, time.January, 6)

	got := calc.Occurrences(rule, anchor, d(2025, time.January, 5), d(2025, time.March, 1))

	assertDates(t, got,
		d(2025, time.January, 6), d(2025, time.January, 8), d(2025, time.January, 10),
		d(2025, time.January, 20), d(2025, time.January, 22), d(2025, time.January, 24),
		d(2025, time.February, 3), d(2025, time.February, 5), d(2025, time.February, 7),
		d(2025, time.February, 17), d(2025, time.February, 19), d(2025, time.February, 21),
	)
}

func TestOccurrences_WeeklyDefaultsToAnchorWeekday(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceWeekly}
	anchor := d(2025, time.January, 7) // a Tuesday

	got := calc.Occurrences(rule, anchor, anchor, d(2025, time.January, 28))
	assertDates(t, got,
		d(2025, time.January, 7), d(2025, time.January, 14),
		d(2025, time.January, 21), d(2025, time.January, 28),
	)
	for _, occ := range got {
		if occ.Weekday() != time.Tuesday {
			t.Errorf("expected Tuesday, got %s", occ.Weekday())
		}
	}
}

func TestOccurrences_MonthlyDay31Clamps(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceMonthly, ByMonthDay: []int{31}}
	anchor := d(2025, time.January, 31)

	got := calc.Occurrences(rule, anchor, d(2025, time.January, 1), d(2025, time.June, 30))

	assertDates(t, got,
		d(2025, time.January, 31),
		d(2025, time.February, 28),
		d(2025, time.March, 31),
		d(2025, time.April, 30),
		d(2025, time.May, 31),
		d(2025, time.June, 30),
	)
	// The invariant behind the fixture: never day 1 of the following month.
	for _, occ := range got {
		last := daysInMonth(occ)
		if occ.Day() != 31 && occ.Day() != last {
			t.Errorf("%v is neither day 31 nor the last day of its month", occ)
		}
	}
}

func TestOccurrences_MonthlyShortMonthDedupes(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceMonthly, ByMonthDay: []int{30, 31}}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, d(2025, time.February, 1), d(2025, time.February, 28))
	// Both entries clamp to Feb 28; only one occurrence may come out.
	assertDates(t, got, d(2025, time.February, 28))
}

func TestOccurrences_MonthlyIntervalFastForward(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceMonthly, Interval: 2}
	anchor := d(2025, time.January, 15)

	got := calc.Occurrences(rule, anchor, d(2025, time.June, 1), d(2025, time.September, 30))
	assertDates(t, got, d(2025, time.July, 15), d(2025, time.September, 15))
}

func TestOccurrences_MonthlyNthWeekday(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	// Fifth Monday: only months that actually have one emit anything.
	rule := models.RecurrenceRule{
		Type:      models.RecurrenceMonthly,
		ByWeekDay: &models.NthWeekday{Weekday: 1, Week: 5},
	}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, d(2025, time.January, 1), d(2025, time.July, 31))
	assertDates(t, got, d(2025, time.March, 31), d(2025, time.June, 30))
}

func TestOccurrences_MonthlyThirdTuesday(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{
		Type:      models.RecurrenceMonthly,
		ByWeekDay: &models.NthWeekday{Weekday: 2, Week: 3},
	}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, d(2025, time.January, 1), d(2025, time.March, 31))
	assertDates(t, got,
		d(2025, time.January, 21),
		d(2025, time.February, 18),
		d(2025, time.March, 18),
	)
}

func TestOccurrences_YearlyLeapDay(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceYearly}
	anchor := d(2024, time.February, 29)

	got := calc.Occurrences(rule, anchor, d(2024, time.January, 1), d(2028, time.December, 31))

	// Non-leap years resolve to Feb 28, never Mar 1; 2028 is leap again.
	assertDates(t, got,
		d(2024, time.February, 29),
		d(2025, time.February, 28),
		d(2026, time.February, 28),
		d(2027, time.February, 28),
		d(2028, time.February, 29),
	)
}

func TestOccurrences_YearlyCrossProduct(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{
		Type:       models.RecurrenceYearly,
		ByMonth:    []int{3, 6},
		ByMonthDay: []int{10, 20},
	}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, d(2025, time.January, 1), d(2025, time.December, 31))
	assertDates(t, got,
		d(2025, time.March, 10), d(2025, time.March, 20),
		d(2025, time.June, 10), d(2025, time.June, 20),
	)
}

func TestOccurrences_CountEndCondition(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{
		Type:         models.RecurrenceDaily,
		EndCondition: &models.EndCondition{Type: models.EndByCount, Count: 5},
	}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, anchor, d(2026, time.January, 1))
	if len(got) != 5 {
		t.Fatalf("expected exactly 5 occurrences, got %d", len(got))
	}
	if !got[4].Equal(d(2025, time.January, 5)) {
		t.Errorf("unexpected last occurrence: %v", got[4])
	}
}

func TestOccurrences_CountConsumedBeforeWindow(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{
		Type:         models.RecurrenceDaily,
		EndCondition: &models.EndCondition{Type: models.EndByCount, Count: 3},
	}
	anchor := d(2025, time.January, 1)

	// The series has three occurrences total (Jan 1-3); a window opening on
	// Jan 3 sees only the last one.
	got := calc.Occurrences(rule, anchor, d(2025, time.January, 3), d(2025, time.January, 31))
	assertDates(t, got, d(2025, time.January, 3))
}

func TestOccurrences_EndDateInclusive(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	end := d(2025, time.January, 3)
	rule := models.RecurrenceRule{
		Type:         models.RecurrenceDaily,
		EndCondition: &models.EndCondition{Type: models.EndByDate, EndDate: &end},
	}
	anchor := d(2025, time.January, 1)

	got := calc.Occurrences(rule, anchor, anchor, d(2025, time.January, 10))
	assertDates(t, got,
		d(2025, time.January, 1), d(2025, time.January, 2), d(2025, time.January, 3),
	)
}

func TestOccurrences_IterationGuardTruncates(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceDaily}
	anchor := d(2020, time.January, 1)

	got := calc.Occurrences(rule, anchor, anchor, d(2030, time.January, 1))
	if len(got) != maxIterations {
		t.Fatalf("expected guard to cap output at %d, got %d", maxIterations, len(got))
	}
}

func TestOccurrences_InvalidRuleYieldsNothing(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	anchor := d(2025, time.January, 1)

	tests := []struct {
		name string
		rule models.RecurrenceRule
	}{
		{name: "unknown type", rule: models.RecurrenceRule{Type: "hourly"}},
		{name: "negative interval", rule: models.RecurrenceRule{Type: models.RecurrenceDaily, Interval: -1}},
		{name: "weekday out of range", rule: models.RecurrenceRule{Type: models.RecurrenceWeekly, DaysOfWeek: []int{7}}},
		{name: "zero count", rule: models.RecurrenceRule{
			Type:         models.RecurrenceDaily,
			EndCondition: &models.EndCondition{Type: models.EndByCount},
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := calc.Occurrences(tt.rule, anchor, anchor, anchor.AddDate(0, 1, 0)); len(got) != 0 {
				t.Errorf("expected no occurrences, got %v", got)
			}
		})
	}
}

func TestOccurrences_EmptyWindow(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	rule := models.RecurrenceRule{Type: models.RecurrenceDaily}
	anchor := d(2025, time.January, 10)

	if got := calc.Occurrences(rule, anchor, d(2025, time.January, 5), d(2025, time.January, 4)); got != nil {
		t.Errorf("inverted window should yield nothing, got %v", got)
	}
	if got := calc.Occurrences(rule, anchor, d(2025, time.January, 1), d(2025, time.January, 5)); got != nil {
		t.Errorf("window entirely before anchor should yield nothing, got %v", got)
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	anchor := d(2025, time.January, 6) // Monday

	t.Run("weekly series", func(t *testing.T) {
		t.Parallel()

		rule := models.RecurrenceRule{Type: models.RecurrenceWeekly}
		next := calc.Next(rule, anchor, anchor)
		if next == nil || !next.Equal(d(2025, time.January, 13)) {
			t.Errorf("expected next Monday, got %v", next)
		}
	})

	t.Run("end date in the past", func(t *testing.T) {
		t.Parallel()

		end := d(2025, time.January, 10)
		rule := models.RecurrenceRule{
			Type:         models.RecurrenceDaily,
			EndCondition: &models.EndCondition{Type: models.EndByDate, EndDate: &end},
		}
		if next := calc.Next(rule, anchor, d(2025, time.February, 1)); next != nil {
			t.Errorf("expected nil after the end date, got %v", next)
		}
	})

	t.Run("count exhausted", func(t *testing.T) {
		t.Parallel()

		rule := models.RecurrenceRule{
			Type:         models.RecurrenceDaily,
			EndCondition: &models.EndCondition{Type: models.EndByCount, Count: 3},
		}
		next := calc.Next(rule, anchor, d(2025, time.January, 7))
		if next == nil || !next.Equal(d(2025, time.January, 8)) {
			t.Errorf("expected the third occurrence, got %v", next)
		}
		if next := calc.Next(rule, anchor, d(2025, time.January, 8)); next != nil {
			t.Errorf("expected nil once the count is consumed, got %v", next)
		}
	})

	t.Run("yearly with wide gap", func(t *testing.T) {
		t.Parallel()

		rule := models.RecurrenceRule{Type: models.RecurrenceYearly, Interval: 4}
		next := calc.Next(rule, d(2024, time.February, 29), d(2024, time.March, 1))
		if next == nil || !next.Equal(d(2028, time.February, 29)) {
			t.Errorf("expected 2028-02-29, got %v", next)
		}
	})
}

func TestOccurrences_CachedResultsMatch(t *testing.T) {
	t.Parallel()

	calc := NewCalculatorWithCache(CacheConfig{TTL: time.Minute, MaxEntries: 10, CleanupInterval: time.Minute})
	defer calc.Close()

	rule := models.RecurrenceRule{Type: models.RecurrenceWeekly, DaysOfWeek: []int{2, 4}}
	anchor := d(2025, time.January, 1)
	start, end := d(2025, time.January, 1), d(2025, time.February, 28)

	first := calc.Occurrences(rule, anchor, start, end)
	second := calc.Occurrences(rule, anchor, start, end)
	assertDates(t, second, first...)
}
