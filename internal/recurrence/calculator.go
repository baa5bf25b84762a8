package recurrence

import (
	"sort"
	"time"

	"github.com/benvon/taskdeck/internal/models"
)

// maxIterations caps how many candidate occurrences a single expansion will
// consider. Hitting the cap silently truncates the result; this bounds
// pathological rule/window combinations and is a documented limitation, not
// an error.
const maxIterations = 1000

// Calculator expands recurrence rules into concrete occurrence dates. All
// methods are pure with respect to persistence; dates are normalized to
// midnight UTC so calendar arithmetic is exact.
type Calculator struct {
	cache *Cache
}

// NewCalculator creates a calculator without result caching.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// NewCalculatorWithCache creates a calculator that memoizes expansion
// results for repeated rule+window lookups.
func NewCalculatorWithCache(cfg CacheConfig) *Calculator {
	return &Calculator{cache: NewCache(cfg)}
}

// Close releases the cache cleanup goroutine if caching is enabled.
func (c *Calculator) Close() {
	if c.cache != nil {
		c.cache.Stop()
	}
}

// normalizedRule is a rule with every optional field resolved against the
// anchor date. Producing it once per expansion keeps the per-type branches
// from re-deriving defaults independently.
type normalizedRule struct {
	ruleType   models.RecurrenceType
	interval   int
	daysOfWeek []int
	byMonthDay []int
	byMonth    []int
	byWeekDay  *models.NthWeekday
	anchor     time.Time
	endDate    *time.Time
	count      int
}

func normalize(rule models.RecurrenceRule, anchor time.Time) normalizedRule {
	n := normalizedRule{
		ruleType:  rule.Type,
		interval:  rule.Interval,
		byWeekDay: rule.ByWeekDay,
		anchor:    dateOnly(anchor),
	}
	if n.interval < 1 {
		n.interval = 1
	}

	n.daysOfWeek = sortedCopy(rule.DaysOfWeek)
	if len(n.daysOfWeek) == 0 {
		n.daysOfWeek = []int{int(n.anchor.Weekday())}
	}

	n.byMonthDay = sortedCopy(rule.ByMonthDay)
	if len(n.byMonthDay) == 0 {
		n.byMonthDay = []int{n.anchor.Day()}
	}

	n.byMonth = sortedCopy(rule.ByMonth)
	if len(n.byMonth) == 0 {
		n.byMonth = []int{int(n.anchor.Month())}
	}

	if ec := rule.EndCondition; ec != nil {
		switch ec.Type {
		case models.EndByDate:
			if ec.EndDate != nil {
				d := dateOnly(*ec.EndDate)
				n.endDate = &d
			}
		case models.EndByCount:
			n.count = ec.Count
		}
	}

	return n
}

// collector accumulates candidate occurrences, enforcing the window, the
// end condition, and the iteration guard in one place. Candidates must be
// fed in ascending order and never before the anchor.
type collector struct {
	out         []time.Time
	windowStart time.Time
	windowEnd   time.Time
	endDate     *time.Time
	count       int
	counted     int
	steps       int
}

// add records one candidate. It returns false when enumeration must stop.
// The end-condition checks run before the candidate is accepted so a
// count-bound series yields exactly count occurrences, never count+1.
func (c *collector) add(d time.Time) bool {
	c.steps++
	if c.steps > maxIterations {
		return false
	}
	if c.endDate != nil && d.After(*c.endDate) {
		return false
	}
	if c.count > 0 && c.counted >= c.count {
		return false
	}
	if d.After(c.windowEnd) {
		return false
	}
	c.counted++
	if !d.Before(c.windowStart) {
		c.out = append(c.out, d)
	}
	return true
}

// Occurrences enumerates the dates a rule produces within [windowStart,
// windowEnd], ascending and deduplicated, each at or after both the anchor
// and the window start. Invalid rules yield no occurrences.
func (c *Calculator) Occurrences(rule models.RecurrenceRule, anchor, windowStart, windowEnd time.Time) []time.Time {
	if !IsValid(rule) {
		return nil
	}

	n := normalize(rule, anchor)
	ws := dateOnly(windowStart)
	we := dateOnly(windowEnd)
	if ws.Before(n.anchor) {
		ws = n.anchor
	}
	if we.Before(ws) {
		return nil
	}

	if c.cache != nil {
		if dates, ok := c.cache.Get(rule, n.anchor, ws, we); ok {
			return dates
		}
	}

	col := &collector{windowStart: ws, windowEnd: we, endDate: n.endDate, count: n.count}
	switch n.ruleType {
	case models.RecurrenceDaily:
		expandDaily(n, col)
	case models.RecurrenceWeekly:
		expandWeekly(n, col)
	case models.RecurrenceMonthly:
		expandMonthly(n, col)
	case models.RecurrenceYearly:
		expandYearly(n, col)
	}

	if c.cache != nil {
		c.cache.Put(rule, n.anchor, ws, we, col.out)
	}
	return col.out
}

// Next returns the first occurrence strictly after from, or nil when the
// rule is exhausted (end condition reached) before producing one.
func (c *Calculator) Next(rule models.RecurrenceRule, anchor, from time.Time) *time.Time {
	start := dateOnly(from).AddDate(0, 0, 1)
	// 50 years is far beyond any realistic rule interval; the iteration
	// guard bounds the walk regardless.
	end := dateOnly(from).AddDate(50, 0, 0)
	occ := c.Occurrences(rule, anchor, start, end)
	if len(occ) == 0 {
		return nil
	}
	next := occ[0]
	return &next
}

// expandDaily walks the anchor-aligned day grid. When no count bound is in
// play the walk skips straight to the first aligned day inside the window;
// with a count bound every occurrence from the anchor must be counted.
func expandDaily(n normalizedRule, col *collector) {
	start := n.anchor
	if n.count == 0 && col.windowStart.After(start) {
		days := daysBetween(start, col.windowStart)
		if rem := days % n.interval; rem != 0 {
			days += n.interval - rem
		}
		start = start.AddDate(0, 0, days)
	}
	for d := start; ; d = d.AddDate(0, 0, n.interval) {
		if !col.add(d) {
			return
		}
	}
}

// expandWeekly enumerates interval-aligned week blocks starting from the
// anchor's week (Sunday-based). Non-aligned weeks are skipped entirely;
// matching weekdays within an included week come out in ascending order.
func expandWeekly(n normalizedRule, col *collector) {
	anchorWeek := startOfWeek(n.anchor)
	week := anchorWeek
	if n.count == 0 {
		if target := startOfWeek(col.windowStart); target.After(week) {
			weeks := daysBetween(anchorWeek, target) / 7
			weeks -= weeks % n.interval
			week = anchorWeek.AddDate(0, 0, weeks*7)
		}
	}
	for ; !week.After(col.windowEnd); week = week.AddDate(0, 0, 7*n.interval) {
		for _, wd := range n.daysOfWeek {
			d := week.AddDate(0, 0, wd)
			if d.Before(n.anchor) {
				continue
			}
			if !col.add(d) {
				return
			}
		}
	}
}

// expandMonthly steps the anchor's month forward by the interval, emitting
// either the Nth-weekday match or one date per by-month-day entry, clamped
// to the month's length.
func expandMonthly(n normalizedRule, col *collector) {
	base := firstOfMonth(n.anchor)
	k := 0
	if n.count == 0 {
		if months := monthsBetween(base, firstOfMonth(col.windowStart)); months > 0 {
			k = months - months%n.interval
		}
	}
	for ; ; k += n.interval {
		month := base.AddDate(0, k, 0)
		if month.After(col.windowEnd) {
			return
		}
		for _, d := range monthCandidates(month, n) {
			if d.Before(n.anchor) {
				continue
			}
			if !col.add(d) {
				return
			}
		}
	}
}

// expandYearly steps the anchor's year forward by the interval and emits the
// cross-product of by-month x by-month-day, with the same end-of-month
// clamping as monthly. A Feb 29 anchor therefore lands on Feb 28 in
// non-leap years, never Mar 1.
func expandYearly(n normalizedRule, col *collector) {
	year := n.anchor.Year()
	if n.count == 0 {
		if span := col.windowStart.Year() - year; span > 0 {
			year += span - span%n.interval
		}
	}
	for ; ; year += n.interval {
		if time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).After(col.windowEnd) {
			return
		}
		var last time.Time
		for _, m := range n.byMonth {
			month := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
			for _, dom := range n.byMonthDay {
				d := clampToMonth(month, dom)
				if d.Before(n.anchor) || d.Equal(last) {
					continue
				}
				last = d
				if !col.add(d) {
					return
				}
			}
		}
	}
}

// monthCandidates returns the ascending, deduplicated candidate dates for
// one month. Duplicates appear when several by-month-day entries clamp to
// the same short-month end.
func monthCandidates(month time.Time, n normalizedRule) []time.Time {
	if n.byWeekDay != nil {
		if d, ok := nthWeekday(month, *n.byWeekDay); ok {
			return []time.Time{d}
		}
		return nil
	}
	out := make([]time.Time, 0, len(n.byMonthDay))
	var last time.Time
	for _, dom := range n.byMonthDay {
		d := clampToMonth(month, dom)
		if d.Equal(last) {
			continue
		}
		last = d
		out = append(out, d)
	}
	return out
}

// nthWeekday resolves an Nth-weekday-of-month selector. ok is false when
// the month has no Nth occurrence of that weekday (e.g. a fifth Monday).
func nthWeekday(month time.Time, nw models.NthWeekday) (time.Time, bool) {
	offset := (nw.Weekday - int(month.Weekday()) + 7) % 7
	d := month.AddDate(0, 0, offset+7*(nw.Week-1))
	if d.Month() != month.Month() {
		return time.Time{}, false
	}
	return d, true
}

// clampToMonth returns the given day-of-month within the month, clamped to
// the month's last day so day 31 in a 30-day month never overflows into the
// next month.
func clampToMonth(month time.Time, dom int) time.Time {
	if last := daysInMonth(month); dom > last {
		dom = last
	}
	return time.Date(month.Year(), month.Month(), dom, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(month time.Time) int {
	return time.Date(month.Year(), month.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// dateOnly strips the clock and pins the calendar date to UTC midnight.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedCopy(v []int) []int {
	if len(v) == 0 {
		return nil
	}
	out := make([]int, len(v))
	copy(out, v)
	sort.Ints(out)
	return out
}
