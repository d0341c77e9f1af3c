package timeseries

import (
	"time"
)

// Exogenous column names, in fixed order.
const (
	ColWeekend          = "is_weekend"
	ColHoliday          = "is_holiday"
	ColWeekendOrHoliday = "is_weekend_or_holiday"
	ColWeekday          = "weekday"
	ColMonth            = "month"
	ColScheduledMonth   = "is_scheduled_month"
	ColScheduledWeek    = "is_scheduled_week"
)

// ExogColumns lists every indicator column an exogenous table carries.
var ExogColumns = []string{
	ColWeekend,
	ColHoliday,
	ColWeekendOrHoliday,
	ColWeekday,
	ColMonth,
	ColScheduledMonth,
	ColScheduledWeek,
}

// Exogenous is a table of calendar indicator variables sharing the exact
// index of the periodic series it accompanies.
type Exogenous struct {
	Dates   []time.Time
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows in the table.
func (x *Exogenous) Len() int {
	return len(x.Rows)
}

// ColumnIndex returns the position of a named column, -1 when absent.
func (x *Exogenous) ColumnIndex(name string) int {
	for i, c := range x.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a named column's values, nil when absent.
func (x *Exogenous) Column(name string) []float64 {
	idx := x.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(x.Rows))
	for i, row := range x.Rows {
		out[i] = row[idx]
	}
	return out
}

// Slice returns rows start to end (exclusive), copied.
func (x *Exogenous) Slice(start, end int) *Exogenous {
	if start < 0 {
		start = 0
	}
	if end > len(x.Rows) {
		end = len(x.Rows)
	}
	if start >= end {
		return &Exogenous{Columns: x.Columns}
	}
	dates := make([]time.Time, end-start)
	copy(dates, x.Dates[start:end])
	rows := make([][]float64, end-start)
	for i := range rows {
		rows[i] = make([]float64, len(x.Rows[start+i]))
		copy(rows[i], x.Rows[start+i])
	}
	return &Exogenous{Dates: dates, Columns: x.Columns, Rows: rows}
}

// Calendar answers holiday queries from the built-in regular Philippine
// holiday set unioned with user-supplied override dates. An override for a
// date the built-in set already covers still yields a single flag.
type Calendar struct {
	overrides map[string]string // yyyy-mm-dd -> category
}

// NewCalendar creates a calendar with only the built-in holiday set.
func NewCalendar() *Calendar {
	return &Calendar{overrides: make(map[string]string)}
}

// AddOverride marks a date as a holiday with a free-form category.
func (c *Calendar) AddOverride(date time.Time, category string) {
	c.overrides[date.Format("2006-01-02")] = category
}

// fixed-date regular and special non-working holidays
var fixedHolidays = map[[2]int]string{
	{1, 1}:   "New Year's Day",
	{2, 25}:  "EDSA People Power Anniversary",
	{4, 9}:   "Araw ng Kagitingan",
	{5, 1}:   "Labor Day",
	{6, 12}:  "Independence Day",
	{8, 21}:  "Ninoy Aquino Day",
	{11, 1}:  "All Saints' Day",
	{11, 2}:  "All Souls' Day",
	{11, 30}: "Bonifacio Day",
	{12, 8}:  "Feast of the Immaculate Conception",
	{12, 25}: "Christmas Day",
	{12, 30}: "Rizal Day",
	{12, 31}: "Last Day of the Year",
}

// IsHoliday reports whether t falls on a holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if _, ok := c.overrides[t.Format("2006-01-02")]; ok {
		return true
	}
	if _, ok := fixedHolidays[[2]int{int(t.Month()), t.Day()}]; ok {
		return true
	}
	// National Heroes Day: last Monday of August
	if t.Month() == time.August && t.Weekday() == time.Monday && t.Day() > 24 {
		return true
	}
	return false
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// scheduledFlags marks whether a period fell inside its cohort's
// plate-scheduled renewal month and week.
type scheduledFlags struct {
	month bool
	week  bool
}

// buildExogenous derives the indicator table for a set of period dates.
// sched may be nil when the raw events carried no plate identifiers.
func buildExogenous(dates []time.Time, cal *Calendar, sched map[time.Time]scheduledFlags) *Exogenous {
	if cal == nil {
		cal = NewCalendar()
	}
	rows := make([][]float64, len(dates))
	for i, d := range dates {
		weekend := boolFlag(IsWeekend(d))
		holiday := boolFlag(cal.IsHoliday(d))
		either := weekend
		if holiday == 1 {
			either = 1
		}
		var schedMonth, schedWeek float64
		if sched != nil {
			if f, ok := sched[d]; ok {
				schedMonth = boolFlag(f.month)
				schedWeek = boolFlag(f.week)
			}
		}
		rows[i] = []float64{
			weekend,
			holiday,
			either,
			float64(d.Weekday()),
			float64(d.Month()),
			schedMonth,
			schedWeek,
		}
	}
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return &Exogenous{Dates: out, Columns: ExogColumns, Rows: rows}
}

// FutureExogenous derives indicator rows for forecast dates. Scheduled
// flags stay zero: they depend on observed plate cohorts, which future
// periods do not have yet.
func FutureExogenous(dates []time.Time, cal *Calendar) *Exogenous {
	return buildExogenous(dates, cal, nil)
}

func boolFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ScheduledMonth derives a plate's renewal month from its last digit
// (1 -> January ... 9 -> September, 0 -> October).
func ScheduledMonth(plate string) (time.Month, bool) {
	d, ok := lastDigit(plate, 0)
	if !ok {
		return 0, false
	}
	if d == 0 {
		return time.October, true
	}
	return time.Month(d), true
}

// ScheduledWeek derives a plate's renewal week of month from its
// second-to-last digit (1-2 -> week 1, 3-4 -> 2, 5-6 -> 3, 7-8 -> 4,
// 9-0 -> week 5, the last working days).
func ScheduledWeek(plate string) (int, bool) {
	d, ok := lastDigit(plate, 1)
	if !ok {
		return 0, false
	}
	switch d {
	case 1, 2:
		return 1, true
	case 3, 4:
		return 2, true
	case 5, 6:
		return 3, true
	case 7, 8:
		return 4, true
	default:
		return 5, true
	}
}

// lastDigit returns the nth digit from the right of the identifier,
// skipping non-digit characters.
func lastDigit(s string, nth int) (int, bool) {
	seen := 0
	for i := len(s) - 1; i >= 0; i-- {
		ch := s[i]
		if ch < '0' || ch > '9' {
			continue
		}
		if seen == nth {
			return int(ch - '0'), true
		}
		seen++
	}
	return 0, false
}

// WeekOfMonth returns the 1-based week a date falls in (days 1-7 are
// week 1, and so on).
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}
