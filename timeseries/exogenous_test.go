package timeseries

import (
	"testing"
	"time"
)

func TestCalendar_FixedHolidays(t *testing.T) {
	cal := NewCalendar()
	if !cal.IsHoliday(date(2025, 12, 25)) {
		t.Error("Christmas Day should be a holiday")
	}
	if !cal.IsHoliday(date(2025, 6, 12)) {
		t.Error("Independence Day should be a holiday")
	}
	if cal.IsHoliday(date(2025, 3, 14)) {
		t.Error("2025-03-14 should not be a holiday")
	}
}

func TestCalendar_NationalHeroesDay(t *testing.T) {
	cal := NewCalendar()
	// Last Monday of August 2025.
	if !cal.IsHoliday(date(2025, 8, 25)) {
		t.Error("2025-08-25 should be National Heroes Day")
	}
	if cal.IsHoliday(date(2025, 8, 18)) {
		t.Error("2025-08-18 is not the last Monday of August")
	}
}

func TestCalendar_Overrides(t *testing.T) {
	cal := NewCalendar()
	d := date(2025, 7, 7)
	if cal.IsHoliday(d) {
		t.Fatal("2025-07-07 should not be a built-in holiday")
	}
	cal.AddOverride(d, "local fiesta")
	if !cal.IsHoliday(d) {
		t.Error("Override date should be a holiday")
	}
}

func TestScheduledMonth(t *testing.T) {
	cases := []struct {
		plate string
		month time.Month
		ok    bool
	}{
		{"ABC 1231", time.January, true},
		{"ABC 1239", time.September, true},
		{"ABC 1230", time.October, true},
		{"NO DIGITS", 0, false},
	}
	for _, c := range cases {
		month, ok := ScheduledMonth(c.plate)
		if ok != c.ok || month != c.month {
			t.Errorf("ScheduledMonth(%q): expected (%v, %v), got (%v, %v)", c.plate, c.month, c.ok, month, ok)
		}
	}
}

func TestScheduledWeek(t *testing.T) {
	cases := []struct {
		plate string
		week  int
	}{
		{"ABC 1214", 1}, // second-to-last digit 1
		{"ABC 1234", 2}, // 3
		{"ABC 1254", 3}, // 5
		{"ABC 1274", 4}, // 7
		{"ABC 1294", 5}, // 9
		{"ABC 1204", 5}, // 0
	}
	for _, c := range cases {
		week, ok := ScheduledWeek(c.plate)
		if !ok || week != c.week {
			t.Errorf("ScheduledWeek(%q): expected %d, got %d (%v)", c.plate, c.week, week, ok)
		}
	}
}

func TestWeekOfMonth(t *testing.T) {
	if got := WeekOfMonth(date(2025, 3, 1)); got != 1 {
		t.Errorf("Day 1 should be week 1, got %d", got)
	}
	if got := WeekOfMonth(date(2025, 3, 8)); got != 2 {
		t.Errorf("Day 8 should be week 2, got %d", got)
	}
	if got := WeekOfMonth(date(2025, 3, 31)); got != 5 {
		t.Errorf("Day 31 should be week 5, got %d", got)
	}
}

func TestFutureExogenous_AlignsWithDates(t *testing.T) {
	dates := []time.Time{date(2025, 12, 25), date(2025, 12, 27), date(2025, 12, 29)}
	x := FutureExogenous(dates, NewCalendar())

	if x.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", x.Len())
	}
	holidays := x.Column(ColHoliday)
	if holidays[0] != 1 {
		t.Error("Christmas should carry the holiday flag")
	}
	weekends := x.Column(ColWeekend)
	if weekends[1] != 1 {
		t.Error("2025-12-27 is a Saturday and should carry the weekend flag")
	}
	for _, v := range x.Column(ColScheduledMonth) {
		if v != 0 {
			t.Error("Future rows must not carry scheduled flags")
		}
	}
}
