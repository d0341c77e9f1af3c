package timeseries

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGranularity_TruncateDaily(t *testing.T) {
	in := time.Date(2025, 3, 14, 17, 45, 12, 0, time.UTC)
	got := Daily.Truncate(in)
	if !got.Equal(date(2025, 3, 14)) {
		t.Errorf("Expected 2025-03-14, got %v", got)
	}
}

func TestGranularity_TruncateWeeklyToMonday(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2025, 3, 12), date(2025, 3, 10)}, // Wednesday -> Monday
		{date(2025, 3, 10), date(2025, 3, 10)}, // Monday stays
		{date(2025, 3, 16), date(2025, 3, 10)}, // Sunday -> previous Monday
	}
	for _, c := range cases {
		if got := Weekly.Truncate(c.in); !got.Equal(c.want) {
			t.Errorf("Truncate(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestGranularity_Next(t *testing.T) {
	if got := Daily.Next(date(2025, 12, 31)); !got.Equal(date(2026, 1, 1)) {
		t.Errorf("Expected 2026-01-01, got %v", got)
	}
	if got := Weekly.Next(date(2025, 3, 10)); !got.Equal(date(2025, 3, 17)) {
		t.Errorf("Expected 2025-03-17, got %v", got)
	}
}

func TestGranularity_AnchorWeekday(t *testing.T) {
	if wd, ok := Weekly.AnchorWeekday(); !ok || wd != time.Monday {
		t.Errorf("Expected Monday anchor for weekly, got %v (%v)", wd, ok)
	}
	if _, ok := Daily.AnchorWeekday(); ok {
		t.Error("Daily granularity should not report an anchor weekday")
	}
}

func TestSeries_Degenerate(t *testing.T) {
	s := &Series{Values: []float64{0, 0, 5, 0, 5, 5}}
	if !s.Degenerate() {
		t.Error("Series with one distinct non-zero value should be degenerate")
	}
	s = &Series{Values: []float64{0, 3, 5, 0, 5, 5}}
	if s.Degenerate() {
		t.Error("Series with two distinct non-zero values should not be degenerate")
	}
}

func TestSeries_Slice(t *testing.T) {
	s := &Series{
		Granularity: Daily,
		Dates:       []time.Time{date(2025, 1, 1), date(2025, 1, 2), date(2025, 1, 3)},
		Values:      []float64{1, 2, 3},
	}
	sub := s.Slice(0, 2)
	if sub.Len() != 2 || sub.Values[1] != 2 {
		t.Errorf("Unexpected slice: %+v", sub)
	}
	sub.Values[0] = 99
	if s.Values[0] == 99 {
		t.Error("Slice must not share backing storage with the parent")
	}
}
