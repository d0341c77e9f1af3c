// Package timeseries turns irregular dated events into clean periodic
// count series and aligned exogenous indicator tables.
package timeseries

import (
	"errors"
	"math"
	"time"
)

// Granularity is the fixed stride of a periodic series.
type Granularity string

const (
	Daily  Granularity = "day"
	Weekly Granularity = "week"
)

// ParseGranularity converts a configuration string to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "day", "daily":
		return Daily, nil
	case "week", "weekly":
		return Weekly, nil
	}
	return "", errors.New("granularity must be \"day\" or \"week\"")
}

// Truncate snaps a timestamp down to its period-start date.
// Daily buckets start at midnight UTC; weekly buckets start on Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if g != Weekly {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	return day.AddDate(0, 0, -offset)
}

// Next returns the period-start immediately following d.
func (g Granularity) Next(d time.Time) time.Time {
	if g == Weekly {
		return d.AddDate(0, 0, 7)
	}
	return d.AddDate(0, 0, 1)
}

// AnchorWeekday is the day-of-week a period boundary falls on.
// Daily series have a boundary every day; weekly buckets open on Monday.
func (g Granularity) AnchorWeekday() (time.Weekday, bool) {
	if g == Weekly {
		return time.Monday, true
	}
	return time.Sunday, false
}

// Series is an ordered periodic count series: strictly increasing
// period-start dates at a fixed stride with no gaps.
type Series struct {
	Granularity Granularity
	Dates       []time.Time
	Values      []float64
}

// NewSeries creates a series from parallel date and value slices.
func NewSeries(g Granularity, dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, errors.New("dates and values must have the same length")
	}
	return &Series{Granularity: g, Dates: dates, Values: values}, nil
}

// Len returns the number of periods in the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// FirstDate returns the earliest period-start, zero when empty.
func (s *Series) FirstDate() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[0]
}

// LastDate returns the latest period-start, zero when empty.
func (s *Series) LastDate() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.Values)-1)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// NonZero returns the values of the series with zero periods removed.
func (s *Series) NonZero() []float64 {
	var out []float64
	for _, v := range s.Values {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}

// DistinctNonZero counts distinct non-zero values. A series with fewer
// than two is degenerate: statistical tests that need variance cannot run.
func (s *Series) DistinctNonZero() int {
	seen := make(map[float64]struct{})
	for _, v := range s.Values {
		if v != 0 {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Degenerate reports whether the series lacks enough variation to model.
func (s *Series) Degenerate() bool {
	return s.DistinctNonZero() < 2
}

// Slice returns a copy of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Granularity: s.Granularity}
	}
	dates := make([]time.Time, end-start)
	values := make([]float64, end-start)
	copy(dates, s.Dates[start:end])
	copy(values, s.Values[start:end])
	return &Series{Granularity: s.Granularity, Dates: dates, Values: values}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, s.Len())
}
