package timeseries

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FillPolicy decides what value a missing bucket receives.
type FillPolicy string

const (
	FillZero    FillPolicy = "zero"
	FillForward FillPolicy = "forward"
)

// ParseFillPolicy converts a configuration string to a FillPolicy.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch s {
	case "zero":
		return FillZero, nil
	case "forward", "ffill":
		return FillForward, nil
	}
	return "", errors.New("fill policy must be \"zero\" or \"forward\"")
}

// RawEvent is a single dated source record (a registration, an accident).
type RawEvent struct {
	EntityKey  string    // optional region identifier
	DedupKey   string    // stable natural key; re-ingesting the same record never double-counts
	OccurredAt time.Time // event date
	Plate      string    // optional identifier carrying the renewal schedule digits
}

// ProcessingReport summarizes what the builder saw in the raw events.
type ProcessingReport struct {
	FirstEventDate    time.Time `json:"first_event_date"`
	LastEventDate     time.Time `json:"last_event_date"`
	TotalEvents       int       `json:"total_events"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	Periods           int       `json:"periods"`
	TrailingTrimmed   int       `json:"trailing_trimmed"`
}

// Builder aggregates raw events into a complete gap-free periodic series
// with an aligned exogenous indicator table.
type Builder struct {
	Granularity Granularity
	Fill        FillPolicy
	Calendar    *Calendar
	log         *logrus.Entry
}

// NewBuilder creates a builder for the given granularity and fill policy.
func NewBuilder(g Granularity, fill FillPolicy, cal *Calendar) *Builder {
	if cal == nil {
		cal = NewCalendar()
	}
	return &Builder{
		Granularity: g,
		Fill:        fill,
		Calendar:    cal,
		log:         logrus.WithField("component", "series_builder"),
	}
}

// Build produces the periodic series, its exogenous table, and a report.
// Events with duplicate natural keys collapse to a single count, so the
// result is identical no matter how many times the same source file is
// ingested.
func (b *Builder) Build(events []RawEvent) (*Series, *Exogenous, *ProcessingReport, error) {
	if len(events) == 0 {
		return nil, nil, nil, errors.New("no events to aggregate")
	}

	report := &ProcessingReport{}
	seen := make(map[string]struct{}, len(events))
	counts := make(map[time.Time]float64)
	sched := make(map[time.Time]scheduledFlags)

	var first, last time.Time
	for _, ev := range events {
		if ev.OccurredAt.IsZero() {
			return nil, nil, nil, fmt.Errorf("event %q has no date", ev.DedupKey)
		}
		key := ev.DedupKey
		if key == "" {
			key = ev.EntityKey + "|" + ev.OccurredAt.UTC().Format(time.RFC3339Nano) + "|" + ev.Plate
		}
		if _, dup := seen[key]; dup {
			report.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		report.TotalEvents++

		if first.IsZero() || ev.OccurredAt.Before(first) {
			first = ev.OccurredAt
		}
		if ev.OccurredAt.After(last) {
			last = ev.OccurredAt
		}

		bucket := b.Granularity.Truncate(ev.OccurredAt)
		counts[bucket]++
		b.markScheduled(sched, bucket, ev)
	}
	report.FirstEventDate = first
	report.LastEventDate = last

	dates, values := b.reindex(counts, first, last)

	if b.Granularity == Weekly {
		dates, values, report.TrailingTrimmed = trimTrailingZeros(dates, values)
		if report.TrailingTrimmed > 0 {
			b.log.WithField("trimmed", report.TrailingTrimmed).
				Warn("dropped trailing all-zero weekly buckets")
		}
	}
	if len(dates) == 0 {
		return nil, nil, nil, errors.New("aggregation produced an empty series")
	}
	report.Periods = len(dates)

	series := &Series{Granularity: b.Granularity, Dates: dates, Values: values}
	exog := buildExogenous(dates, b.Calendar, sched)

	b.log.WithFields(logrus.Fields{
		"events":     report.TotalEvents,
		"duplicates": report.DuplicatesRemoved,
		"periods":    report.Periods,
		"first":      first.Format("2006-01-02"),
		"last":       last.Format("2006-01-02"),
	}).Info("built periodic series")

	return series, exog, report, nil
}

// markScheduled flags the bucket when the event's plate cohort was due for
// renewal in the event's month (and week of month).
func (b *Builder) markScheduled(sched map[time.Time]scheduledFlags, bucket time.Time, ev RawEvent) {
	if ev.Plate == "" {
		return
	}
	month, ok := ScheduledMonth(ev.Plate)
	if !ok || ev.OccurredAt.Month() != month {
		return
	}
	f := sched[bucket]
	f.month = true
	if week, ok := ScheduledWeek(ev.Plate); ok && WeekOfMonth(ev.OccurredAt) == week {
		f.week = true
	}
	sched[bucket] = f
}

// reindex walks the complete bucket range from the earliest to the latest
// observed bucket, filling gaps per the configured policy. Forward fill
// carries the last known count; both policies fall back to zero before any
// real value exists.
func (b *Builder) reindex(counts map[time.Time]float64, first, last time.Time) ([]time.Time, []float64) {
	start := b.Granularity.Truncate(first)
	end := b.Granularity.Truncate(last)

	var dates []time.Time
	var values []float64
	prev := 0.0
	havePrev := false

	for d := start; !d.After(end); d = b.Granularity.Next(d) {
		v, ok := counts[d]
		if !ok {
			if b.Fill == FillForward && havePrev {
				v = prev
			} else {
				v = 0
			}
		} else {
			prev = v
			havePrev = true
		}
		dates = append(dates, d)
		values = append(values, v)
	}
	return dates, values
}

// trimTrailingZeros drops all-zero buckets from the right edge. Zero
// padding suits dense daily data but distorts sparse weekly series.
func trimTrailingZeros(dates []time.Time, values []float64) ([]time.Time, []float64, int) {
	end := len(values)
	for end > 0 && values[end-1] == 0 {
		end--
	}
	trimmed := len(values) - end
	return dates[:end], values[:end], trimmed
}
