package timeseries

import (
	"fmt"
	"testing"
	"time"
)

func dailyEvents(start time.Time, days int, skip map[int]bool) []RawEvent {
	var out []RawEvent
	for i := 0; i < days; i++ {
		if skip[i] {
			continue
		}
		d := start.AddDate(0, 0, i)
		out = append(out, RawEvent{
			DedupKey:   fmt.Sprintf("ev-%d", i),
			OccurredAt: d,
		})
	}
	return out
}

func TestBuilder_GapFillZero(t *testing.T) {
	start := date(2025, 3, 1)
	// 12 consecutive days, one event per day, days 5-6 missing (indexes 4, 5).
	events := dailyEvents(start, 12, map[int]bool{4: true, 5: true})

	b := NewBuilder(Daily, FillZero, nil)
	series, exog, report, err := b.Build(events)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if series.Len() != 12 {
		t.Fatalf("Expected 12 periods, got %d", series.Len())
	}
	for i, v := range series.Values {
		want := 1.0
		if i == 4 || i == 5 {
			want = 0
		}
		if v != want {
			t.Errorf("Day %d: expected %.0f, got %.0f", i+1, want, v)
		}
	}
	if exog.Len() != series.Len() {
		t.Errorf("Exogenous table length %d does not match series length %d", exog.Len(), series.Len())
	}
	if report.TotalEvents != 10 {
		t.Errorf("Expected 10 events, got %d", report.TotalEvents)
	}
}

func TestBuilder_GapFillForward(t *testing.T) {
	start := date(2025, 3, 3)
	events := []RawEvent{
		{DedupKey: "a", OccurredAt: start},
		{DedupKey: "b", OccurredAt: start},
		{DedupKey: "c", OccurredAt: start.AddDate(0, 0, 3)},
	}

	b := NewBuilder(Daily, FillForward, nil)
	series, _, _, err := b.Build(events)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []float64{2, 2, 2, 1}
	if series.Len() != len(want) {
		t.Fatalf("Expected %d periods, got %d", len(want), series.Len())
	}
	for i, v := range want {
		if series.Values[i] != v {
			t.Errorf("Period %d: expected %.0f, got %.0f", i, v, series.Values[i])
		}
	}
}

func TestBuilder_StrictlyIncreasingNoGaps(t *testing.T) {
	events := dailyEvents(date(2025, 1, 15), 40, map[int]bool{3: true, 17: true, 18: true})

	b := NewBuilder(Daily, FillZero, nil)
	series, _, _, err := b.Build(events)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Dates[i].Equal(series.Dates[i-1].AddDate(0, 0, 1)) {
			t.Fatalf("Dates not contiguous at index %d: %v -> %v", i, series.Dates[i-1], series.Dates[i])
		}
	}
}

func TestBuilder_DedupIdempotent(t *testing.T) {
	events := dailyEvents(date(2025, 3, 1), 10, nil)
	duplicated := append(append([]RawEvent{}, events...), events...)

	b := NewBuilder(Daily, FillZero, nil)
	once, _, _, err := b.Build(events)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	twice, _, report, err := b.Build(duplicated)
	if err != nil {
		t.Fatalf("Build failed on duplicated input: %v", err)
	}

	if once.Len() != twice.Len() {
		t.Fatalf("Length changed on duplicated input: %d vs %d", once.Len(), twice.Len())
	}
	for i := range once.Values {
		if once.Values[i] != twice.Values[i] {
			t.Errorf("Value %d changed on duplicated input: %.0f vs %.0f", i, once.Values[i], twice.Values[i])
		}
	}
	if report.DuplicatesRemoved != len(events) {
		t.Errorf("Expected %d duplicates removed, got %d", len(events), report.DuplicatesRemoved)
	}
}

func TestBuilder_WeeklyTrailingZeroTrim(t *testing.T) {
	// Two events five weeks apart; the later one lands mid-week so the
	// final bucket is non-zero and only genuine interior gaps remain.
	events := []RawEvent{
		{DedupKey: "a", OccurredAt: date(2025, 1, 6)},
		{DedupKey: "b", OccurredAt: date(2025, 2, 12)},
	}

	b := NewBuilder(Weekly, FillZero, nil)
	series, _, _, err := b.Build(events)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if series.Values[series.Len()-1] == 0 {
		t.Error("Weekly series should not end in a zero bucket")
	}
}

func TestBuilder_EmptyInput(t *testing.T) {
	b := NewBuilder(Daily, FillZero, nil)
	if _, _, _, err := b.Build(nil); err == nil {
		t.Error("Expected error for empty input")
	}
}
