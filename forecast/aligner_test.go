package forecast

import (
	"testing"
	"time"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveLastObserved_PrefersFit(t *testing.T) {
	fit := date(2025, 7, 31)
	meta := date(2025, 7, 28)
	got := ResolveLastObserved(&fit, &meta, date(2025, 7, 21), nil)
	if got.Source != FromFit || !got.Date.Equal(fit) {
		t.Errorf("Expected fit date, got %+v", got)
	}
}

func TestResolveLastObserved_FallsBackToMetadata(t *testing.T) {
	meta := date(2025, 7, 28)
	got := ResolveLastObserved(nil, &meta, date(2025, 7, 21), nil)
	if got.Source != FromMetadata || !got.Date.Equal(meta) {
		t.Errorf("Expected metadata date, got %+v", got)
	}
}

func TestResolveLastObserved_BucketFallback(t *testing.T) {
	bucket := date(2025, 7, 21)
	got := ResolveLastObserved(nil, nil, bucket, nil)
	if got.Source != FromBucketFallback || !got.Date.Equal(bucket) {
		t.Errorf("Expected bucket fallback, got %+v", got)
	}
}

func TestNextAnchor_EndOfJuly(t *testing.T) {
	// 2025-08-01 is a Friday; the first Monday on/after it is 2025-08-04.
	got := NextAnchor(date(2025, 7, 31), timeseries.Weekly)
	if !got.Equal(date(2025, 8, 4)) {
		t.Errorf("Expected 2025-08-04, got %v", got)
	}
	if !got.After(date(2025, 7, 31)) {
		t.Error("First forecast date must be strictly after the last observed date")
	}
}

func TestNextAnchor_DecemberRollsToJanuary(t *testing.T) {
	got := NextAnchor(date(2025, 12, 15), timeseries.Daily)
	if !got.Equal(date(2026, 1, 1)) {
		t.Errorf("Expected 2026-01-01, got %v", got)
	}
}

func TestNextAnchor_SnapsToMonday(t *testing.T) {
	// 2025-10-01 is a Wednesday; the weekly anchor lands on the 6th.
	got := NextAnchor(date(2025, 9, 1), timeseries.Weekly)
	if !got.After(date(2025, 9, 1)) {
		t.Errorf("Anchor %v is not strictly after the last observed date", got)
	}
	if !got.Equal(date(2025, 10, 6)) {
		t.Errorf("Expected 2025-10-06, got %v", got)
	}
}

func TestDates_FixedStride(t *testing.T) {
	out := Dates(date(2025, 8, 4), 3, timeseries.Weekly)
	want := []time.Time{date(2025, 8, 4), date(2025, 8, 11), date(2025, 8, 18)}
	for i := range want {
		if !out[i].Equal(want[i]) {
			t.Errorf("Index %d: expected %v, got %v", i, want[i], out[i])
		}
	}
}

func TestNewResult_ClampsNegatives(t *testing.T) {
	dates := Dates(date(2025, 8, 4), 3, timeseries.Weekly)
	r := NewResult("", timeseries.Weekly, ResolvedDate{Date: date(2025, 7, 31), Source: FromFit},
		dates,
		[]float64{5, -2, 3},
		[]float64{-4, -8, 1},
		[]float64{9, 0.5, 6})

	for _, p := range r.Points {
		if p.Forecast < 0 || p.Lower < 0 || p.Upper < 0 {
			t.Errorf("Negative value survived clamping: %+v", p)
		}
	}
}

func TestAggregateMonthly_ExactSums(t *testing.T) {
	// Weekly points spanning the August/September boundary.
	dates := Dates(date(2025, 8, 4), 6, timeseries.Weekly)
	point := []float64{10, 20, 30, 40, 50, 60}
	lower := []float64{5, 15, 25, 35, 45, 55}
	upper := []float64{15, 25, 35, 45, 55, 65}
	r := NewResult("", timeseries.Weekly, ResolvedDate{Date: date(2025, 7, 31), Source: FromFit},
		dates, point, lower, upper)

	months := r.AggregateMonthly()
	if len(months) != 2 {
		t.Fatalf("Expected 2 months, got %d", len(months))
	}
	// August holds weeks starting 4, 11, 18, 25.
	aug := months[0]
	if aug.Periods != 4 || aug.Forecast != 100 || aug.Lower != 80 || aug.Upper != 120 {
		t.Errorf("Unexpected August aggregate: %+v", aug)
	}
	sep := months[1]
	if sep.Periods != 2 || sep.Forecast != 110 {
		t.Errorf("Unexpected September aggregate: %+v", sep)
	}
}
