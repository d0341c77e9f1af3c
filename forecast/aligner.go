// Package forecast maps raw N-step-ahead model output onto real calendar
// dates and aggregates it for presentation.
package forecast

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

// DateSource tags where the last-observed date used for alignment came
// from. The bucket fallback exists for artifacts persisted before the
// last-observed date was recorded and is the least trustworthy path.
type DateSource string

const (
	FromFit            DateSource = "fit"
	FromMetadata       DateSource = "metadata"
	FromBucketFallback DateSource = "bucket_fallback"
)

// ResolvedDate is a last-observed date together with its provenance.
type ResolvedDate struct {
	Date   time.Time  `json:"date"`
	Source DateSource `json:"source"`
}

// ResolveLastObserved picks the true last-observed event date in strict
// preference order: the in-memory fit, then persisted metadata, then the
// last bucket boundary. The bucket path is logged as a warning because a
// bucket start can precede the real last event by most of a period.
func ResolveLastObserved(fitDate, metaDate *time.Time, bucketDate time.Time, log *logrus.Entry) ResolvedDate {
	if fitDate != nil && !fitDate.IsZero() {
		return ResolvedDate{Date: *fitDate, Source: FromFit}
	}
	if metaDate != nil && !metaDate.IsZero() {
		return ResolvedDate{Date: *metaDate, Source: FromMetadata}
	}
	if log != nil {
		log.WithField("bucket_date", bucketDate.Format("2006-01-02")).
			Warn("last observed date missing, falling back to bucket boundary; forecast dates may be early")
	}
	return ResolvedDate{Date: bucketDate, Source: FromBucketFallback}
}

// NextAnchor computes the first forecast date after lastObserved: the
// first day of the following calendar month, snapped forward to the
// period's anchor weekday, and pushed one more period if the result is
// not strictly after lastObserved.
func NextAnchor(lastObserved time.Time, g timeseries.Granularity) time.Time {
	firstOfNext := time.Date(lastObserved.Year(), lastObserved.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)

	anchor := firstOfNext
	if weekday, ok := g.AnchorWeekday(); ok {
		for anchor.Weekday() != weekday {
			anchor = anchor.AddDate(0, 0, 1)
		}
	}
	if !anchor.After(lastObserved) {
		anchor = g.Next(anchor)
	}
	return anchor
}

// Dates generates n consecutive period-start dates from the first anchor.
func Dates(first time.Time, n int, g timeseries.Granularity) []time.Time {
	out := make([]time.Time, n)
	d := first
	for i := 0; i < n; i++ {
		out[i] = d
		d = g.Next(d)
	}
	return out
}
