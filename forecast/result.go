package forecast

import (
	"time"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

// Point is one dated forecast entry with its prediction interval.
type Point struct {
	Date     time.Time `json:"date"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// Result is a dated forecast for one entity. LastObserved and the first
// point's date are both included so clients can verify the alignment.
type Result struct {
	EntityKey    string                 `json:"entity_key,omitempty"`
	Granularity  timeseries.Granularity `json:"granularity"`
	LastObserved ResolvedDate           `json:"last_observed"`
	Points       []Point                `json:"points"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// FirstForecastDate returns the date of the first point, zero when empty.
func (r *Result) FirstForecastDate() time.Time {
	if len(r.Points) == 0 {
		return time.Time{}
	}
	return r.Points[0].Date
}

// NewResult assembles dated points from raw model output, clamping every
// estimate and bound at zero. Counts cannot be negative.
func NewResult(entity string, g timeseries.Granularity, last ResolvedDate, dates []time.Time, point, lower, upper []float64) *Result {
	points := make([]Point, len(dates))
	for i := range dates {
		points[i] = Point{
			Date:     dates[i],
			Forecast: clampZero(point[i]),
			Lower:    clampZero(lower[i]),
			Upper:    clampZero(upper[i]),
		}
	}
	return &Result{
		EntityKey:    entity,
		Granularity:  g,
		LastObserved: last,
		Points:       points,
		GeneratedAt:  time.Now().UTC(),
	}
}

// MonthlyPoint is a calendar-month aggregate of finer-grained points.
type MonthlyPoint struct {
	Month    time.Time `json:"month"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
	Periods  int       `json:"periods"`
}

// AggregateMonthly sums points into calendar months. Each field is summed
// independently so the monthly bounds are exact sums of the period
// bounds. Weekly points are attributed to the month their period starts
// in.
func (r *Result) AggregateMonthly() []MonthlyPoint {
	var out []MonthlyPoint
	for _, p := range r.Points {
		month := time.Date(p.Date.Year(), p.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		if len(out) == 0 || !out[len(out)-1].Month.Equal(month) {
			out = append(out, MonthlyPoint{Month: month})
		}
		last := &out[len(out)-1]
		last.Forecast += p.Forecast
		last.Lower += p.Lower
		last.Upper += p.Upper
		last.Periods++
	}
	return out
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
