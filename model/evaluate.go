package model

import (
	"math"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/stats"
)

// Metrics holds forecast error metrics for one evaluation window. MAPE is
// a pointer because it is undefined when every actual in the window is
// zero.
type Metrics struct {
	MAE  float64  `json:"mae"`
	RMSE float64  `json:"rmse"`
	MAPE *float64 `json:"mape,omitempty"`
	R2   float64  `json:"r2"`
	N    int      `json:"n"`
}

// Evaluate compares predictions against actuals over an aligned window.
func Evaluate(actual, predicted []float64) *Metrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return nil
	}

	sumAbs := 0.0
	sumSq := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sumAbs += math.Abs(diff)
		sumSq += diff * diff
	}

	m := &Metrics{
		MAE:  sumAbs / float64(n),
		RMSE: math.Sqrt(sumSq / float64(n)),
		N:    n,
	}
	m.MAPE = mape(actual, predicted)

	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(n)
	tss := 0.0
	for _, v := range actual {
		d := v - mean
		tss += d * d
	}
	if tss > 0 {
		m.R2 = 1 - sumSq/tss
	}
	return m
}

// mape computes mean absolute percentage error over non-zero actuals
// only. Returns nil when the window has no non-zero actuals.
func mape(actual, predicted []float64) *float64 {
	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i]-predicted[i])/actual[i]) * 100
		count++
	}
	if count == 0 {
		return nil
	}
	v := sum / float64(count)
	return &v
}

// IntervalCoverage is the fraction of actuals falling inside the
// forecast interval. Returns -1 when the window is empty or misaligned.
func IntervalCoverage(actual, lower, upper []float64) float64 {
	n := len(actual)
	if n == 0 || n != len(lower) || n != len(upper) {
		return -1
	}
	inside := 0
	for i := range actual {
		if actual[i] >= lower[i] && actual[i] <= upper[i] {
			inside++
		}
	}
	return float64(inside) / float64(n)
}

// Diagnostics bundles residual checks for a fitted model. Fields are nil
// when the underlying test could not run; a test failure never blocks
// training.
type Diagnostics struct {
	LjungBox   *stats.LjungBoxResult `json:"ljung_box,omitempty"`
	WhiteNoise bool                  `json:"white_noise"`
	ACF        *stats.Correlogram    `json:"acf,omitempty"`
	PACF       *stats.Correlogram    `json:"pacf,omitempty"`
}

// Diagnose runs residual diagnostics on a fitted model.
func Diagnose(m *SARIMAX) *Diagnostics {
	if m == nil || !m.Trained {
		return nil
	}
	resid := m.Resid

	lags := 10
	if half := len(resid) / 2; half < lags {
		lags = half
	}
	if lags < 1 {
		return &Diagnostics{}
	}

	d := &Diagnostics{
		LjungBox: stats.LjungBox(resid, lags, m.Order.NumParams()-1),
		ACF:      stats.ACFWithConfidence(resid, lags),
		PACF:     stats.PACFWithConfidence(resid, lags),
	}
	if d.LjungBox != nil {
		d.WhiteNoise = d.LjungBox.WhiteNoise()
	}
	return d
}
