package stats

import (
	"math"
)

// ACF calculates the autocorrelation function for lags 0 to maxLag.
// Returns nil when the series has no variance.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf
}

// PACF calculates the partial autocorrelation function using the
// Durbin-Levinson recursion. Returns values for lags 0 to maxLag.
func PACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	acf := ACF(values, maxLag)
	if acf == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1.0

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}
	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}
		if den == 0 {
			pacf[k] = 0
			continue
		}
		phi[k][k] = num / den
		pacf[k] = phi[k][k]
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}
	return pacf
}

// Correlogram bundles ACF or PACF values with their 95% confidence bound.
type Correlogram struct {
	Lags      []int     `json:"lags"`
	Values    []float64 `json:"values"`
	ConfBound float64   `json:"conf_bound"`
}

// ACFWithConfidence calculates the ACF with its confidence bound.
func ACFWithConfidence(values []float64, maxLag int) *Correlogram {
	acf := ACF(values, maxLag)
	if acf == nil {
		return nil
	}
	return newCorrelogram(acf, len(values))
}

// PACFWithConfidence calculates the PACF with its confidence bound.
func PACFWithConfidence(values []float64, maxLag int) *Correlogram {
	pacf := PACF(values, maxLag)
	if pacf == nil {
		return nil
	}
	return newCorrelogram(pacf, len(values))
}

func newCorrelogram(vals []float64, n int) *Correlogram {
	lags := make([]int, len(vals))
	for i := range lags {
		lags[i] = i
	}
	return &Correlogram{
		Lags:      lags,
		Values:    vals,
		ConfBound: 1.96 / math.Sqrt(float64(n)),
	}
}
