package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/stats"
)

// SARIMAX is a seasonal ARIMA model with optional exogenous regression:
// the series is first regressed on the indicator columns, then a seasonal
// ARIMA is fitted to the regression errors. Stationarity and invertibility
// are not strictly enforced — operational count data routinely violates
// the textbook assumptions and the fit must still converge.
//
// All fields are exported so a fitted model round-trips through gob.
type SARIMAX struct {
	Order Order

	// Exogenous regression. ExogIdx maps kept columns back to positions
	// in caller-supplied rows; constant columns are pruned before the
	// regression and receive no coefficient.
	ExogNames     []string
	ExogIdx       []int
	ExogCoeffs    []float64
	ExogIntercept float64

	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Mean      float64

	Variance float64
	LogLik   float64
	AIC      float64
	BIC      float64

	TrainY     []float64 // original training series
	ArimaY     []float64 // series the ARIMA stage was fitted on
	DiffY      []float64 // after non-seasonal then seasonal differencing
	Resid      []float64 // residuals on the differenced scale
	FittedVals []float64 // one-step fitted values on the original scale

	Trained bool
}

// NewSARIMAX creates an unfitted model of the given order. exogNames may
// be nil for a pure SARIMA.
func NewSARIMAX(order Order, exogNames []string) *SARIMAX {
	return &SARIMAX{
		Order:     order,
		ExogNames: exogNames,
		ARCoeffs:  make([]float64, order.P),
		MACoeffs:  make([]float64, order.Q),
		SARCoeffs: make([]float64, order.SP),
		SMACoeffs: make([]float64, order.SQ),
	}
}

// Fit estimates the model on the training series. exog must be nil or
// carry exactly one row per observation.
func (m *SARIMAX) Fit(values []float64, exog [][]float64) error {
	if len(values) < m.Order.MinObservations() {
		return fmt.Errorf("insufficient data: %d periods, order %s needs at least %d",
			len(values), m.Order, m.Order.MinObservations())
	}
	if exog != nil && len(exog) != len(values) {
		return fmt.Errorf("exogenous rows (%d) do not match series length (%d)", len(exog), len(values))
	}

	m.TrainY = append([]float64(nil), values...)

	if err := m.fitRegression(values, exog); err != nil {
		return err
	}

	// Difference the regression errors: non-seasonal first, then seasonal.
	diffed := m.ArimaY
	for i := 0; i < m.Order.D; i++ {
		diffed = difference(diffed, 1)
		if len(diffed) == 0 {
			return errors.New("differencing produced an empty series")
		}
	}
	for i := 0; i < m.Order.SD; i++ {
		diffed = difference(diffed, m.Order.Season)
		if len(diffed) == 0 {
			return errors.New("seasonal differencing produced an empty series")
		}
	}
	m.DiffY = diffed

	if err := m.estimate(); err != nil {
		return err
	}
	m.informationCriteria()
	m.fittedOnOriginalScale()
	m.Trained = true
	return nil
}

// fitRegression removes the exogenous effect from the series. Pruning
// keeps only columns with variance; when nothing survives the ARIMA stage
// sees the raw series.
func (m *SARIMAX) fitRegression(values []float64, exog [][]float64) error {
	m.ExogIdx = nil
	m.ExogCoeffs = nil
	m.ExogIntercept = 0

	if exog == nil || len(m.ExogNames) == 0 {
		m.ArimaY = append([]float64(nil), values...)
		return nil
	}

	width := len(exog[0])
	var kept []int
	for j := 0; j < width && j < len(m.ExogNames); j++ {
		firstVal := exog[0][j]
		for i := 1; i < len(exog); i++ {
			if exog[i][j] != firstVal {
				kept = append(kept, j)
				break
			}
		}
	}
	if len(kept) == 0 {
		m.ArimaY = append([]float64(nil), values...)
		return nil
	}

	x := mat.NewDense(len(values), len(kept)+1, nil)
	y := mat.NewVecDense(len(values), nil)
	for i := range values {
		y.SetVec(i, values[i])
		x.Set(i, 0, 1)
		for j, col := range kept {
			x.Set(i, j+1, exog[i][col])
		}
	}
	coef, _, err := stats.OLS(x, y)
	if err != nil {
		// Collinear indicators; proceed without the exogenous stage.
		m.ArimaY = append([]float64(nil), values...)
		return nil
	}

	m.ExogIdx = kept
	m.ExogIntercept = coef[0]
	m.ExogCoeffs = coef[1:]
	names := make([]string, len(kept))
	for j, col := range kept {
		names[j] = m.ExogNames[col]
	}
	m.ExogNames = names

	m.ArimaY = make([]float64, len(values))
	for i := range values {
		m.ArimaY[i] = values[i] - m.exogEffectRow(exog[i])
	}
	return nil
}

// exogEffectRow evaluates the fitted regression on one indicator row.
func (m *SARIMAX) exogEffectRow(row []float64) float64 {
	effect := m.ExogIntercept
	for j, col := range m.ExogIdx {
		if col < len(row) {
			effect += m.ExogCoeffs[j] * row[col]
		}
	}
	return effect
}

// UsesExog reports whether forecasts need future indicator rows.
func (m *SARIMAX) UsesExog() bool {
	return len(m.ExogIdx) > 0
}

// estimate fits the ARMA coefficients by conditional sum of squares with
// momentum gradient descent, keeping the best solution seen.
func (m *SARIMAX) estimate() error {
	y := m.DiffY
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	sp, sq := m.Order.SP, m.Order.SQ
	period := m.Order.Season

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.Mean = mean / float64(n)

	// Seed AR terms from the autocorrelation function.
	if p > 0 {
		if acf := stats.ACF(y, p); acf != nil {
			for i := 0; i < p && i+1 < len(acf); i++ {
				m.ARCoeffs[i] = acf[i+1] * 0.5
			}
		}
	}
	if sp > 0 && period > 0 {
		if acf := stats.ACF(y, sp*period); acf != nil {
			for i := 0; i < sp; i++ {
				if idx := (i + 1) * period; idx < len(acf) {
					m.SARCoeffs[i] = acf[idx] * 0.5
				}
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}
	for i := range m.SMACoeffs {
		m.SMACoeffs[i] = 0.1
	}

	maxIter := 200
	tolerance := 1e-8
	learningRate := 0.005
	momentum := 0.9
	decay := 0.99

	arVel := make([]float64, p)
	maVel := make([]float64, q)
	sarVel := make([]float64, sp)
	smaVel := make([]float64, sq)

	startIdx := maxInt(maxInt(p, q), maxInt(sp*period, sq*period))
	if startIdx >= n-10 {
		startIdx = 0
	}

	bestSSE := math.Inf(1)
	bestAR := make([]float64, p)
	bestMA := make([]float64, q)
	bestSAR := make([]float64, sp)
	bestSMA := make([]float64, sq)
	noImprove := 0

	for iter := 0; iter < maxIter; iter++ {
		resid := make([]float64, n)
		sse := 0.0
		for t := startIdx; t < n; t++ {
			resid[t] = y[t] - m.onePoint(y, resid, t)
			sse += resid[t] * resid[t]
		}

		if sse < bestSSE {
			bestSSE = sse
			copy(bestAR, m.ARCoeffs)
			copy(bestMA, m.MACoeffs)
			copy(bestSAR, m.SARCoeffs)
			copy(bestSMA, m.SMACoeffs)
			noImprove = 0
		} else {
			noImprove++
		}
		if noImprove > 20 {
			break
		}

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		sarGrad := make([]float64, sp)
		smaGrad := make([]float64, sq)
		for t := startIdx; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * resid[t] * (y[t-i-1] - m.Mean)
			}
			for i := 0; i < sp; i++ {
				if lag := (i + 1) * period; t-lag >= 0 {
					sarGrad[i] -= 2 * resid[t] * (y[t-lag] - m.Mean)
				}
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * resid[t] * resid[t-i-1]
			}
			for i := 0; i < sq; i++ {
				if lag := (i + 1) * period; t-lag >= 0 {
					smaGrad[i] -= 2 * resid[t] * resid[t-lag]
				}
			}
		}

		step := func(coeffs, vel, grad []float64) {
			for i := range coeffs {
				vel[i] = momentum*vel[i] + learningRate*grad[i]/float64(n)
				coeffs[i] -= vel[i]
				coeffs[i] = clamp(coeffs[i], -0.99, 0.99)
			}
		}
		step(m.ARCoeffs, arVel, arGrad)
		step(m.SARCoeffs, sarVel, sarGrad)
		step(m.MACoeffs, maVel, maGrad)
		step(m.SMACoeffs, smaVel, smaGrad)

		learningRate *= decay
		if iter > 0 && math.Abs(sse-bestSSE) < tolerance {
			break
		}
	}

	copy(m.ARCoeffs, bestAR)
	copy(m.MACoeffs, bestMA)
	copy(m.SARCoeffs, bestSAR)
	copy(m.SMACoeffs, bestSMA)

	m.Resid = make([]float64, n)
	for t := 0; t < n; t++ {
		m.Resid[t] = y[t] - m.onePoint(y, m.Resid, t)
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.Resid[t] * m.Resid[t]
		count++
	}
	if count == 0 {
		return errors.New("no usable observations after boundary trimming")
	}
	if k := m.Order.NumParams(); count > k {
		m.Variance = sse / float64(count-k)
	} else {
		m.Variance = sse / float64(count)
	}
	return nil
}

// onePoint evaluates the ARMA recursion at position t.
func (m *SARIMAX) onePoint(y, resid []float64, t int) float64 {
	period := m.Order.Season
	pred := m.Mean
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Mean)
	}
	for i := 0; i < m.Order.SP; i++ {
		if lag := (i + 1) * period; t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - m.Mean)
		}
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * resid[t-i-1]
	}
	for i := 0; i < m.Order.SQ; i++ {
		if lag := (i + 1) * period; t-lag >= 0 {
			pred += m.SMACoeffs[i] * resid[t-lag]
		}
	}
	return pred
}

// informationCriteria computes log-likelihood, AIC, and BIC under
// Gaussian errors.
func (m *SARIMAX) informationCriteria() {
	n := len(m.Resid)
	k := m.Order.NumParams()

	sse := 0.0
	for _, r := range m.Resid {
		sse += r * r
	}
	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}
	m.AIC = -2*m.LogLik + 2*float64(k)
	m.BIC = -2*m.LogLik + float64(k)*math.Log(float64(n))
}

// fittedOnOriginalScale reconstructs one-step-ahead fitted values on the
// original count scale. Observations consumed by differencing have no
// prediction and are carried through unchanged.
func (m *SARIMAX) fittedOnOriginalScale() {
	n := len(m.TrainY)
	offset := n - len(m.Resid)
	m.FittedVals = make([]float64, n)
	copy(m.FittedVals, m.TrainY)
	for t := offset; t < n; t++ {
		m.FittedVals[t] = m.TrainY[t] - m.Resid[t-offset]
	}
}

// Forecast produces steps-ahead point forecasts with a symmetric normal
// prediction interval at the given confidence level. A model fitted with
// exogenous regressors requires exactly one future indicator row per step.
func (m *SARIMAX) Forecast(steps int, futureExog [][]float64, confidence float64) (point, lower, upper []float64, err error) {
	if !m.Trained {
		return nil, nil, nil, errors.New("model must be fitted before forecasting")
	}
	if steps < 1 {
		return nil, nil, nil, errors.New("steps must be at least 1")
	}
	if m.UsesExog() {
		if futureExog == nil {
			return nil, nil, nil, errors.New("model uses exogenous regressors: future rows are required")
		}
		if len(futureExog) != steps {
			return nil, nil, nil, fmt.Errorf("got %d future exogenous rows, need exactly %d", len(futureExog), steps)
		}
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	y := m.DiffY
	n := len(y)
	extY := make([]float64, n+steps)
	copy(extY, y)
	extResid := make([]float64, n+steps)
	copy(extResid, m.Resid)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Mean
		for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Mean)
		}
		for i := 0; i < m.Order.SP; i++ {
			if lag := (i + 1) * m.Order.Season; t-lag >= 0 {
				pred += m.SARCoeffs[i] * (extY[t-lag] - m.Mean)
			}
		}
		// Future residuals have expectation zero.
		for i := 0; i < m.Order.Q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extResid[t-i-1]
		}
		for i := 0; i < m.Order.SQ; i++ {
			if lag := (i + 1) * m.Order.Season; t-lag >= 0 && t-lag < n {
				pred += m.SMACoeffs[i] * extResid[t-lag]
			}
		}
		extY[t] = pred
		extResid[t] = 0
	}

	point = m.integrate(extY[n:])

	if m.UsesExog() {
		for h := 0; h < steps; h++ {
			point[h] += m.exogEffectRow(futureExog[h])
		}
	}

	z := distuv.UnitNormal.Quantile((1 + confidence) / 2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	for h := 0; h < steps; h++ {
		se := math.Sqrt(m.Variance)
		if m.Order.D > 0 {
			se *= math.Sqrt(float64(h + 1))
		}
		if m.Order.SD > 0 && m.Order.Season > 0 {
			se *= math.Sqrt(float64(h/m.Order.Season + 1))
		}
		lower[h] = point[h] - z*se
		upper[h] = point[h] + z*se
	}
	return point, lower, upper, nil
}

// integrate undoes the differencing applied during Fit: seasonal first,
// then non-seasonal, anchored on the tail of the training series.
func (m *SARIMAX) integrate(forecasts []float64) []float64 {
	d, sd, period := m.Order.D, m.Order.SD, m.Order.Season
	original := m.ArimaY
	n := len(original)

	result := append([]float64(nil), forecasts...)

	nonSeasonal := original
	for i := 0; i < d; i++ {
		if len(nonSeasonal) <= 1 {
			break
		}
		nonSeasonal = difference(nonSeasonal, 1)
	}

	if sd > 0 && period > 0 {
		nDiff := len(nonSeasonal)
		for i := 0; i < sd; i++ {
			for j := range result {
				if j < period {
					if idx := nDiff - period + j; idx >= 0 && idx < nDiff {
						result[j] += nonSeasonal[idx]
					}
				} else {
					result[j] += result[j-period]
				}
			}
		}
	}

	for i := 0; i < d; i++ {
		last := original[n-1]
		for j := range result {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}
	return result
}

// Residuals returns a copy of the model residuals.
func (m *SARIMAX) Residuals() []float64 {
	if !m.Trained {
		return nil
	}
	return append([]float64(nil), m.Resid...)
}

// FittedValues returns the in-sample one-step fitted values, aligned to
// the training series.
func (m *SARIMAX) FittedValues() []float64 {
	if !m.Trained {
		return nil
	}
	return append([]float64(nil), m.FittedVals...)
}

func difference(values []float64, lag int) []float64 {
	if lag <= 0 || len(values) <= lag {
		return nil
	}
	out := make([]float64, len(values)-lag)
	for i := lag; i < len(values); i++ {
		out[i-lag] = values[i] - values[i-lag]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
