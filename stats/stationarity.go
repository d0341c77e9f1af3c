// Package stats provides the statistical tests the forecasting engine
// relies on: unit-root testing, autocorrelation, and residual diagnostics.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Outcome is the result of a stationarity check. A test that could not
// run carries a failure reason and is treated as non-stationary — the
// conservative default — rather than as an error.
type Outcome struct {
	Stationary bool    `json:"stationary"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Failure    string  `json:"failure,omitempty"`
}

// Stationarity runs the augmented Dickey-Fuller test and folds any
// numerical failure into a non-stationary outcome.
func Stationarity(values []float64) Outcome {
	res, err := ADF(values, 0)
	if err != nil {
		return Outcome{Stationary: false, Failure: err.Error()}
	}
	return Outcome{
		Stationary: res.Stationary,
		Statistic:  res.Statistic,
		PValue:     res.PValue,
	}
}

// ADFResult represents the result of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic  float64
	PValue     float64
	Lags       int
	NObs       int
	Stationary bool
}

// ADF performs the augmented Dickey-Fuller unit-root test with a constant
// term. The null hypothesis is a unit root; p < 0.05 rejects it and the
// series is considered stationary.
func ADF(values []float64, maxLag int) (*ADFResult, error) {
	n := len(values)
	if n < 10 {
		return nil, errors.New("series too short for unit-root test")
	}
	if constant(values) {
		return nil, errors.New("constant series has no variance to test")
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = values[i] - values[i-1]
	}

	// Regression: delta_y_t = alpha + beta*y_{t-1} + sum gamma_i*delta_y_{t-i}.
	// The test statistic is the t-stat on beta.
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil, errors.New("too few observations after lag terms")
	}

	k := 2 + maxLag
	x := mat.NewDense(nObs, k, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.SetVec(i, diff[t])
		x.Set(i, 0, 1)
		x.Set(i, 1, values[t])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff[t-j])
		}
	}

	coef, se, err := OLS(x, y)
	if err != nil {
		return nil, err
	}
	if se[1] == 0 {
		return nil, errors.New("degenerate regression: zero standard error")
	}

	tStat := coef[1] / se[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic:  tStat,
		PValue:     pValue,
		Lags:       maxLag,
		NObs:       nObs,
		Stationary: pValue < 0.05,
	}, nil
}

// OLS solves y = X*beta by least squares and returns the coefficients and
// their standard errors.
func OLS(x *mat.Dense, y *mat.VecDense) (coef, se []float64, err error) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, errors.New("not enough observations for regression")
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, nil, errors.New("singular design matrix")
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	beta.MulVec(&inv, &xty)

	coef = make([]float64, k)
	for i := 0; i < k; i++ {
		coef[i] = beta.AtVec(i)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		sse += r * r
	}
	s2 := sse / float64(n-k)

	se = make([]float64, k)
	for i := 0; i < k; i++ {
		se[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return coef, se, nil
}

// mackinnonPValue approximates the ADF p-value from the MacKinnon (1994)
// response surface for the constant-only regression.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
