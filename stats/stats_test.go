package stats

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestACF_LagZeroIsOne(t *testing.T) {
	values := []float64{1, 3, 2, 5, 4, 6, 5, 8, 7, 9}
	acf := ACF(values, 3)
	if acf == nil {
		t.Fatal("ACF returned nil for a varying series")
	}
	if math.Abs(acf[0]-1.0) > 1e-9 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
}

func TestACF_ConstantSeries(t *testing.T) {
	if acf := ACF([]float64{5, 5, 5, 5, 5}, 2); acf != nil {
		t.Error("ACF of a constant series should be nil")
	}
}

func TestACF_StrongPositiveAutocorrelation(t *testing.T) {
	// A slow ramp is highly autocorrelated at lag 1.
	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i)
	}
	acf := ACF(values, 1)
	if acf[1] < 0.8 {
		t.Errorf("Expected strong lag-1 autocorrelation on a ramp, got %f", acf[1])
	}
}

func TestPACF_MatchesACFAtLagOne(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 80)
	values[0] = rng.NormFloat64()
	for i := 1; i < len(values); i++ {
		values[i] = 0.6*values[i-1] + rng.NormFloat64()
	}
	acf := ACF(values, 5)
	pacf := PACF(values, 5)
	if pacf == nil {
		t.Fatal("PACF returned nil")
	}
	if math.Abs(pacf[1]-acf[1]) > 1e-9 {
		t.Errorf("PACF and ACF must agree at lag 1: %f vs %f", pacf[1], acf[1])
	}
}

func TestStationarity_RandomWalkIsNonStationary(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 200)
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + rng.NormFloat64()
	}
	outcome := Stationarity(values)
	if outcome.Stationary {
		t.Errorf("Random walk should test non-stationary (p=%f)", outcome.PValue)
	}
}

func TestStationarity_WhiteNoiseIsStationary(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 200)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	outcome := Stationarity(values)
	if !outcome.Stationary {
		t.Errorf("White noise should test stationary (p=%f)", outcome.PValue)
	}
}

func TestStationarity_FailureIsConservative(t *testing.T) {
	outcome := Stationarity([]float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3})
	if outcome.Stationary {
		t.Error("A failed test must report non-stationary")
	}
	if outcome.Failure == "" {
		t.Error("A failed test must carry a failure reason")
	}
}

func TestStationarity_ShortSeries(t *testing.T) {
	outcome := Stationarity([]float64{1, 2, 3})
	if outcome.Stationary || outcome.Failure == "" {
		t.Error("A short series must fold into a non-stationary outcome with a reason")
	}
}

func TestLjungBox_WhiteNoiseResiduals(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	resid := make([]float64, 120)
	for i := range resid {
		resid[i] = rng.NormFloat64()
	}
	res := LjungBox(resid, 10, 2)
	if res == nil {
		t.Fatal("LjungBox returned nil for a valid series")
	}
	if !res.WhiteNoise() {
		t.Errorf("Independent residuals should look like white noise (p=%f)", res.PValue)
	}
}

func TestLjungBox_AutocorrelatedResiduals(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	resid := make([]float64, 120)
	resid[0] = rng.NormFloat64()
	for i := 1; i < len(resid); i++ {
		resid[i] = 0.8*resid[i-1] + 0.2*rng.NormFloat64()
	}
	res := LjungBox(resid, 10, 2)
	if res == nil {
		t.Fatal("LjungBox returned nil")
	}
	if res.WhiteNoise() {
		t.Errorf("Strongly autocorrelated residuals should fail the test (p=%f)", res.PValue)
	}
}

func TestLjungBox_TooShort(t *testing.T) {
	if res := LjungBox([]float64{1, 2, 3}, 5, 1); res != nil {
		t.Error("LjungBox should return nil for a short series")
	}
}

func TestOLS_RecoversLine(t *testing.T) {
	// y = 2 + 3x, exactly.
	n := 20
	xs := make([]float64, 0, n*2)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		xs = append(xs, 1, float64(i))
		ys = append(ys, 2+3*float64(i))
	}
	x := mat.NewDense(n, 2, xs)
	y := mat.NewVecDense(n, ys)
	coef, _, err := OLS(x, y)
	if err != nil {
		t.Fatalf("OLS failed: %v", err)
	}
	if math.Abs(coef[0]-2) > 1e-6 || math.Abs(coef[1]-3) > 1e-6 {
		t.Errorf("Expected coefficients (2, 3), got (%f, %f)", coef[0], coef[1])
	}
}
