package model

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

// CVSummary aggregates forward-chaining cross-validation across folds.
// FoldMAPEs holds one entry per successful fold.
type CVSummary struct {
	Folds     int       `json:"folds"`
	MeanMAPE  float64   `json:"mean_mape"`
	StdMAPE   float64   `json:"std_mape"`
	FoldMAPEs []float64 `json:"fold_mapes"`
}

// CrossValidate estimates generalization error with k forward-chaining
// splits: each fold trains on a prefix and tests on the periods that
// immediately follow it, so no future information leaks backwards.
// Returns nil when the series is shorter than k*10 periods. Folds whose
// fit fails, or whose test window has no non-zero actuals, are logged
// and excluded.
func CrossValidate(series *timeseries.Series, exog [][]float64, k int, sel *Selector, log *logrus.Entry) *CVSummary {
	n := series.Len()
	if k < 2 || n < k*10 {
		if log != nil {
			log.WithFields(logrus.Fields{"periods": n, "folds": k}).Info("series too short for cross-validation, skipping")
		}
		return nil
	}

	testLen := n / (k + 1)
	if testLen < 1 {
		return nil
	}

	var mapes []float64
	for fold := 1; fold <= k; fold++ {
		trainEnd := testLen * fold
		testEnd := trainEnd + testLen
		if testEnd > n {
			testEnd = n
		}

		trainSeries := series.Slice(0, trainEnd)
		var trainExog, futureExog [][]float64
		if exog != nil {
			trainExog = exog[:trainEnd]
			futureExog = exog[trainEnd:testEnd]
		}

		result := sel.Select(trainSeries, trainExog)
		m := NewSARIMAX(result.Order, exogNamesFor(trainExog))
		if err := m.Fit(trainSeries.Values, trainExog); err != nil {
			if log != nil {
				log.WithFields(logrus.Fields{"fold": fold, "error": err.Error()}).Warn("cross-validation fold failed, excluding")
			}
			continue
		}

		steps := testEnd - trainEnd
		point, _, _, err := m.Forecast(steps, futureExog, 0.95)
		if err != nil {
			if log != nil {
				log.WithFields(logrus.Fields{"fold": fold, "error": err.Error()}).Warn("cross-validation forecast failed, excluding")
			}
			continue
		}

		actual := series.Values[trainEnd:testEnd]
		if foldMAPE := mape(actual, point); foldMAPE != nil {
			mapes = append(mapes, *foldMAPE)
		}
	}

	if len(mapes) == 0 {
		if log != nil {
			log.Warn("no cross-validation fold succeeded")
		}
		return nil
	}

	mean := 0.0
	for _, v := range mapes {
		mean += v
	}
	mean /= float64(len(mapes))

	variance := 0.0
	for _, v := range mapes {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(mapes)))

	return &CVSummary{
		Folds:     len(mapes),
		MeanMAPE:  mean,
		StdMAPE:   std,
		FoldMAPEs: mapes,
	}
}

func exogNamesFor(exog [][]float64) []string {
	if exog == nil {
		return nil
	}
	return timeseries.ExogColumns
}
