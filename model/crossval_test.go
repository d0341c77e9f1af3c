package model

import (
	"testing"
)

func TestCrossValidate_TooShortReturnsNil(t *testing.T) {
	// k=3 requires 30 periods; 25 is below the threshold.
	values := seasonalSeries(25, 4, 12)
	cv := CrossValidate(seriesFrom(values), nil, 3, testSelector(), nil)
	if cv != nil {
		t.Errorf("Expected nil summary for a 25-period series with k=3, got %+v", cv)
	}
}

func TestCrossValidate_ForwardChaining(t *testing.T) {
	values := seasonalSeries(100, 4, 13)
	cv := CrossValidate(seriesFrom(values), nil, 3, testSelector(), nil)
	if cv == nil {
		t.Fatal("Expected a summary for a 100-period series")
	}
	if cv.Folds < 1 || cv.Folds > 3 {
		t.Errorf("Expected between 1 and 3 successful folds, got %d", cv.Folds)
	}
	if cv.MeanMAPE < 0 {
		t.Errorf("Mean MAPE cannot be negative: %f", cv.MeanMAPE)
	}
	if len(cv.FoldMAPEs) != cv.Folds {
		t.Errorf("Fold count %d disagrees with recorded MAPEs %d", cv.Folds, len(cv.FoldMAPEs))
	}
}

func TestCrossValidate_InvalidFoldCount(t *testing.T) {
	values := seasonalSeries(100, 4, 14)
	if cv := CrossValidate(seriesFrom(values), nil, 1, testSelector(), nil); cv != nil {
		t.Error("k below 2 should return nil")
	}
}
