// Package model implements seasonal ARIMA fitting with exogenous
// regressors, parameter selection, evaluation, and forward-chaining
// cross-validation for periodic count series.
package model

import (
	"fmt"
)

// Order is a seasonal ARIMA model order (p,d,q)(P,D,Q)[s]. Chosen once
// per fit and immutable thereafter.
type Order struct {
	P int `json:"p"` // non-seasonal AR order
	D int `json:"d"` // non-seasonal differencing order
	Q int `json:"q"` // non-seasonal MA order

	SP     int `json:"seasonal_p"` // seasonal AR order
	SD     int `json:"seasonal_d"` // seasonal differencing order
	SQ     int `json:"seasonal_q"` // seasonal MA order
	Season int `json:"season"`     // seasonal period length, 0 when non-seasonal
}

// Conservative is the hard-coded fallback order used when the series is
// too short or degenerate for statistical search, or when every search
// candidate fails to converge.
func Conservative() Order {
	return Order{P: 1, D: 1, Q: 1}
}

// Seasonal reports whether the order carries any seasonal component.
func (o Order) Seasonal() bool {
	return o.Season > 0 && (o.SP > 0 || o.SD > 0 || o.SQ > 0)
}

// NumParams counts estimated coefficients (AR, MA, seasonal AR/MA, mean).
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ + 1
}

// MinObservations is the fewest periods a fit of this order needs.
func (o Order) MinObservations() int {
	longest := o.P
	if o.Q > longest {
		longest = o.Q
	}
	if o.Season*o.SP > longest {
		longest = o.Season * o.SP
	}
	if o.Season*o.SQ > longest {
		longest = o.Season * o.SQ
	}
	return o.D + o.Season*o.SD + longest + 10
}

// String renders the order in the usual (p,d,q)(P,D,Q)[s] notation.
func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.Season)
}
