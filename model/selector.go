package model

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/stats"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

// Strategy selects how the order search enumerates candidates.
type Strategy string

const (
	// StrategyGrid fits a small enumerated candidate set. Suited to
	// weekly series and modest history.
	StrategyGrid Strategy = "grid"
	// StrategyStepwise hill-climbs from a seasonal starting order,
	// evaluating neighbours until AIC stops improving. Suited to dense
	// daily series.
	StrategyStepwise Strategy = "stepwise"
)

// Selector searches a bounded space of seasonal orders and returns the
// configuration with the lowest AIC. It never fails: short, degenerate,
// or wholly unfittable series all resolve to the conservative default.
type Selector struct {
	Strategy        Strategy
	Season          int
	MaxP            int
	MaxQ            int
	MaxSeasonalP    int
	MaxSeasonalQ    int
	MinSearchLength int
	Parallelism     int

	Log *logrus.Entry
}

// SearchResult carries the chosen order and how the search arrived at it.
type SearchResult struct {
	Order     Order   `json:"order"`
	Evaluated int     `json:"evaluated"`
	BestAIC   float64 `json:"best_aic,omitempty"`
	Fallback  bool    `json:"fallback"`
	Reason    string  `json:"reason,omitempty"`
}

// Select picks a model order for the series. exog participates in every
// candidate fit so the comparison reflects the model that will actually
// be trained.
func (s *Selector) Select(series *timeseries.Series, exog [][]float64) SearchResult {
	if series.Len() < s.MinSearchLength {
		return s.fallback("series too short for order search")
	}
	if series.Degenerate() {
		return s.fallback("series is degenerate: fewer than 2 distinct non-zero values")
	}

	d := s.differencingOrder(series)
	if s.Strategy == StrategyStepwise {
		return s.stepwise(series, exog, d)
	}
	return s.evaluate(series.Values, exog, s.gridCandidates(series.Len(), d))
}

func (s *Selector) fallback(reason string) SearchResult {
	if s.Log != nil {
		s.Log.WithField("reason", reason).Info("order search skipped, using conservative default")
	}
	return SearchResult{Order: Conservative(), Fallback: true, Reason: reason}
}

// differencingOrder applies the unit-root test to decide d. When zeros
// dominate the test runs on the non-zero subset, which keeps sparse
// weekly series from always looking non-stationary.
func (s *Selector) differencingOrder(series *timeseries.Series) int {
	values := series.Values
	nonZero := series.NonZero()
	if len(nonZero) >= 10 && len(nonZero)*2 < len(values) {
		values = nonZero
	}
	outcome := stats.Stationarity(values)
	if s.Log != nil && outcome.Failure != "" {
		s.Log.WithField("failure", outcome.Failure).Debug("stationarity test did not run, assuming non-stationary")
	}
	if outcome.Stationary {
		return 0
	}
	return 1
}

// gridCandidates enumerates the manual candidate set: a handful of
// low-order non-seasonal shapes plus seasonal variants when the series
// can support them.
func (s *Selector) gridCandidates(n, d int) []Order {
	candidates := []Order{
		{P: 1, D: d, Q: 1},
		{P: 0, D: d, Q: 1},
		{P: 1, D: d, Q: 0},
		{P: 2, D: d, Q: 1},
		{P: 1, D: d, Q: 2},
	}
	if s.Season > 1 {
		seasonal := []Order{
			{P: 1, D: d, Q: 1, SP: 1, SD: 0, SQ: 0, Season: s.Season},
			{P: 1, D: d, Q: 1, SP: 0, SD: 0, SQ: 1, Season: s.Season},
			{P: 1, D: d, Q: 1, SP: 0, SD: 1, SQ: 1, Season: s.Season},
			{P: 1, D: d, Q: 1, SP: 1, SD: 1, SQ: 0, Season: s.Season},
		}
		for _, o := range seasonal {
			if n >= o.MinObservations() {
				candidates = append(candidates, o)
			}
		}
	}
	return candidates
}

// stepwise starts from a seasonal baseline and repeatedly evaluates
// single-parameter neighbours, moving whenever AIC improves.
func (s *Selector) stepwise(series *timeseries.Series, exog [][]float64, d int) SearchResult {
	start := Order{P: 1, D: d, Q: 1}
	if s.Season > 1 && series.Len() >= 3*s.Season {
		start.Season = s.Season
		start.SP = 1
		start.SQ = 1
	}

	tried := map[Order]bool{}
	best := s.evaluate(series.Values, exog, []Order{start, Conservative()})
	tried[start] = true
	tried[Conservative()] = true
	totalEvaluated := best.Evaluated

	for rounds := 0; rounds < 8; rounds++ {
		var neighbours []Order
		for _, o := range s.neighbours(best.Order, series.Len()) {
			if !tried[o] {
				tried[o] = true
				neighbours = append(neighbours, o)
			}
		}
		if len(neighbours) == 0 {
			break
		}
		round := s.evaluate(series.Values, exog, neighbours)
		totalEvaluated += round.Evaluated
		if round.Fallback || round.BestAIC >= best.BestAIC {
			break
		}
		best = round
	}
	best.Evaluated = totalEvaluated
	return best
}

// neighbours lists orders one parameter step away, bounded by the
// configured maxima and by what the series length can support.
func (s *Selector) neighbours(o Order, n int) []Order {
	var out []Order
	add := func(c Order) {
		if c.P < 0 || c.Q < 0 || c.SP < 0 || c.SQ < 0 || c.SD < 0 {
			return
		}
		if c.P > s.MaxP || c.Q > s.MaxQ || c.SP > s.MaxSeasonalP || c.SQ > s.MaxSeasonalQ || c.SD > 1 {
			return
		}
		if c.SP == 0 && c.SD == 0 && c.SQ == 0 {
			c.Season = 0
		} else {
			c.Season = s.Season
		}
		if n < c.MinObservations() {
			return
		}
		out = append(out, c)
	}
	for _, dp := range []int{-1, 1} {
		add(Order{P: o.P + dp, D: o.D, Q: o.Q, SP: o.SP, SD: o.SD, SQ: o.SQ, Season: o.Season})
		add(Order{P: o.P, D: o.D, Q: o.Q + dp, SP: o.SP, SD: o.SD, SQ: o.SQ, Season: o.Season})
		if s.Season > 1 {
			add(Order{P: o.P, D: o.D, Q: o.Q, SP: o.SP + dp, SD: o.SD, SQ: o.SQ, Season: s.Season})
			add(Order{P: o.P, D: o.D, Q: o.Q, SP: o.SP, SD: o.SD, SQ: o.SQ + dp, Season: s.Season})
			add(Order{P: o.P, D: o.D, Q: o.Q, SP: o.SP, SD: o.SD + dp, SQ: o.SQ, Season: s.Season})
		}
	}
	return out
}

// evaluate fits every candidate concurrently and keeps the lowest AIC.
// Candidates that fail to converge are skipped; if all fail the result is
// the conservative fallback.
func (s *Selector) evaluate(values []float64, exog [][]float64, candidates []Order) SearchResult {
	limit := s.Parallelism
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	var mu sync.Mutex
	bestAIC := math.Inf(1)
	var bestOrder Order
	found := false
	evaluated := 0

	exogNames := timeseries.ExogColumns
	if exog == nil {
		exogNames = nil
	}

	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			m := NewSARIMAX(cand, exogNames)
			err := m.Fit(values, exog)

			mu.Lock()
			defer mu.Unlock()
			evaluated++
			if err != nil {
				if s.Log != nil {
					s.Log.WithFields(logrus.Fields{
						"order": cand.String(),
						"error": err.Error(),
					}).Debug("candidate fit failed, skipping")
				}
				return nil
			}
			if m.AIC < bestAIC {
				bestAIC = m.AIC
				bestOrder = cand
				found = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if !found {
		return s.fallback("every candidate fit failed")
	}
	return SearchResult{Order: bestOrder, Evaluated: evaluated, BestAIC: bestAIC}
}
