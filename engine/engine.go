// Package engine orchestrates the full forecasting pipeline: series
// construction, order selection, fitting, evaluation, persistence, and
// dated forecast serving, scoped per entity.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/config"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/forecast"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/model"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/store"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

// Engine is the per-process forecasting facade. All entity state lives in
// the store and in explicit per-entity handles; there is no ambient
// "current model".
type Engine struct {
	cfg         *config.Config
	granularity timeseries.Granularity
	fill        timeseries.FillPolicy
	calendar    *timeseries.Calendar
	store       *store.Store
	metrics     *Metrics
	cache       *forecastCache
	log         *logrus.Entry

	mu      sync.RWMutex
	handles map[string]*handle // models trained in this process
}

// handle keeps the in-memory fit for an entity so Predict can prefer the
// exact last-observed date over persisted metadata.
type handle struct {
	model        *model.SARIMAX
	lastObserved time.Time
	meta         *store.Metadata
}

// New builds an engine from validated configuration.
func New(cfg *config.Config, log *logrus.Logger, reg prometheus.Registerer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	g, err := timeseries.ParseGranularity(cfg.Series.Granularity)
	if err != nil {
		return nil, err
	}
	fill, err := timeseries.ParseFillPolicy(cfg.Series.FillPolicy)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("component", "engine")

	st, err := store.New(cfg.Store.Path, log.WithField("component", "store"))
	if err != nil {
		return nil, err
	}

	var metrics *Metrics
	if reg != nil {
		metrics = NewMetrics(reg)
	}

	return &Engine{
		cfg:         cfg,
		granularity: g,
		fill:        fill,
		calendar:    timeseries.NewCalendar(),
		store:       st,
		metrics:     metrics,
		cache:       newForecastCache(cfg.Forecast.CacheTTL.Duration),
		log:         entry,
		handles:     make(map[string]*handle),
	}, nil
}

// Calendar exposes the holiday calendar so callers can register override
// dates before training.
func (e *Engine) Calendar() *timeseries.Calendar {
	return e.calendar
}

// TrainingReport summarizes one training run.
type TrainingReport struct {
	EntityKey  string                       `json:"entity_key"`
	Skipped    bool                         `json:"skipped"`
	Processing *timeseries.ProcessingReport `json:"processing,omitempty"`
	Search     model.SearchResult           `json:"search"`
	Holdout    *model.Metrics               `json:"holdout,omitempty"`
	Coverage   float64                      `json:"coverage"`
	Metadata   *store.Metadata              `json:"metadata"`
	Elapsed    time.Duration                `json:"elapsed"`
}

func (e *Engine) selector(entity string) *model.Selector {
	strategy := model.StrategyGrid
	if e.granularity == timeseries.Daily {
		strategy = model.StrategyStepwise
	}
	return &model.Selector{
		Strategy:        strategy,
		Season:          e.cfg.Model.Season,
		MaxP:            e.cfg.Model.MaxP,
		MaxQ:            e.cfg.Model.MaxQ,
		MaxSeasonalP:    e.cfg.Model.MaxSeasonalP,
		MaxSeasonalQ:    e.cfg.Model.MaxSeasonalQ,
		MinSearchLength: e.cfg.Model.MinSearchLength,
		Parallelism:     e.cfg.Model.Parallelism,
		Log:             e.log.WithFields(logrus.Fields{"component": "selector", "entity": entity}),
	}
}

// Train builds the entity's series from raw events, selects and fits a
// model, evaluates it on a held-out tail, then refits on the full series
// and persists the artifact. When a model already exists and force is
// false the run is skipped and the stored metadata returned.
func (e *Engine) Train(ctx context.Context, entityKey string, events []timeseries.RawEvent, force bool) (*TrainingReport, error) {
	entity := store.NormalizeKey(entityKey)
	log := e.log.WithField("entity", entity)
	started := time.Now()

	status := "error"
	defer func() {
		if e.metrics != nil {
			e.metrics.TrainingsTotal.WithLabelValues(entity, status).Inc()
			e.metrics.TrainingSeconds.Observe(time.Since(started).Seconds())
		}
	}()

	if !force && e.store.Exists(entity) {
		meta, err := e.Accuracy(entity)
		if err != nil {
			return nil, err
		}
		status = "skipped"
		log.Info("model already trained, skipping (use force to retrain)")
		return &TrainingReport{EntityKey: entity, Skipped: true, Metadata: meta}, nil
	}

	builder := timeseries.NewBuilder(e.granularity, e.fill, e.calendar)
	series, exog, report, err := builder.Build(events)
	if err != nil {
		return nil, fmt.Errorf("building series for %s: %w", entity, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sel := e.selector(entity)
	search := sel.Select(series, exog.Rows)
	log.WithFields(logrus.Fields{
		"order":     search.Order.String(),
		"evaluated": search.Evaluated,
		"fallback":  search.Fallback,
	}).Info("model order selected")

	holdout, coverage := e.evaluateHoldout(series, exog, search.Order, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cv := model.CrossValidate(series, exog.Rows, e.cfg.Model.CVFolds, sel,
		e.log.WithFields(logrus.Fields{"component": "crossval", "entity": entity}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Final fit uses the complete series so forecasts continue from the
	// last observed bucket.
	final := model.NewSARIMAX(search.Order, timeseries.ExogColumns)
	if err := final.Fit(series.Values, exog.Rows); err != nil {
		return nil, fmt.Errorf("fitting final model for %s: %w", entity, err)
	}

	lastObserved := report.LastEventDate
	meta := &store.Metadata{
		ID:               uuid.NewString(),
		EntityKey:        entity,
		Granularity:      string(e.granularity),
		Order:            search.Order,
		Search:           search,
		TrainMetrics:     model.Evaluate(series.Values, final.FittedValues()),
		TestMetrics:      holdout,
		Coverage:         coverage,
		Diagnostics:      model.Diagnose(final),
		CrossValidation:  cv,
		LastObservedDate: &lastObserved,
		LastBucketDate:   series.LastDate(),
		TrainPeriods:     series.Len(),
		TestPeriods:      int(float64(series.Len()) * e.cfg.Model.TestFraction),
		TotalEvents:      report.TotalEvents,
		TrainedAt:        time.Now().UTC(),
	}
	if err := e.store.Save(entity, final, meta); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.handles[entity] = &handle{model: final, lastObserved: lastObserved, meta: meta}
	e.mu.Unlock()
	e.cache.invalidate(entity)

	status = "ok"
	return &TrainingReport{
		EntityKey:  entity,
		Processing: report,
		Search:     search,
		Holdout:    holdout,
		Coverage:   coverage,
		Metadata:   meta,
		Elapsed:    time.Since(started),
	}, nil
}

// evaluateHoldout fits the chosen order on the leading split and scores
// the forecast against the held-out tail. Evaluation is best-effort: a
// holdout that cannot run reports nil metrics and coverage -1, it never
// fails the training run.
func (e *Engine) evaluateHoldout(series *timeseries.Series, exog *timeseries.Exogenous, order model.Order, log *logrus.Entry) (*model.Metrics, float64) {
	n := series.Len()
	testLen := int(float64(n) * e.cfg.Model.TestFraction)
	trainLen := n - testLen
	if testLen < 1 || trainLen < order.MinObservations() {
		log.Info("series too short for a holdout split")
		return nil, -1
	}

	m := model.NewSARIMAX(order, timeseries.ExogColumns)
	if err := m.Fit(series.Values[:trainLen], exog.Rows[:trainLen]); err != nil {
		log.WithError(err).Warn("holdout fit failed, skipping out-of-sample evaluation")
		return nil, -1
	}
	point, lower, upper, err := m.Forecast(testLen, exog.Rows[trainLen:], e.cfg.Model.Confidence)
	if err != nil {
		log.WithError(err).Warn("holdout forecast failed, skipping out-of-sample evaluation")
		return nil, -1
	}
	actual := series.Values[trainLen:]
	return model.Evaluate(actual, point), model.IntervalCoverage(actual, lower, upper)
}

// Predict returns a dated forecast for the next periods buckets. Zero or
// negative periods use the configured default horizon.
func (e *Engine) Predict(ctx context.Context, entityKey string, periods int) (*forecast.Result, error) {
	entity := store.NormalizeKey(entityKey)
	if periods <= 0 {
		periods = e.cfg.Forecast.DefaultHorizon
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cached := e.cache.get(entity, periods); cached != nil {
		if e.metrics != nil {
			e.metrics.CacheHitsTotal.Inc()
			e.metrics.PredictionsTotal.WithLabelValues(entity, "cached").Inc()
		}
		return cached, nil
	}

	result, err := e.predict(entity, periods)
	if e.metrics != nil {
		if err != nil {
			e.metrics.PredictionsTotal.WithLabelValues(entity, "error").Inc()
		} else {
			e.metrics.PredictionsTotal.WithLabelValues(entity, "ok").Inc()
		}
	}
	if err != nil {
		return nil, err
	}
	e.cache.put(entity, periods, result)
	return result, nil
}

func (e *Engine) predict(entity string, periods int) (*forecast.Result, error) {
	log := e.log.WithField("entity", entity)

	e.mu.RLock()
	h := e.handles[entity]
	e.mu.RUnlock()

	var (
		m       *model.SARIMAX
		meta    *store.Metadata
		fitDate *time.Time
	)
	if h != nil {
		m, meta = h.model, h.meta
		d := h.lastObserved
		fitDate = &d
	} else {
		var err error
		m, meta, err = e.store.Load(entity)
		if err != nil {
			return nil, err
		}
	}

	resolved := forecast.ResolveLastObserved(fitDate, meta.LastObservedDate, meta.LastBucketDate, log)
	first := forecast.NextAnchor(resolved.Date, e.granularity)
	dates := forecast.Dates(first, periods, e.granularity)

	var futureRows [][]float64
	if m.UsesExog() {
		futureRows = timeseries.FutureExogenous(dates, e.calendar).Rows
	}

	point, lower, upper, err := m.Forecast(periods, futureRows, e.cfg.Model.Confidence)
	if err != nil {
		return nil, fmt.Errorf("forecasting %s: %w", entity, err)
	}

	if w := e.cfg.Forecast.BaselineWeight; w > 0 {
		baseline := seasonalNaive(m.TrainY, e.cfg.Model.Season, periods)
		for i := range point {
			point[i] = w*baseline[i] + (1-w)*point[i]
			lower[i] = w*baseline[i] + (1-w)*lower[i]
			upper[i] = w*baseline[i] + (1-w)*upper[i]
		}
	}

	return forecast.NewResult(entity, e.granularity, resolved, dates, point, lower, upper), nil
}

// seasonalNaive repeats the last full seasonal cycle of the training
// series, falling back to the overall mean when history is too short.
func seasonalNaive(history []float64, season, steps int) []float64 {
	out := make([]float64, steps)
	if season < 1 || len(history) < season {
		mean := 0.0
		for _, v := range history {
			mean += v
		}
		if len(history) > 0 {
			mean /= float64(len(history))
		}
		for i := range out {
			out[i] = mean
		}
		return out
	}
	cycle := history[len(history)-season:]
	for i := range out {
		out[i] = cycle[i%season]
	}
	return out
}

// Accuracy returns the stored evaluation metadata for the entity.
func (e *Engine) Accuracy(entityKey string) (*store.Metadata, error) {
	entity := store.NormalizeKey(entityKey)

	e.mu.RLock()
	h := e.handles[entity]
	e.mu.RUnlock()
	if h != nil {
		return h.meta, nil
	}

	_, meta, err := e.store.Load(entity)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// ModelExists reports whether the entity has a trained model available.
func (e *Engine) ModelExists(entityKey string) bool {
	return e.store.Exists(entityKey)
}

// Entities lists metadata for every trained entity.
func (e *Engine) Entities() ([]*store.Metadata, error) {
	return e.store.List()
}

// Forget removes the entity's artifact and any in-memory state.
func (e *Engine) Forget(entityKey string) error {
	entity := store.NormalizeKey(entityKey)
	e.mu.Lock()
	delete(e.handles, entity)
	e.mu.Unlock()
	e.cache.invalidate(entity)

	return e.store.Delete(entity)
}
