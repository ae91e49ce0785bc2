// Package housing serves house price and category predictions from three
// pre-trained models and a fitted feature scaler.
//
// A Service is built once at startup from the loaded Artifacts and is safe for
// concurrent use; nothing it holds is mutated after construction.
//
//	artifacts, err := housing.LoadArtifacts(housing.ModelConfig{Dir: "models"}, logger)
//	if err != nil {
//	    logger.Warn("serving without models", "error", err)
//	}
//	svc, err := housing.NewService(artifacts, housing.WithLogger(logger))
//	pred, err := svc.Predict(ctx, map[string]any{"size": 1200, "rooms": 3, "location": 5, "age": 10})
package housing

import (
	"context"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

// Prediction outcomes reported to the Observer.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Observer receives timing and outcome of every prediction.
type Observer interface {
	ObservePrediction(outcome string, cacheHit bool, elapsed time.Duration)
	ObserveBatch(rows, failed int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObservePrediction(string, bool, time.Duration) {}
func (nopObserver) ObserveBatch(int, int, time.Duration)          {}

// Prediction is a single scored house.
type Prediction struct {
	Input       FeatureVector    `json:"input"`
	Predictions PredictionResult `json:"predictions"`
}

// Health describes artifact readiness.
type Health struct {
	Status       string          `json:"status"`
	ModelsLoaded bool            `json:"models_loaded"`
	Artifacts    map[string]bool `json:"artifacts,omitempty"`
}

type serviceOptions struct {
	cacheSize int
	workers   int
	logger    log.Logger
	observer  Observer
}

// Option configures a Service.
type Option func(*serviceOptions)

// WithCacheSize bounds the single-prediction LRU cache. 0 disables it.
func WithCacheSize(n int) Option {
	return func(o *serviceOptions) { o.cacheSize = n }
}

// WithWorkers sets the batch worker count. <= 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *serviceOptions) { o.workers = n }
}

// WithLogger sets the service logger.
func WithLogger(l log.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// WithObserver sets the metrics sink.
func WithObserver(obs Observer) Option {
	return func(o *serviceOptions) { o.observer = obs }
}

// Service is the ready prediction service.
type Service struct {
	pipeline *Pipeline
	batch    *BatchProcessor
	cache    *lru.Cache[FeatureVector, PredictionResult]
	loaded   map[string]bool
	logger   log.Logger
	observer Observer
}

// NewService builds the service from whatever artifacts loaded. Incomplete
// artifacts yield a service that is not Ready; an artifact that loaded but
// does not fit the four-feature contract is an error.
func NewService(a *Artifacts, opts ...Option) (*Service, error) {
	o := serviceOptions{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLogger()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if a == nil {
		a = &Artifacts{}
	}
	logger := o.logger.With(log.ComponentKey, "housing")

	var scaler *FeatureScaler
	if a.Scaler != nil {
		s, err := NewFeatureScaler(a.Scaler)
		if err != nil {
			return nil, errors.Wrap(err, ArtifactScaler)
		}
		scaler = s
	}
	ensemble, err := NewEnsemble(a.Regressor, a.Logistic, a.Tree)
	if err != nil {
		return nil, err
	}
	pipeline := NewPipeline(scaler, ensemble)

	svc := &Service{
		pipeline: pipeline,
		batch:    NewBatchProcessor(pipeline, o.workers, logger),
		loaded:   a.Loaded(),
		logger:   logger,
		observer: o.observer,
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[FeatureVector, PredictionResult](o.cacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "creating prediction cache")
		}
		svc.cache = cache
	}

	if missing := pipeline.Missing(); len(missing) > 0 {
		logger.Warn("service started without all models",
			log.PhaseKey, log.PhaseStartup,
			log.ErrorCodeKey, log.ErrorModelUnavailable,
			"missing", missing,
		)
	}
	return svc, nil
}

// Ready reports whether all four artifacts are loaded.
func (s *Service) Ready() bool {
	return s.pipeline.Ready()
}

// Health returns the readiness report. Status is always "ok" because the
// process itself is serving.
func (s *Service) Health() Health {
	loaded := make(map[string]bool, len(s.loaded))
	for k, v := range s.loaded {
		loaded[k] = v
	}
	return Health{Status: "ok", ModelsLoaded: s.Ready(), Artifacts: loaded}
}

// Predict validates and scores one raw record. Model availability is checked
// before the input is looked at.
func (s *Service) Predict(_ context.Context, raw map[string]any) (*Prediction, error) {
	start := time.Now()
	if !s.Ready() {
		s.observer.ObservePrediction(OutcomeUnavailable, false, time.Since(start))
		return nil, errors.NewModelsUnavailableError(s.pipeline.Missing()...)
	}

	v, err := Validate(raw)
	if err != nil {
		s.observer.ObservePrediction(OutcomeInvalid, false, time.Since(start))
		return nil, err
	}

	if s.cache != nil {
		if res, ok := s.cache.Get(v); ok {
			s.observer.ObservePrediction(OutcomeOK, true, time.Since(start))
			s.logger.Debug("prediction served",
				log.OperationKey, log.OperationPredict,
				log.PriceKey, res.Price,
				log.CacheHitKey, true,
			)
			return &Prediction{Input: v, Predictions: res}, nil
		}
	}

	res, err := s.pipeline.Run(v)
	if err != nil {
		s.observer.ObservePrediction(OutcomeError, false, time.Since(start))
		s.logger.Error("prediction failed", err,
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
		)
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(v, res)
	}

	s.observer.ObservePrediction(OutcomeOK, false, time.Since(start))
	s.logger.Debug("prediction served",
		log.OperationKey, log.OperationPredict,
		log.PriceKey, res.Price,
		log.CacheHitKey, false,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Prediction{Input: v, Predictions: res}, nil
}

// PredictBatch scores JSON-style records independently.
func (s *Service) PredictBatch(ctx context.Context, rows []map[string]any) (*BatchResult, error) {
	start := time.Now()
	res, err := s.batch.Process(ctx, rows)
	return s.observeBatch(res, err, start)
}

// PredictTable scores tabular records independently.
func (s *Service) PredictTable(ctx context.Context, t *Table) (*BatchResult, error) {
	start := time.Now()
	res, err := s.batch.ProcessTable(ctx, t)
	return s.observeBatch(res, err, start)
}

// PredictCSV parses r as CSV and scores every record. Model availability is
// checked before r is read.
func (s *Service) PredictCSV(ctx context.Context, r io.Reader) (*BatchResult, error) {
	if !s.Ready() {
		return nil, errors.NewModelsUnavailableError(s.pipeline.Missing()...)
	}
	t, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return s.PredictTable(ctx, t)
}

func (s *Service) observeBatch(res *BatchResult, err error, start time.Time) (*BatchResult, error) {
	if err != nil {
		return nil, err
	}
	s.observer.ObserveBatch(res.TotalRows, res.Failed(), time.Since(start))
	return res, nil
}
