package housing

import (
	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

// Pipeline runs Scaler, Ensemble and Aggregator on a validated vector.
type Pipeline struct {
	scaler   *FeatureScaler
	ensemble *Ensemble
}

// NewPipeline joins a scaler and an ensemble. Either may be nil, in which
// case Run reports the models as unavailable.
func NewPipeline(scaler *FeatureScaler, ensemble *Ensemble) *Pipeline {
	return &Pipeline{scaler: scaler, ensemble: ensemble}
}

// Missing names every artifact the pipeline lacks.
func (p *Pipeline) Missing() []string {
	missing := p.ensemble.Missing()
	if p.scaler == nil {
		missing = append(missing, ArtifactScaler)
	}
	return missing
}

// Ready reports whether all four artifacts are present.
func (p *Pipeline) Ready() bool {
	return len(p.Missing()) == 0
}

// Run scores v. Availability is checked before any work.
func (p *Pipeline) Run(v FeatureVector) (PredictionResult, error) {
	if missing := p.Missing(); len(missing) > 0 {
		return PredictionResult{}, errors.NewModelsUnavailableError(missing...)
	}
	scaled, err := p.scaler.Scale(v)
	if err != nil {
		return PredictionResult{}, err
	}
	raw, err := p.ensemble.Infer(scaled)
	if err != nil {
		return PredictionResult{}, err
	}
	res := Aggregate(raw)
	if err := errors.CheckScalar("Pipeline.Aggregate", res.Price); err != nil {
		return PredictionResult{}, err
	}
	return res, nil
}
