package housing

import (
	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ScaledVector is a FeatureVector after the fitted normalization.
type ScaledVector [NumFeatures]float64

func (s ScaledVector) matrix() *mat.Dense {
	return mat.NewDense(1, NumFeatures, s[:])
}

// FeatureScaler applies the normalization the models were trained with.
type FeatureScaler struct {
	t model.Transformer
}

// NewFeatureScaler wraps a loaded transformer. The transformer must be fitted
// on exactly NumFeatures columns.
func NewFeatureScaler(t model.Transformer) (*FeatureScaler, error) {
	if t == nil || !t.IsFitted() {
		return nil, errors.NewNotFittedError("FeatureScaler", "Scale")
	}
	if n := t.NumFeatures(); n != NumFeatures {
		return nil, errors.NewDimensionError("FeatureScaler", NumFeatures, n, 1)
	}
	return &FeatureScaler{t: t}, nil
}

// Scale transforms v. A nil scaler reports the scaler artifact as unavailable.
func (s *FeatureScaler) Scale(v FeatureVector) (ScaledVector, error) {
	var out ScaledVector
	if s == nil {
		return out, errors.NewModelsUnavailableError(ArtifactScaler)
	}
	scaled, err := s.t.Transform(mat.NewDense(1, NumFeatures, v.Values()))
	if err != nil {
		return out, errors.Wrap(err, "scaling features")
	}
	for j := range out {
		out[j] = scaled.At(0, j)
	}
	if err := errors.CheckNumericalStability("FeatureScaler.Scale", out[:]); err != nil {
		return out, err
	}
	return out, nil
}
