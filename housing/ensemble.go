package housing

import (
	"math"

	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

// ClassifierOutput is one classifier's label and its probabilities indexed by
// class ordinal. Proba may be shorter or longer than the three categories.
type ClassifierOutput struct {
	Label int
	Proba []float64
}

// RawOutputs holds one evaluation of the three models.
type RawOutputs struct {
	Price    float64
	Logistic ClassifierOutput
	Tree     ClassifierOutput
}

// Ensemble holds the three read-only inference capabilities. Missing
// capabilities are allowed at construction; Infer then reports them.
type Ensemble struct {
	regressor model.Regressor
	logistic  model.Classifier
	tree      model.Classifier
}

// NewEnsemble checks every non-nil capability is loaded for NumFeatures inputs.
func NewEnsemble(regressor model.Regressor, logistic, tree model.Classifier) (*Ensemble, error) {
	for name, c := range map[string]model.Loaded{
		ArtifactLinear:   regressor,
		ArtifactLogistic: logistic,
		ArtifactTree:     tree,
	} {
		if c == nil {
			continue
		}
		if !c.IsFitted() {
			return nil, errors.NewNotFittedError(name, "Infer")
		}
		if n := c.NumFeatures(); n != NumFeatures {
			return nil, errors.NewDimensionError("NewEnsemble."+name, NumFeatures, n, 1)
		}
	}
	return &Ensemble{regressor: regressor, logistic: logistic, tree: tree}, nil
}

// Missing names the capabilities that were not supplied.
func (e *Ensemble) Missing() []string {
	if e == nil {
		return []string{ArtifactLinear, ArtifactLogistic, ArtifactTree}
	}
	var missing []string
	if e.regressor == nil {
		missing = append(missing, ArtifactLinear)
	}
	if e.logistic == nil {
		missing = append(missing, ArtifactLogistic)
	}
	if e.tree == nil {
		missing = append(missing, ArtifactTree)
	}
	return missing
}

// Available reports whether all three capabilities are present.
func (e *Ensemble) Available() bool {
	return len(e.Missing()) == 0
}

// Infer evaluates each model once on s.
func (e *Ensemble) Infer(s ScaledVector) (RawOutputs, error) {
	if missing := e.Missing(); len(missing) > 0 {
		return RawOutputs{}, errors.NewModelsUnavailableError(missing...)
	}

	X := s.matrix()
	pred, err := e.regressor.Predict(X)
	if err != nil {
		return RawOutputs{}, errors.Wrap(err, "regressor")
	}
	price := pred.At(0, 0)
	if err := errors.CheckScalar("Ensemble.Infer.price", price); err != nil {
		return RawOutputs{}, err
	}

	logistic, err := classify(e.logistic, s)
	if err != nil {
		return RawOutputs{}, errors.Wrap(err, ArtifactLogistic)
	}
	tree, err := classify(e.tree, s)
	if err != nil {
		return RawOutputs{}, errors.Wrap(err, ArtifactTree)
	}

	return RawOutputs{Price: price, Logistic: logistic, Tree: tree}, nil
}

// classify places each PredictProba column at the ordinal named by Classes.
// Negative labels have no ordinal slot and are dropped.
func classify(c model.Classifier, s ScaledVector) (ClassifierOutput, error) {
	X := s.matrix()
	label, err := c.Predict(X)
	if err != nil {
		return ClassifierOutput{}, err
	}
	proba, err := c.PredictProba(X)
	if err != nil {
		return ClassifierOutput{}, err
	}

	classes := c.Classes()
	if _, cols := proba.Dims(); cols != len(classes) {
		return ClassifierOutput{}, errors.NewDimensionError("classify", len(classes), cols, 1)
	}
	width := 0
	for _, l := range classes {
		if l+1 > width {
			width = l + 1
		}
	}
	aligned := make([]float64, width)
	for k, l := range classes {
		if l < 0 {
			continue
		}
		aligned[l] = proba.At(0, k)
	}
	if err := errors.CheckNumericalStability("classify.proba", aligned); err != nil {
		return ClassifierOutput{}, err
	}

	return ClassifierOutput{Label: int(math.Round(label.At(0, 0))), Proba: aligned}, nil
}
