// Package linear_model provides inference for scikit-learn linear classifiers.
package linear_model

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression implements logistic regression inference for classification.
// Compatible with the coef_/intercept_/classes_ of scikit-learn's LogisticRegression.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	multiClass string // "multinomial" or "ovr"

	// Model parameters
	coef_      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Class labels, in column order of PredictProba
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
}

// NewLogisticRegression creates an unloaded LogisticRegression classifier
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		state:      model.NewStateManager(),
		multiClass: "multinomial",
	}
}

// SetCoefficients installs fitted parameters. For two classes coef holds a
// single row for classes[1]; otherwise one row per class.
func (lr *LogisticRegression) SetCoefficients(coef [][]float64, intercept []float64, classes []int, multiClass string) error {
	params := &model.SKLearnLogisticRegressionParams{
		Coef:       coef,
		Intercept:  intercept,
		Classes:    classes,
		MultiClass: multiClass,
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return lr.apply(params)
}

func (lr *LogisticRegression) apply(p *model.SKLearnLogisticRegressionParams) error {
	for _, row := range p.Coef {
		if err := errors.CheckNumericalStability("LogisticRegression.coef", row); err != nil {
			return err
		}
	}
	if err := errors.CheckNumericalStability("LogisticRegression.intercept", p.Intercept); err != nil {
		return err
	}

	lr.coef_ = make([][]float64, len(p.Coef))
	for i, row := range p.Coef {
		lr.coef_[i] = append([]float64(nil), row...)
	}
	lr.intercept_ = append([]float64(nil), p.Intercept...)
	lr.classes_ = append([]int(nil), p.Classes...)
	lr.nClasses_ = len(p.Classes)
	lr.nFeatures_ = p.NFeatures
	lr.multiClass = p.MultiClass
	if lr.multiClass == "" {
		lr.multiClass = "multinomial"
	}

	lr.state.SetFitted(lr.nFeatures_)
	return nil
}

// LoadFromSKLearn loads fitted parameters from a scikit-learn JSON export.
func (lr *LogisticRegression) LoadFromSKLearn(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model artifact %s", filename)
	}
	defer file.Close()

	return lr.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader loads fitted parameters from a Reader.
func (lr *LogisticRegression) LoadFromSKLearnReader(r io.Reader) error {
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return errors.Wrap(err, "failed to load sklearn model")
	}
	params, err := model.LoadLogisticRegressionParams(skModel)
	if err != nil {
		return errors.Wrap(err, "failed to load logistic regression params")
	}
	return lr.apply(params)
}

// ExportToSKLearnWriter writes the fitted parameters in the JSON envelope.
func (lr *LogisticRegression) ExportToSKLearnWriter(w io.Writer) error {
	if err := lr.state.RequireFitted("LogisticRegression", "ExportToSKLearnWriter"); err != nil {
		return err
	}
	return model.WriteSKLearnModel(w, "LogisticRegression", model.SKLearnLogisticRegressionParams{
		Coef:       lr.coef_,
		Intercept:  lr.intercept_,
		Classes:    lr.classes_,
		NFeatures:  lr.nFeatures_,
		MultiClass: lr.multiClass,
	})
}

// IsFitted reports whether parameters have been loaded.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// NumFeatures returns the number of features the coefficients expect.
func (lr *LogisticRegression) NumFeatures() int { return lr.state.NumFeatures() }

// Classes returns the class labels in column order of PredictProba.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

func (lr *LogisticRegression) check(method string, X mat.Matrix) error {
	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return err
	}
	return lr.state.RequireFeatures("LogisticRegression."+method, X)
}

// decision returns the linear score of row i for coefficient row k.
func (lr *LogisticRegression) decision(X mat.Matrix, i, k int) float64 {
	z := lr.intercept_[k]
	for j := 0; j < lr.nFeatures_; j++ {
		z += X.At(i, j) * lr.coef_[k][j]
	}
	return z
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, lr.nClasses_)
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, probas)
		predictions.Set(i, 0, float64(lr.classes_[floats.MaxIdx(row)]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.check("PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)
	scores := make([]float64, lr.nClasses_)

	for i := 0; i < nSamples; i++ {
		switch {
		case lr.nClasses_ == 2:
			z := lr.decision(X, i, 0)
			if lr.multiClass == "multinomial" {
				// softmax([-z, z]) == sigmoid(2z)
				z *= 2
			}
			prob1 := sigmoid(z)
			scores[0], scores[1] = 1.0-prob1, prob1
		case lr.multiClass == "ovr":
			// One-vs-rest: independent sigmoids, renormalised
			for k := range scores {
				scores[k] = sigmoid(lr.decision(X, i, k))
			}
			floats.Scale(1/floats.Sum(scores), scores)
		default:
			for k := range scores {
				scores[k] = lr.decision(X, i, k)
			}
			softmax(scores)
		}
		if err := errors.CheckNumericalStability("LogisticRegression.PredictProba", scores); err != nil {
			return nil, err
		}
		probas.SetRow(i, scores)
	}

	return probas, nil
}

// String returns a short description of the model.
func (lr *LogisticRegression) String() string {
	if !lr.state.IsFitted() {
		return "LogisticRegression()"
	}
	return fmt.Sprintf("LogisticRegression(n_classes=%d, n_features=%d, multi_class=%s)",
		lr.nClasses_, lr.nFeatures_, lr.multiClass)
}

// softmax normalises scores in place, shifted by the max for stability.
func softmax(scores []float64) {
	maxScore := floats.Max(scores)
	sum := 0.0
	for k := range scores {
		scores[k] = math.Exp(scores[k] - maxScore)
		sum += scores[k]
	}
	floats.Scale(1/sum, scores)
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
