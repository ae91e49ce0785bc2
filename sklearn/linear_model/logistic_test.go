package linear_model

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TestLogisticRegression_Binary tests sigmoid probabilities for two classes
func TestLogisticRegression_Binary(t *testing.T) {
	lr := NewLogisticRegression()
	if err := lr.SetCoefficients([][]float64{{1, 0}}, []float64{0}, []int{0, 1}, ""); err != nil {
		t.Fatalf("SetCoefficients: %v", err)
	}

	X := mat.NewDense(2, 2, []float64{
		2, 0,
		-2, 5,
	})
	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	r, c := probas.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("Expected 2x2 probabilities, got %dx%d", r, c)
	}

	p := 1.0 / (1.0 + math.Exp(-2))
	if math.Abs(probas.At(0, 1)-p) > 1e-12 || math.Abs(probas.At(0, 0)-(1-p)) > 1e-12 {
		t.Errorf("Unexpected probabilities for sample 0: [%f, %f]", probas.At(0, 0), probas.At(0, 1))
	}

	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if predictions.At(0, 0) != 1 || predictions.At(1, 0) != 0 {
		t.Errorf("Expected predictions [1, 0], got [%v, %v]", predictions.At(0, 0), predictions.At(1, 0))
	}
}

// TestLogisticRegression_BinaryMultinomial tests softmax over [-z, z] for two classes
func TestLogisticRegression_BinaryMultinomial(t *testing.T) {
	lr := NewLogisticRegression()
	if err := lr.SetCoefficients([][]float64{{1, 0}}, []float64{0}, []int{0, 1}, "multinomial"); err != nil {
		t.Fatalf("SetCoefficients: %v", err)
	}

	probas, err := lr.PredictProba(mat.NewDense(1, 2, []float64{2, 0}))
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	e := math.Exp(2) / (math.Exp(2) + math.Exp(-2))
	if math.Abs(probas.At(0, 1)-e) > 1e-12 || math.Abs(probas.At(0, 0)-(1-e)) > 1e-12 {
		t.Errorf("Expected [%f, %f], got [%f, %f]", 1-e, e, probas.At(0, 0), probas.At(0, 1))
	}
}

// TestLogisticRegression_Multinomial tests softmax probabilities
func TestLogisticRegression_Multinomial(t *testing.T) {
	lr := NewLogisticRegression()
	err := lr.SetCoefficients(
		[][]float64{{1, 0}, {0, 0}, {-1, 0}},
		[]float64{0, 0, 0},
		[]int{0, 1, 2},
		"multinomial",
	)
	if err != nil {
		t.Fatalf("SetCoefficients: %v", err)
	}

	X := mat.NewDense(2, 2, []float64{
		0, 0,
		1, 0,
	})
	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	for k := 0; k < 3; k++ {
		if math.Abs(probas.At(0, k)-1.0/3.0) > 1e-12 {
			t.Errorf("Sample 0 class %d: expected 1/3, got %f", k, probas.At(0, k))
		}
	}

	denom := math.E + 1 + 1/math.E
	if math.Abs(probas.At(1, 0)-math.E/denom) > 1e-12 {
		t.Errorf("Sample 1 class 0: expected %f, got %f", math.E/denom, probas.At(1, 0))
	}

	// Probabilities sum to one
	for i := 0; i < 2; i++ {
		sum := 0.0
		for k := 0; k < 3; k++ {
			sum += probas.At(i, k)
		}
		if math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("Sample %d probabilities sum to %f", i, sum)
		}
	}

	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if predictions.At(1, 0) != 0 {
		t.Errorf("Expected class 0 for sample 1, got %v", predictions.At(1, 0))
	}
}

// TestLogisticRegression_OVR tests renormalised one-vs-rest probabilities
func TestLogisticRegression_OVR(t *testing.T) {
	lr := NewLogisticRegression()
	err := lr.SetCoefficients(
		[][]float64{{0}, {0}, {3}},
		[]float64{0, 0, 0},
		[]int{0, 1, 2},
		"ovr",
	)
	if err != nil {
		t.Fatalf("SetCoefficients: %v", err)
	}

	probas, err := lr.PredictProba(mat.NewDense(1, 1, []float64{1}))
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	s := 1.0 / (1.0 + math.Exp(-3))
	want := s / (1 + s)
	if math.Abs(probas.At(0, 2)-want) > 1e-12 {
		t.Errorf("Expected %f for class 2, got %f", want, probas.At(0, 2))
	}
}

func TestLogisticRegression_LoadFromSKLearnReader(t *testing.T) {
	artifact := `{
	  "model_spec": {"name": "LogisticRegression", "format_version": "1.0"},
	  "params": {
	    "coef": [[-2, -0.5, -1, 0.3], [0, 0, 0, 0], [2, 0.5, 1, -0.3]],
	    "intercept": [0, 0.5, 0],
	    "classes": [0, 1, 2],
	    "n_features": 4
	  }
	}`

	lr := NewLogisticRegression()
	if err := lr.LoadFromSKLearnReader(strings.NewReader(artifact)); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if !lr.IsFitted() || lr.NumFeatures() != 4 {
		t.Fatalf("Unexpected state: fitted=%v features=%d", lr.IsFitted(), lr.NumFeatures())
	}
	if got := lr.Classes(); len(got) != 3 || got[2] != 2 {
		t.Errorf("Unexpected classes %v", got)
	}

	var buf bytes.Buffer
	if err := lr.ExportToSKLearnWriter(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	reloaded := NewLogisticRegression()
	if err := reloaded.LoadFromSKLearnReader(&buf); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reloaded.String() != lr.String() {
		t.Errorf("Expected %s, got %s", lr.String(), reloaded.String())
	}
}

func TestLogisticRegression_Errors(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.PredictProba(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFittedError, got %v", err)
	}

	if err := lr.SetCoefficients([][]float64{{1, 2}}, []float64{0}, []int{0}, ""); err == nil {
		t.Error("Expected error for a single class")
	}
	if err := lr.SetCoefficients([][]float64{{1, 2}, {1}}, []float64{0, 0, 0}, []int{0, 1, 2}, ""); err == nil {
		t.Error("Expected error for ragged coefficients")
	}
	if err := lr.SetCoefficients([][]float64{{1}}, []float64{0}, []int{0, 1}, "crammer_singer"); err == nil {
		t.Error("Expected error for unknown multi_class")
	}

	if err := lr.SetCoefficients([][]float64{{1, 2}}, []float64{0}, []int{0, 1}, ""); err != nil {
		t.Fatalf("SetCoefficients: %v", err)
	}
	_, err = lr.Predict(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DimensionError, got %v", err)
	}
}
