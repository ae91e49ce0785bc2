package linear

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const housingArtifact = `{
  "model_spec": {"name": "LinearRegression", "format_version": "1.0"},
  "params": {"coefficients": [80000, 15000, 20000, -3000], "intercept": 350000, "n_features": 4}
}`

func TestLinearRegression_LoadAndPredict(t *testing.T) {
	lr := NewLinearRegression()
	if err := lr.LoadFromSKLearnReader(strings.NewReader(housingArtifact)); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if !lr.IsFitted() {
		t.Fatal("Model should be fitted after loading")
	}
	if lr.NumFeatures() != 4 {
		t.Errorf("Expected 4 features, got %d", lr.NumFeatures())
	}

	X := mat.NewDense(2, 4, []float64{
		0, 0, 0, 0,
		1, 2, -1, 0.5,
	})
	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	expected := []float64{350000, 350000 + 80000 + 30000 - 20000 - 1500}
	for i, want := range expected {
		if math.Abs(pred.At(i, 0)-want) > 1e-9 {
			t.Errorf("Row %d: expected %f, got %f", i, want, pred.At(i, 0))
		}
	}
}

func TestLinearRegression_NotFitted(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 4, nil))

	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFittedError, got %v", err)
	}
	if lr.String() != "LinearRegression()" {
		t.Errorf("Unexpected String(): %s", lr.String())
	}
}

func TestLinearRegression_DimensionMismatch(t *testing.T) {
	lr := NewLinearRegression()
	if err := lr.SetParams([]float64{1, 2}, 0); err != nil {
		t.Fatalf("SetParams: %v", err)
	}

	_, err := lr.Predict(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DimensionError, got %v", err)
	}
	if de.Expected != 2 || de.Got != 3 {
		t.Errorf("Unexpected dimension error: %+v", de)
	}
}

func TestLinearRegression_InvalidArtifacts(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"wrong model", `{"model_spec":{"name":"LogisticRegression","format_version":"1.0"},"params":{}}`},
		{"coefficient count", `{"model_spec":{"name":"LinearRegression","format_version":"1.0"},"params":{"coefficients":[1,2],"n_features":4}}`},
		{"no coefficients", `{"model_spec":{"name":"LinearRegression","format_version":"1.0"},"params":{"intercept":1}}`},
		{"bad version", `{"model_spec":{"name":"LinearRegression","format_version":"9"},"params":{"coefficients":[1]}}`},
		{"not json", `coefficients: [1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			if err := lr.LoadFromSKLearnReader(strings.NewReader(tt.json)); err == nil {
				t.Fatal("Expected load error")
			}
			if lr.IsFitted() {
				t.Error("Model must stay unfitted after a failed load")
			}
		})
	}
}

func TestLinearRegression_ExportRoundTrip(t *testing.T) {
	lr := NewLinearRegression()
	if err := lr.SetParams([]float64{2, -1}, 0.5); err != nil {
		t.Fatalf("SetParams: %v", err)
	}

	var buf bytes.Buffer
	if err := lr.ExportToSKLearnWriter(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	loaded := NewLinearRegression()
	if err := loaded.LoadFromSKLearnReader(&buf); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if loaded.GetIntercept() != 0.5 {
		t.Errorf("Expected intercept 0.5, got %f", loaded.GetIntercept())
	}
	w := loaded.GetWeights()
	if len(w) != 2 || w[0] != 2 || w[1] != -1 {
		t.Errorf("Unexpected weights %v", w)
	}
}
