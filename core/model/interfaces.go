// Package model defines the inference capabilities the prediction pipeline
// depends on, and the sklearn-compatible artifact format they are loaded from.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Loaded is implemented by every artifact-backed component.
type Loaded interface {
	// IsFitted reports whether parameters have been loaded.
	IsFitted() bool

	// NumFeatures returns the number of input features the parameters expect.
	NumFeatures() int
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う (n_samples × 1)
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor is a model producing one continuous value per sample.
type Regressor interface {
	Loaded
	Predictor
}

// Classifier is a model producing a class label and a probability
// distribution over its classes.
type Classifier interface {
	Loaded
	Predictor

	// PredictProba returns probability estimates, one column per entry of Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the class labels in column order of PredictProba.
	Classes() []int
}

// Transformer applies a fitted feature transform.
type Transformer interface {
	Loaded

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)
}
