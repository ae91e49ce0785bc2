// Package linear は学習済みの線形回帰モデルによる推論を提供する
package linear

import (
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	model.StateManager
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// SetParams は学習済みの係数と切片を設定する
func (lr *LinearRegression) SetParams(coefficients []float64, intercept float64) error {
	if len(coefficients) == 0 {
		return errors.NewModelError("LinearRegression.SetParams", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckNumericalStability("LinearRegression.SetParams", append(append([]float64{}, coefficients...), intercept)); err != nil {
		return err
	}

	lr.NFeatures = len(coefficients)
	lr.Intercept = intercept
	lr.Weights = mat.NewVecDense(len(coefficients), append([]float64(nil), coefficients...))

	lr.SetFitted(lr.NFeatures)
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	if err := lr.RequireFeatures("LinearRegression.Predict", X); err != nil {
		return nil, err
	}

	// 予測: y = X * weights + intercept
	r, _ := X.Dims()
	var xw mat.VecDense
	xw.MulVec(X, lr.Weights)

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, xw.AtVec(i)+lr.Intercept)
	}
	return predictions, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}

	weights := make([]float64, lr.Weights.Len())
	for i := 0; i < lr.Weights.Len(); i++ {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// String returns a short description of the model.
func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return "LinearRegression()"
	}
	return fmt.Sprintf("LinearRegression(n_features=%d)", lr.NFeatures)
}

// LoadFromSKLearn はscikit-learnからエクスポートされたJSONファイルからモデルを読み込む
//
// 使用例:
//
//	lr := NewLinearRegression()
//	err := lr.LoadFromSKLearn("linear_model.json")
func (lr *LinearRegression) LoadFromSKLearn(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model artifact %s", filename)
	}
	defer file.Close()

	return lr.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader はReaderからscikit-learnモデルを読み込む
func (lr *LinearRegression) LoadFromSKLearnReader(r io.Reader) error {
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return errors.Wrap(err, "failed to load sklearn model")
	}

	params, err := model.LoadLinearRegressionParams(skModel)
	if err != nil {
		return errors.Wrap(err, "failed to load linear regression params")
	}

	return lr.SetParams(params.Coefficients, params.Intercept)
}

// ExportToSKLearnWriter はモデルをWriterにscikit-learn互換形式でエクスポート
func (lr *LinearRegression) ExportToSKLearnWriter(w io.Writer) error {
	if err := lr.RequireFitted("LinearRegression", "ExportToSKLearnWriter"); err != nil {
		return err
	}

	return model.WriteSKLearnModel(w, "LinearRegression", model.SKLearnLinearRegressionParams{
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		NFeatures:    lr.NFeatures,
	})
}
