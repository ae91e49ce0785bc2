package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

// Accuracy は正解率を返す。
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "Accuracy")
	}
	if len(yPred) != len(yTrue) {
		return 0, errors.NewDimensionError("Accuracy", len(yTrue), len(yPred), 0)
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ConfusionMatrix は k×k の混同行列を返す。行が正解、列が予測。
// [0, k) の範囲外のラベルを持つ組は数えない。
func ConfusionMatrix(yTrue, yPred []int, k int) (*mat.Dense, error) {
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}
	if k <= 0 {
		return nil, errors.Newf("ConfusionMatrix: k must be positive, got %d", k)
	}
	cm := mat.NewDense(k, k, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			continue
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}
