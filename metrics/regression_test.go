package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			want:  0,
		},
		{
			name:  "simple case",
			yTrue: mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred: mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:  0.25,
		},
		{
			name:  "larger errors",
			yTrue: mat.NewVecDense(3, []float64{10, 20, 30}),
			yPred: mat.NewVecDense(3, []float64{12, 18, 33}),
			want:  17.0 / 3.0,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestRMSEAndMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{2, 2, 3, 6})

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5.0/4.0), rmse, 1e-10)

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, mae, 1e-10)

	_, err = MAE(yTrue, mat.NewVecDense(1, []float64{1}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestR2Score(t *testing.T) {
	r2, err := R2Score(
		mat.NewVecDense(4, []float64{3, -0.5, 2, 7}),
		mat.NewVecDense(4, []float64{2.5, 0, 2, 8}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.9486081370449679, r2, 1e-10)

	_, err = R2Score(mat.NewVecDense(3, []float64{5, 5, 5}), mat.NewVecDense(3, []float64{4, 5, 6}))
	assert.Error(t, err, "constant targets have no variance")
}

func TestMAPE(t *testing.T) {
	mape, err := MAPE(
		mat.NewVecDense(3, []float64{100, 0, 200}),
		mat.NewVecDense(3, []float64{110, 5, 180}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, mape, 1e-10, "zero targets are skipped")

	_, err = MAPE(mat.NewVecDense(2, []float64{0, 0}), mat.NewVecDense(2, []float64{1, 1}))
	assert.Error(t, err)
}

func TestRegressionReport(t *testing.T) {
	report, err := Regression(
		mat.NewVecDense(4, []float64{100, 200, 300, 400}),
		mat.NewVecDense(4, []float64{110, 190, 300, 420}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, report.MSE, 1e-10)
	assert.InDelta(t, math.Sqrt(150), report.RMSE, 1e-10)
	assert.InDelta(t, 10.0, report.MAE, 1e-10)
	assert.InDelta(t, 1-600.0/50000.0, report.R2, 1e-10)
	assert.InDelta(t, (10.0+5.0+0+5.0)/4, report.MAPE, 1e-10)

	// A single target has no variance; R2 is reported as 0 rather than failing.
	report, err = Regression(mat.NewVecDense(1, []float64{100}), mat.NewVecDense(1, []float64{90}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.R2)
	assert.InDelta(t, 100.0, report.MSE, 1e-10)

	_, err = Regression(&mat.VecDense{}, &mat.VecDense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
