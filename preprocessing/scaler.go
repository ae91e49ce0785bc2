package preprocessing

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/core/parallel"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// StandardScaler はscikit-learn互換の標準化スケーラー
// 学習済みの平均と標準偏差で (x - mean) / scale を計算する
type StandardScaler struct {
	model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// パラメータ:
//   - withMean: 平均を引くかどうか (デフォルト: true)
//   - withStd: 標準偏差で割るかどうか (デフォルト: true)
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.LoadFromSKLearn("scaler.json")
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// SetParams は学習済みの統計情報を直接設定する。
// 標準偏差が0に近い特徴量はゼロ除算を避けるため1として扱う。
func (s *StandardScaler) SetParams(mean, scale []float64) error {
	if len(mean) == 0 {
		return errors.NewModelError("StandardScaler.SetParams", "empty data", errors.ErrEmptyData)
	}
	if len(scale) != len(mean) {
		return errors.NewDimensionError("StandardScaler.SetParams", len(mean), len(scale), 1)
	}
	if err := errors.CheckNumericalStability("StandardScaler.SetParams", append(append([]float64{}, mean...), scale...)); err != nil {
		return err
	}

	c := len(mean)
	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		if s.WithMean {
			s.Mean[j] = mean[j]
		}
		s.Scale[j] = 1.0
		if s.WithStd && math.Abs(scale[j]) >= 1e-8 {
			s.Scale[j] = scale[j]
		}
	}

	s.SetFitted(c)
	return nil
}

// LoadFromSKLearn はscikit-learnからエクスポートされたJSONファイルを読み込む
func (s *StandardScaler) LoadFromSKLearn(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open scaler artifact %s", filename)
	}
	defer file.Close()

	return s.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader はReaderからscikit-learnモデルを読み込む
func (s *StandardScaler) LoadFromSKLearnReader(r io.Reader) error {
	m, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return err
	}
	return s.loadModel(m)
}

func (s *StandardScaler) loadModel(m *model.SKLearnModel) error {
	params, err := model.LoadStandardScalerParams(m)
	if err != nil {
		return err
	}
	s.WithMean, s.WithStd = true, true
	if params.WithMean != nil {
		s.WithMean = *params.WithMean
	}
	if params.WithStd != nil {
		s.WithStd = *params.WithStd
	}
	return s.SetParams(params.Mean, params.Scale)
}

// Transform は学習済みの統計情報を使ってデータを標準化する
//
// パラメータ:
//   - X: 変換するデータ
//
// 戻り値:
//   - mat.Matrix: 標準化されたデータ
//   - error: エラーが発生した場合
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	if err := s.RequireFeatures("StandardScaler.Transform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
			}
		}
	})
	return result, nil
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	if err := s.RequireFeatures("StandardScaler.InverseTransform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.StateManager

	// Scale は各特徴量のスケール (max - min)
	Scale []float64

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// NFeatures は特徴量の数
	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	// Clip は変換後の値を FeatureRange に収めるかどうか
	Clip bool
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// SetParams は学習データの最小値・最大値を直接設定する
func (m *MinMaxScaler) SetParams(dataMin, dataMax []float64) error {
	if len(dataMin) == 0 {
		return errors.NewModelError("MinMaxScaler.SetParams", "empty data", errors.ErrEmptyData)
	}
	if len(dataMax) != len(dataMin) {
		return errors.NewDimensionError("MinMaxScaler.SetParams", len(dataMin), len(dataMax), 1)
	}
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.Newf("MinMaxScaler.SetParams: invalid feature_range %v", m.FeatureRange)
	}

	c := len(dataMin)
	m.NFeatures = c
	m.DataMin = append([]float64(nil), dataMin...)
	m.DataMax = append([]float64(nil), dataMax...)
	m.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		dataRange := dataMax[j] - dataMin[j]
		if math.Abs(dataRange) < 1e-8 {
			// 定数特徴量の場合、スケールを1に設定
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted(c)
	return nil
}

// LoadFromSKLearn はscikit-learnからエクスポートされたJSONファイルを読み込む
func (m *MinMaxScaler) LoadFromSKLearn(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open scaler artifact %s", filename)
	}
	defer file.Close()

	return m.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader はReaderからscikit-learnモデルを読み込む
func (m *MinMaxScaler) LoadFromSKLearnReader(r io.Reader) error {
	sk, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return err
	}
	return m.loadModel(sk)
}

func (m *MinMaxScaler) loadModel(sk *model.SKLearnModel) error {
	params, err := model.LoadMinMaxScalerParams(sk)
	if err != nil {
		return err
	}
	m.FeatureRange = params.FeatureRange
	m.Clip = params.Clip
	return m.SetParams(params.DataMin, params.DataMax)
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	if err := m.RequireFeatures("MinMaxScaler.Transform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
				scaled := (X.At(i, j)-m.DataMin[j])/m.Scale[j]*(hi-lo) + lo
				if m.Clip {
					scaled = math.Max(lo, math.Min(hi, scaled))
				}
				result.Set(i, j, scaled)
			}
		}
	})
	return result, nil
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	if err := m.RequireFeatures("MinMaxScaler.InverseTransform", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := ((X.At(i, j) - m.FeatureRange[0]) / featureRange) * m.Scale[j]
			result.Set(i, j, original+m.DataMin[j])
		}
	}
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// LoadScaler reads a scaler artifact and returns whichever scaler its
// model_spec names.
func LoadScaler(r io.Reader) (model.Transformer, error) {
	sk, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return nil, err
	}
	switch sk.ModelSpec.Name {
	case "StandardScaler":
		s := NewStandardScalerDefault()
		if err := s.loadModel(sk); err != nil {
			return nil, err
		}
		return s, nil
	case "MinMaxScaler":
		m := NewMinMaxScalerDefault()
		if err := m.loadModel(sk); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.NewModelError("LoadScaler", sk.ModelSpec.Name, errors.ErrUnsupportedModel)
	}
}
