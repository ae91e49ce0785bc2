package model

import (
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

// SupportedFormatVersion is the artifact envelope version this package reads.
const SupportedFormatVersion = "1.0"

// SKLearnModelSpec はエクスポートされたscikit-learnモデルのメタデータ
type SKLearnModelSpec struct {
	Name           string `json:"name"`
	FormatVersion  string `json:"format_version"`
	SKLearnVersion string `json:"sklearn_version,omitempty"`
}

// SKLearnModel はscikit-learnからエクスポートされたモデルのJSONエンベロープ
//
//	{"model_spec": {"name": "LinearRegression", "format_version": "1.0"},
//	 "params": {"coefficients": [...], "intercept": 1.5, "n_features": 4}}
type SKLearnModel struct {
	ModelSpec SKLearnModelSpec `json:"model_spec"`
	Params    json.RawMessage  `json:"params"`
}

// LoadSKLearnModel はファイルからモデルのエンベロープを読み込む
func LoadSKLearnModel(filename string) (*SKLearnModel, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open model artifact %s", filename)
	}
	defer file.Close()

	return LoadSKLearnModelFromReader(file)
}

// LoadSKLearnModelFromReader はReaderからモデルのエンベロープを読み込む
func LoadSKLearnModelFromReader(r io.Reader) (*SKLearnModel, error) {
	var m SKLearnModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.NewModelError("LoadSKLearnModel", "invalid JSON", err)
	}
	if m.ModelSpec.Name == "" {
		return nil, errors.NewModelError("LoadSKLearnModel", "model_spec.name is required", nil)
	}
	if m.ModelSpec.FormatVersion != SupportedFormatVersion {
		return nil, errors.NewModelError("LoadSKLearnModel",
			"unsupported format_version "+m.ModelSpec.FormatVersion, nil)
	}
	if len(m.Params) == 0 {
		return nil, errors.NewModelError("LoadSKLearnModel", "params are required", errors.ErrEmptyData)
	}
	return &m, nil
}

// DecodeParams checks the envelope holds a model called name and decodes its
// params into dst.
func (m *SKLearnModel) DecodeParams(name string, dst interface{}) error {
	if m.ModelSpec.Name != name {
		return errors.NewModelError("DecodeParams",
			"expected "+name+", got "+m.ModelSpec.Name, errors.ErrUnsupportedModel)
	}
	if err := json.Unmarshal(m.Params, dst); err != nil {
		return errors.NewModelError("DecodeParams", "invalid params for "+name, err)
	}
	return nil
}

// WriteSKLearnModel encodes params in the artifact envelope.
func WriteSKLearnModel(w io.Writer, name string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "failed to marshal params")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&SKLearnModel{
		ModelSpec: SKLearnModelSpec{Name: name, FormatVersion: SupportedFormatVersion},
		Params:    raw,
	})
}

// SKLearnLinearRegressionParams は LinearRegression の coef_ / intercept_
type SKLearnLinearRegressionParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NFeatures    int       `json:"n_features"`
}

// LoadLinearRegressionParams は LinearRegression のパラメータを取り出して検証する
func LoadLinearRegressionParams(m *SKLearnModel) (*SKLearnLinearRegressionParams, error) {
	var p SKLearnLinearRegressionParams
	if err := m.DecodeParams("LinearRegression", &p); err != nil {
		return nil, err
	}
	if p.NFeatures == 0 {
		p.NFeatures = len(p.Coefficients)
	}
	if p.NFeatures == 0 {
		return nil, errors.NewModelError("LoadLinearRegressionParams", "no coefficients", errors.ErrEmptyData)
	}
	if len(p.Coefficients) != p.NFeatures {
		return nil, errors.NewDimensionError("LoadLinearRegressionParams", p.NFeatures, len(p.Coefficients), 1)
	}
	return &p, nil
}

// SKLearnLogisticRegressionParams は LogisticRegression の coef_ / intercept_ / classes_
//
// Binary models carry a single coefficient row for the positive class,
// as sklearn does.
type SKLearnLogisticRegressionParams struct {
	Coef       [][]float64 `json:"coef"`
	Intercept  []float64   `json:"intercept"`
	Classes    []int       `json:"classes"`
	NFeatures  int         `json:"n_features"`
	MultiClass string      `json:"multi_class,omitempty"` // "multinomial" or "ovr"; empty means sklearn's "auto"
}

// LoadLogisticRegressionParams は LogisticRegression のパラメータを取り出して検証する
func LoadLogisticRegressionParams(m *SKLearnModel) (*SKLearnLogisticRegressionParams, error) {
	var p SKLearnLogisticRegressionParams
	if err := m.DecodeParams("LogisticRegression", &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the parameter shapes and fills in defaults.
func (p *SKLearnLogisticRegressionParams) Validate() error {
	const op = "LogisticRegressionParams"

	if len(p.Classes) < 2 {
		return errors.NewModelError(op, "at least two classes are required", nil)
	}
	wantRows := len(p.Classes)
	if wantRows == 2 {
		wantRows = 1
	}
	if len(p.Coef) != wantRows {
		return errors.NewDimensionError(op, wantRows, len(p.Coef), 0)
	}
	if len(p.Intercept) != wantRows {
		return errors.NewDimensionError(op+".intercept", wantRows, len(p.Intercept), 0)
	}
	if p.NFeatures == 0 {
		p.NFeatures = len(p.Coef[0])
	}
	for _, row := range p.Coef {
		if len(row) != p.NFeatures {
			return errors.NewDimensionError(op, p.NFeatures, len(row), 1)
		}
	}
	switch p.MultiClass {
	case "":
		// sklearn's "auto": one sigmoid for binary, softmax otherwise.
		p.MultiClass = "multinomial"
		if len(p.Classes) == 2 {
			p.MultiClass = "ovr"
		}
	case "multinomial", "ovr":
	default:
		return errors.NewModelError(op, "unknown multi_class "+p.MultiClass, nil)
	}
	return nil
}

// SKLearnDecisionTreeParams は DecisionTreeClassifier の tree_ 配列
//
// Value holds one row of per-class weights (counts or fractions) per node.
type SKLearnDecisionTreeParams struct {
	Classes       []int       `json:"classes"`
	NFeatures     int         `json:"n_features"`
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// LoadDecisionTreeParams は DecisionTreeClassifier のパラメータを取り出して検証する
func LoadDecisionTreeParams(m *SKLearnModel) (*SKLearnDecisionTreeParams, error) {
	var p SKLearnDecisionTreeParams
	if err := m.DecodeParams("DecisionTreeClassifier", &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the node arrays describe a well-formed tree.
func (p *SKLearnDecisionTreeParams) Validate() error {
	const op = "DecisionTreeParams"

	n := len(p.ChildrenLeft)
	if n == 0 {
		return errors.NewModelError(op, "tree has no nodes", errors.ErrEmptyData)
	}
	if len(p.Classes) == 0 {
		return errors.NewModelError(op, "classes are required", nil)
	}
	if p.NFeatures <= 0 {
		return errors.NewModelError(op, "n_features must be positive", nil)
	}
	for name, l := range map[string]int{
		"children_right": len(p.ChildrenRight),
		"feature":        len(p.Feature),
		"threshold":      len(p.Threshold),
		"value":          len(p.Value),
	} {
		if l != n {
			return errors.NewDimensionError(op+"."+name, n, l, 0)
		}
	}
	for i := 0; i < n; i++ {
		if len(p.Value[i]) != len(p.Classes) {
			return errors.NewDimensionError(op+".value", len(p.Classes), len(p.Value[i]), 1)
		}
		left, right := p.ChildrenLeft[i], p.ChildrenRight[i]
		if left == -1 && right == -1 {
			continue
		}
		// Children always follow their parent in sklearn's depth-first layout.
		if left <= i || left >= n || right <= i || right >= n {
			return errors.Newf("%s: node %d has invalid children (%d, %d)", op, i, left, right)
		}
		if p.Feature[i] < 0 || p.Feature[i] >= p.NFeatures {
			return errors.Newf("%s: node %d splits on feature %d of %d", op, i, p.Feature[i], p.NFeatures)
		}
	}
	return nil
}

// SKLearnStandardScalerParams は StandardScaler の mean_ / scale_
type SKLearnStandardScalerParams struct {
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	NFeatures int       `json:"n_features"`
	WithMean  *bool     `json:"with_mean,omitempty"`
	WithStd   *bool     `json:"with_std,omitempty"`
}

// LoadStandardScalerParams は StandardScaler のパラメータを取り出して検証する
func LoadStandardScalerParams(m *SKLearnModel) (*SKLearnStandardScalerParams, error) {
	var p SKLearnStandardScalerParams
	if err := m.DecodeParams("StandardScaler", &p); err != nil {
		return nil, err
	}
	if p.NFeatures == 0 {
		p.NFeatures = len(p.Mean)
	}
	if p.NFeatures == 0 {
		return nil, errors.NewModelError("LoadStandardScalerParams", "no features", errors.ErrEmptyData)
	}
	if len(p.Mean) != p.NFeatures {
		return nil, errors.NewDimensionError("LoadStandardScalerParams.mean", p.NFeatures, len(p.Mean), 1)
	}
	if len(p.Scale) != p.NFeatures {
		return nil, errors.NewDimensionError("LoadStandardScalerParams.scale", p.NFeatures, len(p.Scale), 1)
	}
	return &p, nil
}

// SKLearnMinMaxScalerParams は MinMaxScaler の data_min_ / data_max_ / feature_range
type SKLearnMinMaxScalerParams struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
	NFeatures    int        `json:"n_features"`
	Clip         bool       `json:"clip,omitempty"`
}

// LoadMinMaxScalerParams は MinMaxScaler のパラメータを取り出して検証する
func LoadMinMaxScalerParams(m *SKLearnModel) (*SKLearnMinMaxScalerParams, error) {
	p := SKLearnMinMaxScalerParams{FeatureRange: [2]float64{0, 1}}
	if err := m.DecodeParams("MinMaxScaler", &p); err != nil {
		return nil, err
	}
	if p.NFeatures == 0 {
		p.NFeatures = len(p.DataMin)
	}
	if p.NFeatures == 0 {
		return nil, errors.NewModelError("LoadMinMaxScalerParams", "no features", errors.ErrEmptyData)
	}
	if len(p.DataMin) != p.NFeatures || len(p.DataMax) != p.NFeatures {
		return nil, errors.NewDimensionError("LoadMinMaxScalerParams", p.NFeatures, len(p.DataMax), 1)
	}
	if p.FeatureRange[0] >= p.FeatureRange[1] {
		return nil, errors.Newf("LoadMinMaxScalerParams: invalid feature_range %v", p.FeatureRange)
	}
	return &p, nil
}
