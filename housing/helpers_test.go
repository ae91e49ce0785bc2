package housing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housepredict/pkg/log"
)

func loadTestArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	a, err := LoadArtifacts(ModelConfig{Dir: "testdata"}, log.NewTestLogger(log.LevelError))
	require.NoError(t, err)
	require.True(t, a.Complete())
	return a
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(log.NewTestLogger(log.LevelError))}, opts...)
	svc, err := NewService(loadTestArtifacts(t), opts...)
	require.NoError(t, err)
	require.True(t, svc.Ready())
	return svc
}

func raw(size, rooms, location, age any) map[string]any {
	return map[string]any{FieldSize: size, FieldRooms: rooms, FieldLocation: location, FieldAge: age}
}

// stubClassifier returns fixed outputs for any input.
type stubClassifier struct {
	classes []int
	proba   []float64
	label   float64
	panics  bool
}

func (s *stubClassifier) IsFitted() bool   { return true }
func (s *stubClassifier) NumFeatures() int { return NumFeatures }
func (s *stubClassifier) Classes() []int   { return s.classes }

func (s *stubClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if s.panics {
		panic("classifier exploded")
	}
	return mat.NewDense(1, 1, []float64{s.label}), nil
}

func (s *stubClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return mat.NewDense(1, len(s.proba), append([]float64(nil), s.proba...)), nil
}

// stubRegressor returns the first feature times factor.
type stubRegressor struct {
	factor float64
}

func (s *stubRegressor) IsFitted() bool   { return true }
func (s *stubRegressor) NumFeatures() int { return NumFeatures }

func (s *stubRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	return mat.NewDense(1, 1, []float64{X.At(0, 0) * s.factor}), nil
}
