package housing

import (
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/linear"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
	"github.com/YuminosukeSato/housepredict/preprocessing"
	"github.com/YuminosukeSato/housepredict/sklearn/linear_model"
	"github.com/YuminosukeSato/housepredict/sklearn/tree"
	"golang.org/x/sync/errgroup"
)

// Artifact names, used in health reports and ModelsUnavailable errors.
const (
	ArtifactLinear   = "linear_model"
	ArtifactLogistic = "logistic_model"
	ArtifactTree     = "tree_model"
	ArtifactScaler   = "scaler"
)

// ArtifactNames lists all four startup artifacts.
var ArtifactNames = []string{ArtifactLinear, ArtifactLogistic, ArtifactTree, ArtifactScaler}

// ModelConfig locates the artifact files. Empty file names fall back to
// <artifact>.json inside Dir.
type ModelConfig struct {
	Dir          string `yaml:"dir"`
	LinearFile   string `yaml:"linearFile"`
	LogisticFile string `yaml:"logisticFile"`
	TreeFile     string `yaml:"treeFile"`
	ScalerFile   string `yaml:"scalerFile"`
}

// Path returns the file an artifact is read from.
func (c ModelConfig) Path(artifact string) string {
	file := map[string]string{
		ArtifactLinear:   c.LinearFile,
		ArtifactLogistic: c.LogisticFile,
		ArtifactTree:     c.TreeFile,
		ArtifactScaler:   c.ScalerFile,
	}[artifact]
	if file == "" {
		file = artifact + ".json"
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Dir, file)
}

// Artifacts are the capabilities loaded at startup. A nil field was not
// loaded; Errors records why.
type Artifacts struct {
	Regressor model.Regressor
	Logistic  model.Classifier
	Tree      model.Classifier
	Scaler    model.Transformer

	Errors map[string]error
}

// Loaded reports per artifact whether it is available.
func (a *Artifacts) Loaded() map[string]bool {
	return map[string]bool{
		ArtifactLinear:   a.Regressor != nil,
		ArtifactLogistic: a.Logistic != nil,
		ArtifactTree:     a.Tree != nil,
		ArtifactScaler:   a.Scaler != nil,
	}
}

// Complete reports whether all four artifacts loaded.
func (a *Artifacts) Complete() bool {
	for _, ok := range a.Loaded() {
		if !ok {
			return false
		}
	}
	return true
}

// LoadArtifacts reads the four artifacts concurrently. It always returns
// usable Artifacts; the error is a ModelsUnavailableError naming whatever
// failed, and the process is expected to keep running.
func LoadArtifacts(cfg ModelConfig, logger log.Logger) (*Artifacts, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(
		log.ComponentKey, "housing.loader",
		log.OperationKey, log.OperationLoad,
		log.PhaseKey, log.PhaseStartup,
	)

	var (
		a    = &Artifacts{Errors: make(map[string]error)}
		errs = make([]error, len(ArtifactNames))
		g    errgroup.Group
	)
	loaders := []func(path string) error{
		func(path string) error {
			lr := linear.NewLinearRegression()
			if err := lr.LoadFromSKLearn(path); err != nil {
				return err
			}
			a.Regressor = lr
			return nil
		},
		func(path string) error {
			lr := linear_model.NewLogisticRegression()
			if err := lr.LoadFromSKLearn(path); err != nil {
				return err
			}
			a.Logistic = lr
			return nil
		},
		func(path string) error {
			dt := tree.NewDecisionTreeClassifier()
			if err := dt.LoadFromSKLearn(path); err != nil {
				return err
			}
			a.Tree = dt
			return nil
		},
		func(path string) error {
			f, err := os.Open(path)
			if err != nil {
				return errors.Wrapf(err, "failed to open scaler artifact %s", path)
			}
			defer f.Close()
			s, err := preprocessing.LoadScaler(f)
			if err != nil {
				return err
			}
			a.Scaler = s
			return nil
		},
	}

	for i, name := range ArtifactNames {
		i, name := i, name
		g.Go(func() error {
			start := time.Now()
			path := cfg.Path(name)
			if err := loaders[i](path); err != nil {
				errs[i] = err
				logger.Error("artifact load failed", err,
					log.ArtifactKey, name,
					log.ArtifactPathKey, path,
					log.ErrorCodeKey, log.ErrorNotLoaded,
				)
				return nil
			}
			logger.Info("artifact loaded",
				log.ArtifactKey, name,
				log.ArtifactPathKey, path,
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
			return nil
		})
	}
	_ = g.Wait()

	var missing []string
	for i, name := range ArtifactNames {
		if errs[i] != nil {
			a.Errors[name] = errs[i]
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return a, errors.NewModelsUnavailableError(missing...)
	}
	return a, nil
}
