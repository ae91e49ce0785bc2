// Package tree provides inference for scikit-learn decision tree classifiers.
package tree

import (
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/housepredict/core/model"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const leaf = -1

// node is one entry of the flattened tree. Internal nodes send a sample left
// when X[feature] <= threshold.
type node struct {
	left, right int
	feature     int
	threshold   float64
	proba       []float64 // normalised class distribution, set on leaves
}

// DecisionTreeClassifier evaluates a fitted scikit-learn decision tree.
type DecisionTreeClassifier struct {
	state *model.StateManager

	nodes     []node
	classes_  []int
	nFeatures int
	depth     int
}

// NewDecisionTreeClassifier creates an unloaded classifier.
func NewDecisionTreeClassifier() *DecisionTreeClassifier {
	return &DecisionTreeClassifier{state: model.NewStateManager()}
}

// SetTree installs the flattened tree_ arrays.
func (dt *DecisionTreeClassifier) SetTree(p *model.SKLearnDecisionTreeParams) error {
	if err := p.Validate(); err != nil {
		return err
	}

	nodes := make([]node, len(p.ChildrenLeft))
	for i := range nodes {
		nodes[i] = node{
			left:      p.ChildrenLeft[i],
			right:     p.ChildrenRight[i],
			feature:   p.Feature[i],
			threshold: p.Threshold[i],
		}
		if nodes[i].left != leaf {
			continue
		}
		proba := append([]float64(nil), p.Value[i]...)
		total := floats.Sum(proba)
		if total <= 0 {
			return errors.Newf("DecisionTreeClassifier: leaf %d has no weight", i)
		}
		floats.Scale(1/total, proba)
		nodes[i].proba = proba
	}

	dt.nodes = nodes
	dt.classes_ = append([]int(nil), p.Classes...)
	dt.nFeatures = p.NFeatures
	dt.depth = dt.measureDepth(0)
	dt.state.SetFitted(p.NFeatures)
	return nil
}

func (dt *DecisionTreeClassifier) measureDepth(i int) int {
	n := dt.nodes[i]
	if n.left == leaf {
		return 0
	}
	l, r := dt.measureDepth(n.left), dt.measureDepth(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

// LoadFromSKLearn loads the tree from a scikit-learn JSON export.
func (dt *DecisionTreeClassifier) LoadFromSKLearn(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model artifact %s", filename)
	}
	defer file.Close()

	return dt.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader loads the tree from a Reader.
func (dt *DecisionTreeClassifier) LoadFromSKLearnReader(r io.Reader) error {
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return errors.Wrap(err, "failed to load sklearn model")
	}
	params, err := model.LoadDecisionTreeParams(skModel)
	if err != nil {
		return errors.Wrap(err, "failed to load decision tree params")
	}
	return dt.SetTree(params)
}

// IsFitted reports whether a tree has been loaded.
func (dt *DecisionTreeClassifier) IsFitted() bool { return dt.state.IsFitted() }

// NumFeatures returns the number of features the tree was trained on.
func (dt *DecisionTreeClassifier) NumFeatures() int { return dt.state.NumFeatures() }

// Classes returns the class labels in column order of PredictProba.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// GetDepth returns the depth of the loaded tree.
func (dt *DecisionTreeClassifier) GetDepth() int { return dt.depth }

// GetNLeaves returns the number of leaves of the loaded tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	n := 0
	for _, nd := range dt.nodes {
		if nd.left == leaf {
			n++
		}
	}
	return n
}

// apply returns the leaf reached by row i of X.
func (dt *DecisionTreeClassifier) apply(X mat.Matrix, i int) *node {
	n := &dt.nodes[0]
	for n.left != leaf {
		if X.At(i, n.feature) <= n.threshold {
			n = &dt.nodes[n.left]
		} else {
			n = &dt.nodes[n.right]
		}
	}
	return n
}

// PredictProba returns the class distribution of the leaf each sample reaches
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := dt.state.RequireFeatures("DecisionTreeClassifier.PredictProba", X); err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	probas := mat.NewDense(r, len(dt.classes_), nil)
	for i := 0; i < r; i++ {
		probas.SetRow(i, dt.apply(X, i).proba)
	}
	return probas, nil
}

// Predict returns the most probable class of each sample
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Predict"); err != nil {
		return nil, err
	}
	if err := dt.state.RequireFeatures("DecisionTreeClassifier.Predict", X); err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, float64(dt.classes_[floats.MaxIdx(dt.apply(X, i).proba)]))
	}
	return predictions, nil
}

// String returns a short description of the tree.
func (dt *DecisionTreeClassifier) String() string {
	if !dt.state.IsFitted() {
		return "DecisionTreeClassifier()"
	}
	return fmt.Sprintf("DecisionTreeClassifier(n_classes=%d, n_features=%d, depth=%d, n_leaves=%d)",
		len(dt.classes_), dt.nFeatures, dt.depth, dt.GetNLeaves())
}
