package housing

import (
	"context"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housepredict/metrics"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

// Label columns read by Evaluate.
const (
	LabelPrice    = "price"
	LabelCategory = "category"
)

// CategoryScore compares one classifier's labels with the truth.
// Confusion rows are true categories, columns predicted ones.
type CategoryScore struct {
	Accuracy  float64 `json:"accuracy"`
	Confusion [][]int `json:"confusion"`
}

// Evaluation measures batch predictions against labelled rows.
type Evaluation struct {
	Rows     int                      `json:"rows"`
	Scored   int                      `json:"scored"`
	Price    metrics.RegressionReport `json:"price"`
	Logistic *CategoryScore           `json:"logistic,omitempty"`
	Tree     *CategoryScore           `json:"tree,omitempty"`
}

// ParseCategory reads a category by name, ignoring case, or by ordinal.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for c, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return c, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= numCategories {
		return 0, false
	}
	return Category(n), true
}

// categoryOrdinal maps a predicted label back to its ordinal; Unknown is -1.
func categoryOrdinal(name string) int {
	for c, n := range categoryNames {
		if n == name {
			return int(c)
		}
	}
	return -1
}

// Evaluate scores t and compares the results with its price column and, when
// present, its category column. Rows whose prediction failed or whose labels
// do not parse are left out of the scores.
func (s *Service) Evaluate(ctx context.Context, t *Table) (*Evaluation, error) {
	if !s.Ready() {
		return nil, errors.NewModelsUnavailableError(s.pipeline.Missing()...)
	}
	priceCol, categoryCol, err := t.labelColumns()
	if err != nil {
		return nil, err
	}
	res, err := s.PredictTable(ctx, t)
	if err != nil {
		return nil, err
	}

	var (
		truePrice, predPrice     []float64
		trueCat, logCat, treeCat []int
	)
	for i, o := range res.Results {
		record := t.Rows[i]
		if !o.OK() || priceCol >= len(record) {
			continue
		}
		price, err := parseNumber(record[priceCol])
		if err != nil {
			continue
		}
		truePrice = append(truePrice, price)
		predPrice = append(predPrice, o.Predictions.Price)

		if categoryCol < 0 || categoryCol >= len(record) {
			continue
		}
		c, ok := ParseCategory(record[categoryCol])
		if !ok {
			continue
		}
		trueCat = append(trueCat, int(c))
		logCat = append(logCat, categoryOrdinal(o.Predictions.CategoryLogistic))
		treeCat = append(treeCat, categoryOrdinal(o.Predictions.CategoryTree))
	}
	if len(truePrice) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no row could be evaluated")
	}

	n := len(truePrice)
	report, err := metrics.Regression(mat.NewVecDense(n, truePrice), mat.NewVecDense(n, predPrice))
	if err != nil {
		return nil, err
	}
	ev := &Evaluation{Rows: res.TotalRows, Scored: n, Price: report}
	if len(trueCat) > 0 {
		if ev.Logistic, err = scoreCategories(trueCat, logCat); err != nil {
			return nil, err
		}
		if ev.Tree, err = scoreCategories(trueCat, treeCat); err != nil {
			return nil, err
		}
	}

	s.logger.Info("evaluation finished",
		log.OperationKey, log.OperationEvaluate,
		log.BatchRowsKey, ev.Rows,
		log.SamplesKey, ev.Scored,
	)
	return ev, nil
}

func scoreCategories(yTrue, yPred []int) (*CategoryScore, error) {
	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	cm, err := metrics.ConfusionMatrix(yTrue, yPred, numCategories)
	if err != nil {
		return nil, err
	}
	confusion := make([][]int, numCategories)
	for i := range confusion {
		confusion[i] = make([]int, numCategories)
		for j := range confusion[i] {
			confusion[i][j] = int(cm.At(i, j))
		}
	}
	return &CategoryScore{Accuracy: acc, Confusion: confusion}, nil
}

// labelColumns finds the price column, which is required, and the optional
// category column (-1 when absent).
func (t *Table) labelColumns() (price, category int, err error) {
	price, category = -1, -1
	for i, name := range t.Header {
		switch strings.TrimSpace(name) {
		case LabelPrice:
			if price < 0 {
				price = i
			}
		case LabelCategory:
			if category < 0 {
				category = i
			}
		}
	}
	if price < 0 {
		required := append(append([]string(nil), RequiredColumns...), LabelPrice)
		return 0, 0, errors.NewStructuralInputError(required, []string{LabelPrice})
	}
	return price, category, nil
}
