package housing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "Cheap", CategoryName(0))
	assert.Equal(t, "Medium", CategoryName(1))
	assert.Equal(t, "Expensive", CategoryName(2))
	for _, ordinal := range []int{-1, 3, 42} {
		assert.Equal(t, UnknownCategory, CategoryName(ordinal))
	}
	assert.Equal(t, "Expensive", Expensive.String())
}

func TestAggregate(t *testing.T) {
	res := Aggregate(RawOutputs{
		Price:    123456.789,
		Logistic: ClassifierOutput{Label: 1, Proba: []float64{0.123456, 0.5, 0.376544}},
		Tree:     ClassifierOutput{Label: 7, Proba: []float64{0.25}},
	})

	assert.Equal(t, 123456.79, res.Price)
	assert.Equal(t, "Medium", res.CategoryLogistic)
	assert.Equal(t, UnknownCategory, res.CategoryTree)
	assert.Equal(t, ProbabilityMap{Cheap: 12.35, Medium: 50, Expensive: 37.65}, res.Probabilities.Logistic)
	// Missing ordinals are padded with 0.
	assert.Equal(t, ProbabilityMap{Cheap: 25}, res.Probabilities.Tree)
}

func TestAggregateHugePrice(t *testing.T) {
	for _, price := range []float64{1e15, 1e305, -1e305, math.MaxFloat64} {
		got := Aggregate(RawOutputs{Price: price})
		assert.Equal(t, price, got.Price)
		assert.False(t, math.IsInf(got.Price, 0))
	}
	assert.Equal(t, 123456.79, round2(123456.789))
}

func TestAggregateIgnoresExtraSlots(t *testing.T) {
	res := Aggregate(RawOutputs{
		Logistic: ClassifierOutput{Proba: []float64{0.1, 0.2, 0.3, 0.4}},
	})
	assert.Equal(t, ProbabilityMap{Cheap: 10, Medium: 20, Expensive: 30}, res.Probabilities.Logistic)
}

func TestPredictionResultJSON(t *testing.T) {
	res := Aggregate(RawOutputs{
		Price:    1,
		Logistic: ClassifierOutput{Label: 0, Proba: []float64{1}},
		Tree:     ClassifierOutput{Label: 2, Proba: []float64{0, 0, 1}},
	})
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"price": 1,
		"category_logistic": "Cheap",
		"category_tree": "Expensive",
		"probabilities": {
			"logistic": {"Cheap": 100, "Medium": 0, "Expensive": 0},
			"tree": {"Cheap": 0, "Medium": 0, "Expensive": 100}
		}
	}`, string(b))
}
