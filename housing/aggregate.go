package housing

import "math"

// Category is the ordinal a classifier predicts.
type Category int

const (
	Cheap Category = iota
	Medium
	Expensive

	numCategories = 3
)

// UnknownCategory is reported for ordinals outside Cheap..Expensive.
const UnknownCategory = "Unknown"

var categoryNames = map[Category]string{
	Cheap:     "Cheap",
	Medium:    "Medium",
	Expensive: "Expensive",
}

// String returns the category's label, or "Unknown".
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return UnknownCategory
}

// CategoryName maps a class ordinal to its label.
func CategoryName(ordinal int) string {
	return Category(ordinal).String()
}

// ProbabilityMap holds one classifier's percentages per category.
type ProbabilityMap struct {
	Cheap     float64 `json:"Cheap"`
	Medium    float64 `json:"Medium"`
	Expensive float64 `json:"Expensive"`
}

// Sum returns the total percentage.
func (p ProbabilityMap) Sum() float64 {
	return p.Cheap + p.Medium + p.Expensive
}

// Probabilities groups the percentage maps by classifier.
type Probabilities struct {
	Logistic ProbabilityMap `json:"logistic"`
	Tree     ProbabilityMap `json:"tree"`
}

// PredictionResult is the structured answer for one house.
type PredictionResult struct {
	Price            float64       `json:"price"`
	CategoryLogistic string        `json:"category_logistic"`
	CategoryTree     string        `json:"category_tree"`
	Probabilities    Probabilities `json:"probabilities"`
}

// Aggregate converts raw model outputs into a PredictionResult.
func Aggregate(raw RawOutputs) PredictionResult {
	return PredictionResult{
		Price:            round2(raw.Price),
		CategoryLogistic: CategoryName(raw.Logistic.Label),
		CategoryTree:     CategoryName(raw.Tree.Label),
		Probabilities: Probabilities{
			Logistic: percentages(raw.Logistic.Proba),
			Tree:     percentages(raw.Tree.Proba),
		},
	}
}

// percentages pads missing ordinals with 0 and ignores ordinals past Expensive.
func percentages(proba []float64) ProbabilityMap {
	var p [numCategories]float64
	copy(p[:], proba)
	return ProbabilityMap{
		Cheap:     round2(p[Cheap] * 100),
		Medium:    round2(p[Medium] * 100),
		Expensive: round2(p[Expensive] * 100),
	}
}

// round2 leaves magnitudes of 1e15 and above alone: they carry no cents and
// x*100 could overflow.
func round2(x float64) float64 {
	if math.Abs(x) >= 1e15 {
		return x
	}
	return math.Round(x*100) / 100
}
