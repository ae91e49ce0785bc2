package housing

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Cheap", Cheap, true},
		{" expensive ", Expensive, true},
		{"MEDIUM", Medium, true},
		{"1", Medium, true},
		{"3", 0, false},
		{"-1", 0, false},
		{"pricey", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestEvaluate(t *testing.T) {
	svc := newTestService(t)
	f, err := os.Open("testdata/houses_labelled.csv")
	require.NoError(t, err)
	defer f.Close()
	table, err := ReadCSV(f)
	require.NoError(t, err)

	ev, err := svc.Evaluate(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 4, ev.Rows)
	assert.Equal(t, 2, ev.Scored, "invalid rows and unparsable labels are skipped")

	// Errors are +17000 and -20000.
	assert.InDelta(t, (17000.0*17000+20000.0*20000)/2, ev.Price.MSE, 1e-3)
	assert.InDelta(t, 18500.0, ev.Price.MAE, 1e-6)

	require.NotNil(t, ev.Logistic)
	require.NotNil(t, ev.Tree)
	assert.Equal(t, 1.0, ev.Logistic.Accuracy)
	assert.Equal(t, 1.0, ev.Tree.Accuracy)
	assert.Equal(t, [][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 0}}, ev.Logistic.Confusion)
}

func TestEvaluateWithoutCategoryColumn(t *testing.T) {
	svc := newTestService(t)
	table, err := ReadCSV(strings.NewReader("price,size,rooms,location,age\n200000,1000,2,3,30\n"))
	require.NoError(t, err)

	ev, err := svc.Evaluate(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Scored)
	assert.InDelta(t, 17000.0, ev.Price.MAE, 1e-6)
	assert.Nil(t, ev.Logistic)
	assert.Nil(t, ev.Tree)
}

func TestEvaluateErrors(t *testing.T) {
	svc := newTestService(t)

	table := NewTable([]string{"size", "rooms", "location", "age"}, [][]string{{"1000", "2", "3", "30"}})
	_, err := svc.Evaluate(context.Background(), table)
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
	assert.Equal(t, "CSV must contain columns: size, rooms, location, age, price", err.Error())

	table = NewTable([]string{"size", "rooms", "location", "age", "price"}, [][]string{{"1000", "0", "3", "30", "1"}})
	_, err = svc.Evaluate(context.Background(), table)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	empty, err := NewService(nil)
	require.NoError(t, err)
	_, err = empty.Evaluate(context.Background(), table)
	assert.True(t, errors.IsModelsUnavailable(err))
}
