package housing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

// Input field names, in the column order the models were trained on.
const (
	FieldSize     = "size"
	FieldRooms    = "rooms"
	FieldLocation = "location"
	FieldAge      = "age"
)

// NumFeatures is the width of every feature vector.
const NumFeatures = 4

// RequiredColumns lists the fields every input record must carry.
var RequiredColumns = []string{FieldSize, FieldRooms, FieldLocation, FieldAge}

const (
	msgNotNumeric  = "All fields must be numbers"
	msgOutOfRange  = "Please enter valid values (Size > 0, Rooms > 0, Location 1-10, Age >= 0)"
	msgRowInvalid  = "Invalid values in this row"
	msgRowFailedAt = "Error processing row: "
)

// FeatureVector is a house description whose four fields are numeric.
// Only vectors returned by Validate are guaranteed to be in range.
type FeatureVector struct {
	Size     float64 `json:"size"`
	Rooms    float64 `json:"rooms"`
	Location float64 `json:"location"`
	Age      float64 `json:"age"`
}

// Values returns the fields in model column order.
func (v FeatureVector) Values() []float64 {
	return []float64{v.Size, v.Rooms, v.Location, v.Age}
}

// InRange reports whether all four domain bounds hold.
func (v FeatureVector) InRange() bool {
	return v.Size > 0 && v.Rooms > 0 && v.Location >= 1 && v.Location <= 10 && v.Age >= 0
}

// Validate coerces a raw record into a FeatureVector and checks its bounds.
// Absent fields count as 0, so only age may be omitted.
func Validate(raw map[string]any) (FeatureVector, error) {
	v, err := parseFeatures(func(field string) (any, bool) {
		val, ok := raw[field]
		return val, ok
	})
	if err != nil {
		return FeatureVector{}, err
	}
	if !v.InRange() {
		return FeatureVector{}, errors.NewValidationError("", msgOutOfRange, v)
	}
	return v, nil
}

// parseFeatures reads the four fields through get. Missing fields are 0.
func parseFeatures(get func(field string) (any, bool)) (FeatureVector, error) {
	var out [NumFeatures]float64
	for i, field := range RequiredColumns {
		raw, ok := get(field)
		if !ok {
			continue
		}
		f, err := toFloat(raw)
		if err != nil {
			return FeatureVector{}, errors.NewValidationError(field, msgNotNumeric, raw)
		}
		out[i] = f
	}
	return FeatureVector{Size: out[0], Rooms: out[1], Location: out[2], Age: out[3]}, nil
}

// toFloat accepts JSON numbers, Go numeric kinds and numeric strings.
// NaN and infinities are not numbers for this purpose.
func toFloat(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

// describeParseError renders a coercion failure for a batch row.
func describeParseError(err error) string {
	var ve *errors.ValidationError
	if errors.As(err, &ve) && ve.ParamName != "" {
		return fmt.Sprintf("could not convert %s value %q to a number", ve.ParamName, fmt.Sprint(ve.Value))
	}
	return err.Error()
}
