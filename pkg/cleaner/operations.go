// pkg/cleaner/operations.go
package cleaner

import (
	"math"
	"sort"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// numericKind distinguishes integer measure columns from float measures so
// a median fill lands back in the column's own type.
type numericKind int

const (
	kindFloat numericKind = iota
	kindInt
)

// columnMean returns the arithmetic mean of a column's non-missing numeric
// values. The second return is false when the column holds no numbers.
func columnMean(table *model.Table, column string) (float64, bool) {
	var sum float64
	var count int
	for _, row := range table.Rows {
		f, ok := asFloat(row[column])
		if !ok {
			continue
		}
		sum += f
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// columnMedian returns the median of a column's non-missing numeric values
// and whether the column carries integers or floats.
func columnMedian(table *model.Table, column string) (float64, numericKind, bool) {
	values := make([]float64, 0, table.NumRows())
	kind := kindFloat
	sawInt := false
	sawFloat := false
	for _, row := range table.Rows {
		switch v := row[column].(type) {
		case nil:
			continue
		case int32:
			values = append(values, float64(v))
			sawInt = true
		default:
			f, ok := asFloat(v)
			if !ok {
				continue
			}
			values = append(values, f)
			sawFloat = true
		}
	}
	if len(values) == 0 {
		return 0, kindFloat, false
	}
	if sawInt && !sawFloat {
		kind = kindInt
	}

	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid], kind, true
	}
	return (values[mid-1] + values[mid]) / 2, kind, true
}

// medianFillValue converts a computed median back into the column's own
// value type: int32 for integer measures, float32 otherwise.
func medianFillValue(median float64, kind numericKind) interface{} {
	if kind == kindInt {
		return int32(math.Round(median))
	}
	return float32(median)
}

// asFloat reads any numeric cell as float64.
func asFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}
