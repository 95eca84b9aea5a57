// pkg/converter/converter.go
package converter

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// TypeConverter normalizes raw extract columns to their canonical types so
// every table is internally consistent and joinable. Conversion is pure:
// the input table is never mutated and no external I/O happens.
type TypeConverter struct {
	logger *zap.Logger
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Timezone applied to parsed timestamps
	DefaultTimezone string
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		DefaultTimezone:   "UTC",
		EmptyStringAsNull: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// Normalize returns a copy of the table with every mapped column coerced to
// its canonical type. Unmapped columns pass through unchanged. Unparseable
// timestamps and non-numeric integers become nil rather than defaults, so
// absence of data survives conversion.
func (c *TypeConverter) Normalize(table *model.Table, mapping model.TypeMapping) (*model.Table, error) {
	if table == nil {
		return nil, fmt.Errorf("cannot normalize a nil table")
	}

	loc, err := c.location()
	if err != nil {
		return nil, err
	}

	out := table.Copy()
	coerced := make(map[string]int)

	for _, col := range out.Columns {
		colType, mapped := mapping[col]
		if !mapped {
			continue
		}
		for _, row := range out.Rows {
			before := row[col]
			after := c.coerceValue(before, colType, loc)
			if !valueEqual(before, after) {
				coerced[col]++
			}
			row[col] = after
		}
	}

	c.logger.Debug("Normalized table types",
		zap.String("table", out.Name),
		zap.Int("rows", out.NumRows()),
		zap.Int("columns_touched", len(coerced)))

	return out, nil
}

// coerceValue converts a single cell to the canonical type. Data-quality
// conditions never raise; they resolve to nil.
func (c *TypeConverter) coerceValue(v interface{}, colType model.ColumnType, loc *time.Location) interface{} {
	if v == nil {
		return nil
	}

	switch colType {
	case model.TypeString, model.TypeCategory:
		s := toString(v)
		if s == "" && c.config.EmptyStringAsNull {
			return nil
		}
		return s
	case model.TypeInt32:
		n, ok := toInt32(v)
		if !ok {
			return nil
		}
		return n
	case model.TypeFloat32:
		f, ok := toFloat32(v)
		if !ok {
			return nil
		}
		return f
	case model.TypeTimestamp:
		t, ok := toTime(v, loc)
		if !ok {
			return nil
		}
		return t
	default:
		return v
	}
}

func (c *TypeConverter) location() (*time.Location, error) {
	name := c.config.DefaultTimezone
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func valueEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, aIsTime := a.(time.Time)
	tb, bIsTime := b.(time.Time)
	if aIsTime && bIsTime {
		return ta.Equal(tb)
	}
	return a == b
}
