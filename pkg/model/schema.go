// pkg/model/schema.go
package model

// ColumnType is the canonical type a column is normalized to before joining.
// Values of a normalized column are string, int32, float32 or time.Time;
// a nil cell always means the value is missing.
type ColumnType int

const (
	// TypeString is free text and identifier columns.
	TypeString ColumnType = iota
	// TypeInt32 is a nullable 32-bit integer; unparseable values become nil.
	TypeInt32
	// TypeFloat32 is a 32-bit measure column.
	TypeFloat32
	// TypeCategory is a low-cardinality enum column, carried as string.
	TypeCategory
	// TypeTimestamp is a point in time; unparseable values become nil.
	TypeTimestamp
)

// String returns the canonical type name.
func (ct ColumnType) String() string {
	switch ct {
	case TypeString:
		return "string"
	case TypeInt32:
		return "int32"
	case TypeFloat32:
		return "float32"
	case TypeCategory:
		return "category"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// TypeMapping maps column names to their canonical type. Columns not present
// in the mapping pass through conversion unchanged.
type TypeMapping map[string]ColumnType
