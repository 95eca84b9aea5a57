// pkg/converter/values.go
package converter

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// toString converts an interface to string
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return strings.TrimSpace(strconvItoa(val))
	}
}

func strconvItoa(v interface{}) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// toInt32 attempts to convert a value to int32. Non-numeric and
// out-of-range values report failure so the caller can preserve absence.
func toInt32(v interface{}) (int32, bool) {
	switch val := v.(type) {
	case int32:
		return val, true
	case int:
		return clampInt32(int64(val))
	case int8:
		return int32(val), true
	case int16:
		return int32(val), true
	case int64:
		return clampInt32(val)
	case uint:
		return clampInt32(int64(val))
	case uint8:
		return int32(val), true
	case uint16:
		return int32(val), true
	case uint32:
		return clampInt32(int64(val))
	case uint64:
		if val > math.MaxInt32 {
			return 0, false
		}
		return int32(val), true
	case float32:
		return clampInt32(int64(val))
	case float64:
		return clampInt32(int64(val))
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, false
		}
		// Raw extracts carry integers as text, sometimes with a decimal part
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return clampInt32(int64(f))
		}
		return 0, false
	case []byte:
		return toInt32(string(val))
	default:
		return 0, false
	}
}

func clampInt32(n int64) (int32, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

// toFloat32 attempts to convert a value to float32
func toFloat32(v interface{}) (float32, bool) {
	switch val := v.(type) {
	case float32:
		return val, true
	case float64:
		return float32(val), true
	case int:
		return float32(val), true
	case int32:
		return float32(val), true
	case int64:
		return float32(val), true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 32)
		if err != nil {
			return 0, false
		}
		return float32(f), true
	case []byte:
		return toFloat32(string(val))
	default:
		return 0, false
	}
}

// timestampFormats are the layouts observed in the raw extracts, most
// specific first.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// toTime attempts to convert a value to time.Time in the given location.
// Unparseable values report failure; they must surface as an explicit
// missing marker, never as an error.
func toTime(v interface{}, loc *time.Location) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val.In(loc), true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return time.Time{}, false
		}
		for _, format := range timestampFormats {
			if t, err := time.ParseInLocation(format, cleaned, loc); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case []byte:
		return toTime(string(val), loc)
	default:
		return time.Time{}, false
	}
}
