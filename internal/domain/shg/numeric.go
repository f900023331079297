package shg

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// SafeFloat converts a persisted value to float64.  Nil, byte strings,
// unparseable text and non-finite results all become 0.  It never fails:
// absent data degrades the affected score component to its floor instead of
// aborting the computation.
func SafeFloat(v interface{}) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case []byte:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case sql.NullFloat64:
		if !x.Valid {
			return 0
		}
		f = x.Float64
	case sql.NullInt64:
		if !x.Valid {
			return 0
		}
		f = float64(x.Int64)
	case sql.NullString:
		if !x.Valid {
			return 0
		}
		return SafeFloat(x.String)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// SafeInt converts a persisted value to int by truncating its SafeFloat
// value, so "7" and "7.9" both give 7.
func SafeInt(v interface{}) int {
	f := SafeFloat(v)
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int(f)
}
