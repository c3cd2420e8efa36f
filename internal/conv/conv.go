package conv

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AsInt coerces numeric and numeric-string values into int.
func AsInt(value interface{}) (int, bool) {
	switch actual := value.(type) {
	case int:
		return actual, true
	case int8:
		return int(actual), true
	case int16:
		return int(actual), true
	case int32:
		return int(actual), true
	case int64:
		return int(actual), true
	case uint:
		return int(actual), true
	case uint8:
		return int(actual), true
	case uint16:
		return int(actual), true
	case uint32:
		return int(actual), true
	case uint64:
		return int(actual), true
	case float32:
		if float32(int(actual)) != actual {
			return 0, false
		}
		return int(actual), true
	case float64:
		if math.Trunc(actual) != actual {
			return 0, false
		}
		return int(actual), true
	case json.Number:
		if i, err := actual.Int64(); err == nil {
			return int(i), true
		}
		if f, err := actual.Float64(); err == nil && math.Trunc(f) == f {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(actual)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// AsInt64 coerces integral values into int64; fractional values are rejected.
func AsInt64(value interface{}) (int64, bool) {
	switch actual := value.(type) {
	case int64:
		return actual, true
	case json.Number:
		i, err := actual.Int64()
		return i, err == nil
	case float64:
		if math.Trunc(actual) != actual || actual > math.MaxInt64 || actual < math.MinInt64 {
			return 0, false
		}
		return int64(actual), true
	}
	i, ok := AsInt(value)
	return int64(i), ok
}

// AsFloat coerces numeric and numeric-string values into float64.
func AsFloat(value interface{}) (float64, bool) {
	switch actual := value.(type) {
	case float64:
		return actual, true
	case float32:
		return float64(actual), true
	case json.Number:
		f, err := actual.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		return f, err == nil
	}
	if i, ok := AsInt(value); ok {
		return float64(i), true
	}
	return 0, false
}

// AsBool coerces booleans and common textual flags.
func AsBool(value interface{}) (bool, bool) {
	switch actual := value.(type) {
	case bool:
		return actual, true
	case string:
		switch strings.ToLower(strings.TrimSpace(actual)) {
		case "1", "t", "true", "yes", "y", "on":
			return true, true
		case "0", "f", "false", "no", "n", "off":
			return false, true
		}
		return false, false
	}
	if i, ok := AsInt(value); ok {
		return i != 0, true
	}
	return false, false
}

// AsString renders scalars as text; nil becomes an empty string.
func AsString(value interface{}) string {
	switch actual := value.(type) {
	case nil:
		return ""
	case string:
		return actual
	case json.Number:
		return actual.String()
	case float64:
		return strconv.FormatFloat(actual, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(actual), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(actual)
	case fmt.Stringer:
		return actual.String()
	}
	return fmt.Sprintf("%v", value)
}

// IsNumber reports whether value holds a numeric type (strings excluded).
func IsNumber(value interface{}) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}
