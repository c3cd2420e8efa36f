// Package format renders tool results as canonical JSON.
//
// Every object carrying an integral epoch-millisecond "created" or "updated"
// field gains a "created_iso8601" / "updated_iso8601" sibling.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	indent      = "  "
	isoSuffix   = "_iso8601"
	rawSuffix   = "_raw"
	isoLayout   = "2006-01-02T15:04:05"
	microLayout = "2006-01-02T15:04:05.000000"
	utcOffset   = "+00:00"
	minYear     = 1
	maxYear     = 9999
)

// timestampFields lists the fields that receive an ISO-8601 companion.
var timestampFields = []string{"created", "updated"}

// JSON renders value as two-space indented JSON with timestamp companions.
func JSON(value interface{}) (string, error) {
	generic, err := Normalize(value)
	if err != nil {
		return "", err
	}
	Augment(generic)
	return marshal(generic)
}

// MustJSON renders value, falling back to an error payload when it cannot be encoded.
func MustJSON(value interface{}) string {
	text, err := JSON(value)
	if err != nil {
		fallback, _ := marshal(map[string]interface{}{"error": fmt.Sprintf("failed to encode result: %v", err), "status": "error"})
		return fallback
	}
	return text
}

// Normalize converts value into generic maps, slices and json.Number scalars.
func Normalize(value interface{}) (interface{}, error) {
	var data []byte
	switch actual := value.(type) {
	case json.RawMessage:
		data = actual
	case []byte:
		data = actual
	default:
		var err error
		if data, err = json.Marshal(value); err != nil {
			return nil, err
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]interface{}{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var generic interface{}
	if err := decoder.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// Augment walks maps and slices, adding ISO-8601 companions in place.
func Augment(value interface{}) {
	switch actual := value.(type) {
	case map[string]interface{}:
		for _, child := range actual {
			Augment(child)
		}
		for _, field := range timestampFields {
			raw, ok := actual[field]
			if !ok {
				continue
			}
			millis, ok := integral(raw)
			if !ok {
				continue
			}
			if iso, ok := ISO8601(millis); ok {
				actual[field+isoSuffix] = iso
			} else {
				actual[field+rawSuffix] = strconv.FormatInt(millis, 10)
			}
		}
	case []interface{}:
		for _, item := range actual {
			Augment(item)
		}
	}
}

// ISO8601 renders epoch milliseconds as UTC with an explicit "+00:00" offset.
// Fractional seconds are printed with microsecond precision when present.
func ISO8601(millis int64) (string, bool) {
	ts := time.UnixMilli(millis).UTC()
	if year := ts.Year(); year < minYear || year > maxYear {
		return "", false
	}
	layout := isoLayout
	if millis%1000 != 0 {
		layout = microLayout
	}
	return ts.Format(layout) + utcOffset, true
}

func integral(value interface{}) (int64, bool) {
	switch actual := value.(type) {
	case json.Number:
		if strings.ContainsAny(actual.String(), ".eE") {
			return 0, false
		}
		i, err := actual.Int64()
		return i, err == nil
	case int64:
		return actual, true
	case int:
		return int64(actual), true
	}
	return 0, false
}

func marshal(value interface{}) (string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimRight(buffer.String(), "\n"), nil
}
