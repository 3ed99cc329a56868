package metrics

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Number coerces a raw decoded JSON value into a Value.
//
// Accepted: float64, json.Number, Go integer types, numeric strings
// (thousands separators allowed) and objects carrying a numeric "raw"
// field. Everything else, including placeholder strings such as "None"
// or "-", yields NA.
func Number(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return NA
	case float64:
		return Of(x)
	case float32:
		return Of(float64(x))
	case int:
		return Of(float64(x))
	case int32:
		return Of(float64(x))
	case int64:
		return Of(float64(x))
	case uint:
		return Of(float64(x))
	case uint32:
		return Of(float64(x))
	case uint64:
		return Of(float64(x))
	case json.Number:
		return parseString(x.String())
	case string:
		return parseString(x)
	case map[string]any:
		// {"raw": 28.5, "fmt": "28.50"}
		if r, ok := x["raw"]; ok {
			return Number(r)
		}
		return NA
	default:
		return NA
	}
}

func parseString(s string) Value {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "none", "null", "n/a", "na", "nan":
		return NA
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NA
	}
	return Of(f)
}
