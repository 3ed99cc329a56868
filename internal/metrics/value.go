package metrics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// NAText is how an unavailable value is rendered as text.
const NAText = "N/A"

// Value is either a finite float64 or the "not available" sentinel NA.
// The zero Value is NA.
type Value struct {
	v  float64
	ok bool
}

// NA means no usable data for a key. It is distinct from zero.
var NA = Value{}

// Of wraps f. NaN and infinities are not representable and yield NA.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA
	}
	return Value{v: f, ok: true}
}

// Float returns the number and whether it is available.
func (v Value) Float() (float64, bool) { return v.v, v.ok }

// Available reports whether v holds a number.
func (v Value) Available() bool { return v.ok }

func (v Value) String() string {
	if !v.ok {
		return NAText
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// Format renders the value with a fixed number of decimals, or NAText.
func (v Value) Format(decimals int) string {
	if !v.ok {
		return NAText
	}
	return strconv.FormatFloat(v.v, 'f', decimals, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = NA
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
