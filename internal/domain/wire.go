package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// fields collects the present leaves of a patch for JSON encoding. JSON has
// no NaN, so non-finite numbers are written as null.
type fields map[string]any

func (f fields) float(key string, v *float64) {
	if v == nil {
		return
	}
	f[key] = jsonFloat(*v)
}

func (f fields) int(key string, v *int64) {
	if v != nil {
		f[key] = *v
	}
}

func (f fields) str(key string, v *string) {
	if v != nil {
		f[key] = *v
	}
}

func jsonFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// decodeFloat accepts a JSON number, null, or one of the strings "NaN",
// "Infinity", "-Infinity".
func decodeFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return math.NaN(), nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		switch strings.ToLower(s) {
		case "nan":
			return math.NaN(), nil
		case "infinity", "inf":
			return math.Inf(1), nil
		case "-infinity", "-inf":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("not a number: %q", s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// sameFloat treats two NaNs as equal so an unchanged unavailable price does
// not produce a patch.
func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
