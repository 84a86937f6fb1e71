package evaluator

import (
	"encoding/json"
	"math"
)

// ValueToJSON marshals a Value to JSON bytes.
// Integral numbers print without a decimal point; NaN and the infinities,
// which JSON cannot express, become the strings "NaN", "inf" and "-inf".
// Functions become small descriptive objects.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

type closureJSON struct {
	Type   string   `json:"type"`
	Params []string `json:"params"`
}

type nativeJSON struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Bool:
		return val.Value

	case Number:
		if math.IsNaN(val.Value) || math.IsInf(val.Value, 0) {
			return FormatNumber(val.Value)
		}
		// Output integers without decimal point
		if val.Value == math.Trunc(val.Value) && math.Abs(val.Value) < 1<<53 {
			return int64(val.Value)
		}
		return val.Value

	case String:
		return val.Value

	case Closure:
		params := val.Params
		if params == nil {
			params = []string{}
		}
		return closureJSON{Type: "closure", Params: params}

	case Native:
		return nativeJSON{Type: "native", Name: val.Name}
	}

	return nil
}
