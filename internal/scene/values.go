// SPDX-License-Identifier: MPL-2.0

package scene

import "fmt"

// Number converts an attribute value to float64. Scene descriptions decode
// integers as int64 and reals as float64; both compare as numbers.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// ValueEqual compares two attribute values, treating numbers and booleans
// numerically the way the host does.
func ValueEqual(a, b any) bool {
	na, aok := Number(a)
	nb, bok := Number(b)
	if aok && bok {
		return na == nb
	}
	if aok != bok {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Truthy reports whether an attribute value is set: non-zero numbers,
// true, and non-empty strings.
func Truthy(v any) bool {
	if n, ok := Number(v); ok {
		return n != 0
	}
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return s != ""
	default:
		return true
	}
}
