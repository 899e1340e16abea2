// internal/ecommerce/sanitize.go
package ecommerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
 * Numeric field sanitization.
 *
 * Every numeric entity or transaction field passes through Sanitize exactly
 * once, at assembly time. The policy is fail-open: malformed numeric content
 * becomes 0 and the event is still produced. Rejection of wrong *types*
 * happens earlier, in the builders.
 *
 * Accepted inputs:
 *   - Go numeric types and json.Number: kept when finite
 *   - strings: trimmed and parsed as a whole ("2-foo", "$42" and "0x1p3" are
 *     not numbers)
 *   - anything else (bool, nil, maps, NaN, +-Inf): 0
 *
 * Text coercion for custom flags lives here too: flags are normalized to their
 * string representation regardless of original type.
 */

// FieldKind names the field being sanitized. It only affects diagnostics.
type FieldKind int

const (
	FieldPrice FieldKind = iota
	FieldQuantity
	FieldPosition
	FieldTotalAmount
	FieldShippingAmount
	FieldTaxAmount
)

func (k FieldKind) String() string {
	switch k {
	case FieldPrice:
		return "Price"
	case FieldQuantity:
		return "Quantity"
	case FieldPosition:
		return "Position"
	case FieldTotalAmount:
		return "TotalAmount"
	case FieldShippingAmount:
		return "ShippingAmount"
	case FieldTaxAmount:
		return "TaxAmount"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Sanitize converts value to a finite float64, returning 0 for anything that
// is not a finite number or a string holding one. It never fails. kind does
// not change the result; it is accepted so call sites name the field they
// sanitize, and the assembler uses it when logging a coercion.
func Sanitize(value any, _ FieldKind) float64 {
	f, _ := sanitize(value)
	return f
}

// sanitize reports whether value was already a valid number so callers can
// log the coercion.
func sanitize(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		v = strings.TrimSpace(v)
		if v == "" || hasBasePrefix(v) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		// bool, nil, composite values
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// hasBasePrefix reports whether s is a hex literal such as "0x1p3", which
// ParseFloat accepts but a plain decimal parse does not.
func hasBasePrefix(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// isNumberLike reports whether value has a string or numeric type, the type
// check the builders apply to sku and price.
func isNumberLike(value any) bool {
	switch value.(type) {
	case string, json.Number,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// stringify converts any value to its text representation.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
