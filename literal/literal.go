// Package literal formats Wasm numeric constants as Kotlin source text,
// bit-exact: signed zero, NaN payloads, and infinities all round-trip
// through the emitted text.
package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// I32 formats a Wasm i32 constant. Negative values are parenthesized so
// they are never mistaken for a unary-minus applied to a following
// token when spliced into an expression.
func I32(v int32) string {
	if v < 0 {
		return "(" + strconv.FormatInt(int64(v), 10) + ")"
	}
	return strconv.FormatInt(int64(v), 10)
}

// minI64Literal avoids Kotlin's lexer rejecting a bare
// "-9223372036854775808L" (the literal's magnitude overflows Long
// before the unary minus is applied).
const minI64Literal = "(-0x7FFFFFFFFFFFFFFFL - 1L)"

// I64 formats a Wasm i64 constant.
func I64(v int64) string {
	if v == math.MinInt64 {
		return minI64Literal
	}
	return strconv.FormatInt(v, 10) + "L"
}

// F32 formats a Wasm f32 constant, preserving signed zero as "-0.0f"
// and NaN payload bits via Float.fromBits.
func F32(v float32) string {
	bits := math.Float32bits(v)
	switch {
	case math.IsInf(float64(v), 1):
		return "Float.POSITIVE_INFINITY"
	case math.IsInf(float64(v), -1):
		return "-Float.POSITIVE_INFINITY"
	case math.IsNaN(float64(v)):
		mantissa := bits & 0x7FFFFF
		return fmt.Sprintf("Float.fromBits(%d) /* nan:0x%x */", int32(bits), mantissa)
	case bits == 0x80000000:
		return "-0.0f"
	default:
		return ensureFloatSyntax(fmt.Sprintf("%.9g", v)) + "f"
	}
}

// F64 formats a Wasm f64 constant, preserving signed zero as "-0.0"
// and NaN payload bits via Double.fromBits.
func F64(v float64) string {
	bits := math.Float64bits(v)
	switch {
	case math.IsInf(v, 1):
		return "Double.POSITIVE_INFINITY"
	case math.IsInf(v, -1):
		return "-Double.POSITIVE_INFINITY"
	case math.IsNaN(v):
		mantissa := bits & 0xFFFFFFFFFFFFF
		return fmt.Sprintf("Double.fromBits(%dL) /* nan:0x%x */", int64(bits), mantissa)
	case bits == 0x8000000000000000:
		return "-0.0"
	default:
		s := ensureFloatSyntax(fmt.Sprintf("%#.17g", v))
		if strings.HasSuffix(s, ".") {
			s += "0"
		}
		return s
	}
}

// ensureFloatSyntax guarantees the formatted number contains a decimal
// point or exponent marker, so Kotlin's lexer parses it as a
// floating-point literal rather than an integer.
func ensureFloatSyntax(s string) string {
	if strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}
