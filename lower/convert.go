package lower

import (
	"strings"

	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// narrowHandler folds i32.wrap_i64 and the i64.extend8/16/32_s /
// i32.extend8/16_s family through a Kotlin postfix conversion, all of
// which are total (no trap).
type narrowHandler struct {
	Method string
	Type   stackvm.Type
}

func (h narrowHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushUnaryPostfix(env, h.Method, h.Type, false)
	return nil
}

// truncHandler folds the float-to-int truncation family through a
// trapping Runtime helper: Wasm traps when the source is NaN or
// outside the target range, which Kotlin's own toInt()/toLong() do not.
type truncHandler struct {
	Call string
	Type stackvm.Type
}

func (h truncHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushUnaryCall(env, h.Call, h.Type, true)
	return nil
}

// truncSatHandler folds the saturating truncation family (misc
// sub-opcodes) through a non-trapping Runtime helper that clamps
// out-of-range and NaN inputs instead of trapping.
type truncSatHandler struct {
	Call string
	Type stackvm.Type
}

func (h truncSatHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushUnaryCall(env, h.Call, h.Type, false)
	return nil
}

// convertHandler folds the int-to-float conversion family. Signed
// conversions use Kotlin's native toFloat()/toDouble(); unsigned
// conversions need a Runtime helper since Kotlin's signed integer types
// have no built-in unsigned-to-float conversion that matches Wasm.
type convertHandler struct {
	Method string // non-empty: postfix method, e.g. ".toFloat()"
	Call   string // non-empty: free function call, e.g. "Runtime.f32ConvertU32(%s)"
	Type   stackvm.Type
}

func (h convertHandler) Handle(env *Env, instr wasm.Instruction) error {
	if h.Call != "" {
		pushUnaryCall(env, h.Call, h.Type, false)
		return nil
	}
	pushUnaryPostfix(env, h.Method, h.Type, false)
	return nil
}

// reinterpretHandler folds the bit-reinterpretation family directly
// through Kotlin's toRawBits() postfix method or the Float/Double
// fromBits functions, preserving NaN payloads exactly. A Call format
// starting with "%s" is a postfix method on the operand.
type reinterpretHandler struct {
	Call string
	Type stackvm.Type
}

func (h reinterpretHandler) Handle(env *Env, instr wasm.Instruction) error {
	if strings.HasPrefix(h.Call, "%s") {
		pushUnaryPostfix(env, strings.TrimPrefix(h.Call, "%s"), h.Type, false)
		return nil
	}
	pushUnaryCall(env, h.Call, h.Type, false)
	return nil
}

func registerConvert(r *Registry) {
	r.Register(wasm.OpI32WrapI64, narrowHandler{".toInt()", stackvm.I32}, "i32.wrap_i64")
	r.Register(wasm.OpI64ExtendI32S, narrowHandler{".toLong()", stackvm.I64}, "i64.extend_i32_s")
	r.Register(wasm.OpI64ExtendI32U, convertHandler{Call: "Runtime.extendU32(%s)", Type: stackvm.I64}, "i64.extend_i32_u")

	r.Register(wasm.OpI32Extend8S, narrowHandler{".toByte().toInt()", stackvm.I32}, "i32.extend8_s")
	r.Register(wasm.OpI32Extend16S, narrowHandler{".toShort().toInt()", stackvm.I32}, "i32.extend16_s")
	r.Register(wasm.OpI64Extend8S, narrowHandler{".toByte().toLong()", stackvm.I64}, "i64.extend8_s")
	r.Register(wasm.OpI64Extend16S, narrowHandler{".toShort().toLong()", stackvm.I64}, "i64.extend16_s")
	r.Register(wasm.OpI64Extend32S, narrowHandler{".toInt().toLong()", stackvm.I64}, "i64.extend32_s")

	r.Register(wasm.OpI32TruncF32S, truncHandler{"Runtime.truncF32ToI32S(%s)", stackvm.I32}, "i32.trunc_f32_s")
	r.Register(wasm.OpI32TruncF32U, truncHandler{"Runtime.truncF32ToI32U(%s)", stackvm.I32}, "i32.trunc_f32_u")
	r.Register(wasm.OpI32TruncF64S, truncHandler{"Runtime.truncF64ToI32S(%s)", stackvm.I32}, "i32.trunc_f64_s")
	r.Register(wasm.OpI32TruncF64U, truncHandler{"Runtime.truncF64ToI32U(%s)", stackvm.I32}, "i32.trunc_f64_u")
	r.Register(wasm.OpI64TruncF32S, truncHandler{"Runtime.truncF32ToI64S(%s)", stackvm.I64}, "i64.trunc_f32_s")
	r.Register(wasm.OpI64TruncF32U, truncHandler{"Runtime.truncF32ToI64U(%s)", stackvm.I64}, "i64.trunc_f32_u")
	r.Register(wasm.OpI64TruncF64S, truncHandler{"Runtime.truncF64ToI64S(%s)", stackvm.I64}, "i64.trunc_f64_s")
	r.Register(wasm.OpI64TruncF64U, truncHandler{"Runtime.truncF64ToI64U(%s)", stackvm.I64}, "i64.trunc_f64_u")

	r.RegisterMisc(wasm.MiscI32TruncSatF32S, truncSatHandler{"Runtime.truncSatF32ToI32S(%s)", stackvm.I32}, "i32.trunc_sat_f32_s")
	r.RegisterMisc(wasm.MiscI32TruncSatF32U, truncSatHandler{"Runtime.truncSatF32ToI32U(%s)", stackvm.I32}, "i32.trunc_sat_f32_u")
	r.RegisterMisc(wasm.MiscI32TruncSatF64S, truncSatHandler{"Runtime.truncSatF64ToI32S(%s)", stackvm.I32}, "i32.trunc_sat_f64_s")
	r.RegisterMisc(wasm.MiscI32TruncSatF64U, truncSatHandler{"Runtime.truncSatF64ToI32U(%s)", stackvm.I32}, "i32.trunc_sat_f64_u")
	r.RegisterMisc(wasm.MiscI64TruncSatF32S, truncSatHandler{"Runtime.truncSatF32ToI64S(%s)", stackvm.I64}, "i64.trunc_sat_f32_s")
	r.RegisterMisc(wasm.MiscI64TruncSatF32U, truncSatHandler{"Runtime.truncSatF32ToI64U(%s)", stackvm.I64}, "i64.trunc_sat_f32_u")
	r.RegisterMisc(wasm.MiscI64TruncSatF64S, truncSatHandler{"Runtime.truncSatF64ToI64S(%s)", stackvm.I64}, "i64.trunc_sat_f64_s")
	r.RegisterMisc(wasm.MiscI64TruncSatF64U, truncSatHandler{"Runtime.truncSatF64ToI64U(%s)", stackvm.I64}, "i64.trunc_sat_f64_u")

	r.Register(wasm.OpF32ConvertI32S, convertHandler{Method: ".toFloat()", Type: stackvm.F32}, "f32.convert_i32_s")
	r.Register(wasm.OpF32ConvertI32U, convertHandler{Call: "Runtime.f32ConvertU32(%s)", Type: stackvm.F32}, "f32.convert_i32_u")
	r.Register(wasm.OpF32ConvertI64S, convertHandler{Method: ".toFloat()", Type: stackvm.F32}, "f32.convert_i64_s")
	r.Register(wasm.OpF32ConvertI64U, convertHandler{Call: "Runtime.f32ConvertU64(%s)", Type: stackvm.F32}, "f32.convert_i64_u")
	r.Register(wasm.OpF64ConvertI32S, convertHandler{Method: ".toDouble()", Type: stackvm.F64}, "f64.convert_i32_s")
	r.Register(wasm.OpF64ConvertI32U, convertHandler{Call: "Runtime.f64ConvertU32(%s)", Type: stackvm.F64}, "f64.convert_i32_u")
	r.Register(wasm.OpF64ConvertI64S, convertHandler{Method: ".toDouble()", Type: stackvm.F64}, "f64.convert_i64_s")
	r.Register(wasm.OpF64ConvertI64U, convertHandler{Call: "Runtime.f64ConvertU64(%s)", Type: stackvm.F64}, "f64.convert_i64_u")

	r.Register(wasm.OpF32DemoteF64, convertHandler{Method: ".toFloat()", Type: stackvm.F32}, "f32.demote_f64")
	r.Register(wasm.OpF64PromoteF32, convertHandler{Method: ".toDouble()", Type: stackvm.F64}, "f64.promote_f32")

	r.Register(wasm.OpI32ReinterpretF32, reinterpretHandler{"%s.toRawBits()", stackvm.I32}, "i32.reinterpret_f32")
	r.Register(wasm.OpI64ReinterpretF64, reinterpretHandler{"%s.toRawBits()", stackvm.I64}, "i64.reinterpret_f64")
	r.Register(wasm.OpF32ReinterpretI32, reinterpretHandler{"Float.fromBits(%s)", stackvm.F32}, "f32.reinterpret_i32")
	r.Register(wasm.OpF64ReinterpretI64, reinterpretHandler{"Double.fromBits(%s)", stackvm.F64}, "f64.reinterpret_i64")
}
