package lower

import (
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// infixHandler folds a binary opcode through a plain Kotlin infix
// operator or word-form infix function (+, -, *, /, and, or, xor).
// None of these can trap: wrapping add/sub/mul and bitwise ops are
// total over Kotlin's fixed-width Int/Long, and "/" is only used for
// float division.
type infixHandler struct {
	Symbol string
	Prec   int
	Type   stackvm.Type
}

func (h infixHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushBinaryInfix(env, h.Prec, h.Symbol, h.Type, false)
	return nil
}

// shiftHandler folds shl/shr_s/shr_u; with Narrow set (the i64 forms)
// the i64 shift-count operand is narrowed to the Int count Kotlin's
// shl/shr/ushr functions take.
type shiftHandler struct {
	Symbol string
	Type   stackvm.Type
	Narrow bool
}

func (h shiftHandler) Handle(env *Env, instr wasm.Instruction) error {
	if h.Narrow {
		pushBinaryInfixNarrowRHS(env, stackvm.PrecShiftBitwise, h.Symbol, h.Type)
	} else {
		pushBinaryInfix(env, stackvm.PrecShiftBitwise, h.Symbol, h.Type, false)
	}
	return nil
}

// rotateHandler folds rotl/rotr through Kotlin's Int/Long.rotateLeft /
// .rotateRight member functions.
type rotateHandler struct {
	Method string
	Type   stackvm.Type
	Narrow bool
}

func (h rotateHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushBinaryPostfixMethod(env, h.Method, h.Type, h.Narrow)
	return nil
}

// trapDivHandler folds div_s/div_u/rem_s/rem_u through a Runtime helper
// that implements Wasm's exact trap behavior (division by zero; signed
// division overflow at INT_MIN / -1; signed remainder of INT_MIN % -1
// is 0, not a trap).
type trapDivHandler struct {
	Call string
	Type stackvm.Type
}

func (h trapDivHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushBinaryCall(env, h.Call, h.Type, true)
	return nil
}

// unaryBitHandler folds clz/ctz/popcnt through Kotlin's
// count{Leading,Trailing}ZeroBits / countOneBits member functions.
type unaryBitHandler struct {
	Method string
	Type   stackvm.Type
}

func (h unaryBitHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushUnaryPostfix(env, h.Method, h.Type, false)
	return nil
}

// negHandler folds f32.neg/f64.neg through Kotlin's unary minus.
type negHandler struct{ Type stackvm.Type }

func (h negHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushUnaryPrefix(env, "-", h.Type)
	return nil
}

// mathCallHandler folds a float unary opcode through a kotlin.math free
// function (abs, sqrt, ceil, floor, truncate) or a Runtime helper for
// operations kotlin.math doesn't cover exactly (nearest-ties-to-even).
type mathCallHandler struct {
	Call string
	Type stackvm.Type
}

func (h mathCallHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushUnaryCall(env, h.Call, h.Type, false)
	return nil
}

// minMaxHandler folds f32/f64 min/max through a Runtime helper, since
// Wasm's min/max propagate NaN and distinguish -0.0 from 0.0 in ways
// kotlin.math.min/max do not guarantee.
type minMaxHandler struct {
	Call string
	Type stackvm.Type
}

func (h minMaxHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushBinaryCall(env, h.Call, h.Type, false)
	return nil
}

// copysignHandler folds f32/f64.copysign through Kotlin's withSign
// member function.
type copysignHandler struct{ Type stackvm.Type }

func (h copysignHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushBinaryPostfixMethod(env, ".withSign", h.Type, false)
	return nil
}

func registerArithmetic(r *Registry) {
	// i32
	r.Register(wasm.OpI32Add, infixHandler{"+", stackvm.PrecAddSub, stackvm.I32}, "i32.add")
	r.Register(wasm.OpI32Sub, infixHandler{"-", stackvm.PrecAddSub, stackvm.I32}, "i32.sub")
	r.Register(wasm.OpI32Mul, infixHandler{"*", stackvm.PrecMulDiv, stackvm.I32}, "i32.mul")
	r.Register(wasm.OpI32And, infixHandler{"and", stackvm.PrecShiftBitwise, stackvm.I32}, "i32.and")
	r.Register(wasm.OpI32Or, infixHandler{"or", stackvm.PrecShiftBitwise, stackvm.I32}, "i32.or")
	r.Register(wasm.OpI32Xor, infixHandler{"xor", stackvm.PrecShiftBitwise, stackvm.I32}, "i32.xor")
	r.Register(wasm.OpI32Shl, shiftHandler{"shl", stackvm.I32, false}, "i32.shl")
	r.Register(wasm.OpI32ShrS, shiftHandler{"shr", stackvm.I32, false}, "i32.shr_s")
	r.Register(wasm.OpI32ShrU, shiftHandler{"ushr", stackvm.I32, false}, "i32.shr_u")
	r.Register(wasm.OpI32Rotl, rotateHandler{".rotateLeft", stackvm.I32, false}, "i32.rotl")
	r.Register(wasm.OpI32Rotr, rotateHandler{".rotateRight", stackvm.I32, false}, "i32.rotr")
	r.Register(wasm.OpI32DivS, trapDivHandler{"Runtime.idivS32(%s, %s)", stackvm.I32}, "i32.div_s")
	r.Register(wasm.OpI32DivU, trapDivHandler{"Runtime.idivU32(%s, %s)", stackvm.I32}, "i32.div_u")
	r.Register(wasm.OpI32RemS, trapDivHandler{"Runtime.iremS32(%s, %s)", stackvm.I32}, "i32.rem_s")
	r.Register(wasm.OpI32RemU, trapDivHandler{"Runtime.iremU32(%s, %s)", stackvm.I32}, "i32.rem_u")
	r.Register(wasm.OpI32Clz, unaryBitHandler{".countLeadingZeroBits()", stackvm.I32}, "i32.clz")
	r.Register(wasm.OpI32Ctz, unaryBitHandler{".countTrailingZeroBits()", stackvm.I32}, "i32.ctz")
	r.Register(wasm.OpI32Popcnt, unaryBitHandler{".countOneBits()", stackvm.I32}, "i32.popcnt")

	// i64
	r.Register(wasm.OpI64Add, infixHandler{"+", stackvm.PrecAddSub, stackvm.I64}, "i64.add")
	r.Register(wasm.OpI64Sub, infixHandler{"-", stackvm.PrecAddSub, stackvm.I64}, "i64.sub")
	r.Register(wasm.OpI64Mul, infixHandler{"*", stackvm.PrecMulDiv, stackvm.I64}, "i64.mul")
	r.Register(wasm.OpI64And, infixHandler{"and", stackvm.PrecShiftBitwise, stackvm.I64}, "i64.and")
	r.Register(wasm.OpI64Or, infixHandler{"or", stackvm.PrecShiftBitwise, stackvm.I64}, "i64.or")
	r.Register(wasm.OpI64Xor, infixHandler{"xor", stackvm.PrecShiftBitwise, stackvm.I64}, "i64.xor")
	r.Register(wasm.OpI64Shl, shiftHandler{"shl", stackvm.I64, true}, "i64.shl")
	r.Register(wasm.OpI64ShrS, shiftHandler{"shr", stackvm.I64, true}, "i64.shr_s")
	r.Register(wasm.OpI64ShrU, shiftHandler{"ushr", stackvm.I64, true}, "i64.shr_u")
	r.Register(wasm.OpI64Rotl, rotateHandler{".rotateLeft", stackvm.I64, true}, "i64.rotl")
	r.Register(wasm.OpI64Rotr, rotateHandler{".rotateRight", stackvm.I64, true}, "i64.rotr")
	r.Register(wasm.OpI64DivS, trapDivHandler{"Runtime.idivS64(%s, %s)", stackvm.I64}, "i64.div_s")
	r.Register(wasm.OpI64DivU, trapDivHandler{"Runtime.idivU64(%s, %s)", stackvm.I64}, "i64.div_u")
	r.Register(wasm.OpI64RemS, trapDivHandler{"Runtime.iremS64(%s, %s)", stackvm.I64}, "i64.rem_s")
	r.Register(wasm.OpI64RemU, trapDivHandler{"Runtime.iremU64(%s, %s)", stackvm.I64}, "i64.rem_u")
	r.Register(wasm.OpI64Clz, unaryBitHandler{".countLeadingZeroBits().toLong()", stackvm.I64}, "i64.clz")
	r.Register(wasm.OpI64Ctz, unaryBitHandler{".countTrailingZeroBits().toLong()", stackvm.I64}, "i64.ctz")
	r.Register(wasm.OpI64Popcnt, unaryBitHandler{".countOneBits().toLong()", stackvm.I64}, "i64.popcnt")

	// f32
	r.Register(wasm.OpF32Add, infixHandler{"+", stackvm.PrecAddSub, stackvm.F32}, "f32.add")
	r.Register(wasm.OpF32Sub, infixHandler{"-", stackvm.PrecAddSub, stackvm.F32}, "f32.sub")
	r.Register(wasm.OpF32Mul, infixHandler{"*", stackvm.PrecMulDiv, stackvm.F32}, "f32.mul")
	r.Register(wasm.OpF32Div, infixHandler{"/", stackvm.PrecMulDiv, stackvm.F32}, "f32.div")
	r.Register(wasm.OpF32Neg, negHandler{stackvm.F32}, "f32.neg")
	r.Register(wasm.OpF32Abs, mathCallHandler{"kotlin.math.abs(%s)", stackvm.F32}, "f32.abs")
	r.Register(wasm.OpF32Sqrt, mathCallHandler{"kotlin.math.sqrt(%s)", stackvm.F32}, "f32.sqrt")
	r.Register(wasm.OpF32Ceil, mathCallHandler{"kotlin.math.ceil(%s)", stackvm.F32}, "f32.ceil")
	r.Register(wasm.OpF32Floor, mathCallHandler{"kotlin.math.floor(%s)", stackvm.F32}, "f32.floor")
	r.Register(wasm.OpF32Trunc, mathCallHandler{"kotlin.math.truncate(%s)", stackvm.F32}, "f32.trunc")
	r.Register(wasm.OpF32Nearest, mathCallHandler{"Runtime.fnearest32(%s)", stackvm.F32}, "f32.nearest")
	r.Register(wasm.OpF32Min, minMaxHandler{"Runtime.fmin32(%s, %s)", stackvm.F32}, "f32.min")
	r.Register(wasm.OpF32Max, minMaxHandler{"Runtime.fmax32(%s, %s)", stackvm.F32}, "f32.max")
	r.Register(wasm.OpF32Copysign, copysignHandler{stackvm.F32}, "f32.copysign")

	// f64
	r.Register(wasm.OpF64Add, infixHandler{"+", stackvm.PrecAddSub, stackvm.F64}, "f64.add")
	r.Register(wasm.OpF64Sub, infixHandler{"-", stackvm.PrecAddSub, stackvm.F64}, "f64.sub")
	r.Register(wasm.OpF64Mul, infixHandler{"*", stackvm.PrecMulDiv, stackvm.F64}, "f64.mul")
	r.Register(wasm.OpF64Div, infixHandler{"/", stackvm.PrecMulDiv, stackvm.F64}, "f64.div")
	r.Register(wasm.OpF64Neg, negHandler{stackvm.F64}, "f64.neg")
	r.Register(wasm.OpF64Abs, mathCallHandler{"kotlin.math.abs(%s)", stackvm.F64}, "f64.abs")
	r.Register(wasm.OpF64Sqrt, mathCallHandler{"kotlin.math.sqrt(%s)", stackvm.F64}, "f64.sqrt")
	r.Register(wasm.OpF64Ceil, mathCallHandler{"kotlin.math.ceil(%s)", stackvm.F64}, "f64.ceil")
	r.Register(wasm.OpF64Floor, mathCallHandler{"kotlin.math.floor(%s)", stackvm.F64}, "f64.floor")
	r.Register(wasm.OpF64Trunc, mathCallHandler{"kotlin.math.truncate(%s)", stackvm.F64}, "f64.trunc")
	r.Register(wasm.OpF64Nearest, mathCallHandler{"Runtime.fnearest64(%s)", stackvm.F64}, "f64.nearest")
	r.Register(wasm.OpF64Min, minMaxHandler{"Runtime.fmin64(%s, %s)", stackvm.F64}, "f64.min")
	r.Register(wasm.OpF64Max, minMaxHandler{"Runtime.fmax64(%s, %s)", stackvm.F64}, "f64.max")
	r.Register(wasm.OpF64Copysign, copysignHandler{stackvm.F64}, "f64.copysign")
}
