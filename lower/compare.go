package lower

import (
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// eqzHandler folds i32.eqz/i64.eqz to the ".isz()" postfix idiom.
type eqzHandler struct{}

func (h eqzHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushEqz(env, "")
	return nil
}

// cmpInfixHandler folds eq/ne and the host-signed ordered comparisons
// (Kotlin's Int/Long comparison operators are already signed, so lt_s
// etc. need no helper) through a boolean infix operator, debooleanized.
type cmpInfixHandler struct {
	Symbol string
	Prec   int
}

func (h cmpInfixHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushCompareInfix(env, h.Prec, h.Symbol)
	return nil
}

// cmpCallHandler folds the unsigned integer comparisons through a
// Runtime helper, debooleanized.
type cmpCallHandler struct{ Call string }

func (h cmpCallHandler) Handle(env *Env, instr wasm.Instruction) error {
	pushCompareCall(env, h.Call)
	return nil
}

func registerCompare(r *Registry) {
	r.Register(wasm.OpI32Eqz, eqzHandler{}, "i32.eqz")
	r.Register(wasm.OpI64Eqz, eqzHandler{}, "i64.eqz")

	r.Register(wasm.OpI32Eq, cmpInfixHandler{"==", stackvm.PrecEquality}, "i32.eq")
	r.Register(wasm.OpI32Ne, cmpInfixHandler{"!=", stackvm.PrecEquality}, "i32.ne")
	r.Register(wasm.OpI32LtS, cmpInfixHandler{"<", stackvm.PrecOrderedCompare}, "i32.lt_s")
	r.Register(wasm.OpI32GtS, cmpInfixHandler{">", stackvm.PrecOrderedCompare}, "i32.gt_s")
	r.Register(wasm.OpI32LeS, cmpInfixHandler{"<=", stackvm.PrecOrderedCompare}, "i32.le_s")
	r.Register(wasm.OpI32GeS, cmpInfixHandler{">=", stackvm.PrecOrderedCompare}, "i32.ge_s")
	r.Register(wasm.OpI32LtU, cmpCallHandler{"Runtime.ltU32(%s, %s)"}, "i32.lt_u")
	r.Register(wasm.OpI32GtU, cmpCallHandler{"Runtime.gtU32(%s, %s)"}, "i32.gt_u")
	r.Register(wasm.OpI32LeU, cmpCallHandler{"Runtime.leU32(%s, %s)"}, "i32.le_u")
	r.Register(wasm.OpI32GeU, cmpCallHandler{"Runtime.geU32(%s, %s)"}, "i32.ge_u")

	r.Register(wasm.OpI64Eq, cmpInfixHandler{"==", stackvm.PrecEquality}, "i64.eq")
	r.Register(wasm.OpI64Ne, cmpInfixHandler{"!=", stackvm.PrecEquality}, "i64.ne")
	r.Register(wasm.OpI64LtS, cmpInfixHandler{"<", stackvm.PrecOrderedCompare}, "i64.lt_s")
	r.Register(wasm.OpI64GtS, cmpInfixHandler{">", stackvm.PrecOrderedCompare}, "i64.gt_s")
	r.Register(wasm.OpI64LeS, cmpInfixHandler{"<=", stackvm.PrecOrderedCompare}, "i64.le_s")
	r.Register(wasm.OpI64GeS, cmpInfixHandler{">=", stackvm.PrecOrderedCompare}, "i64.ge_s")
	r.Register(wasm.OpI64LtU, cmpCallHandler{"Runtime.ltU64(%s, %s)"}, "i64.lt_u")
	r.Register(wasm.OpI64GtU, cmpCallHandler{"Runtime.gtU64(%s, %s)"}, "i64.gt_u")
	r.Register(wasm.OpI64LeU, cmpCallHandler{"Runtime.leU64(%s, %s)"}, "i64.le_u")
	r.Register(wasm.OpI64GeU, cmpCallHandler{"Runtime.geU64(%s, %s)"}, "i64.ge_u")

	r.Register(wasm.OpF32Eq, cmpInfixHandler{"==", stackvm.PrecEquality}, "f32.eq")
	r.Register(wasm.OpF32Ne, cmpInfixHandler{"!=", stackvm.PrecEquality}, "f32.ne")
	r.Register(wasm.OpF32Lt, cmpInfixHandler{"<", stackvm.PrecOrderedCompare}, "f32.lt")
	r.Register(wasm.OpF32Gt, cmpInfixHandler{">", stackvm.PrecOrderedCompare}, "f32.gt")
	r.Register(wasm.OpF32Le, cmpInfixHandler{"<=", stackvm.PrecOrderedCompare}, "f32.le")
	r.Register(wasm.OpF32Ge, cmpInfixHandler{">=", stackvm.PrecOrderedCompare}, "f32.ge")

	r.Register(wasm.OpF64Eq, cmpInfixHandler{"==", stackvm.PrecEquality}, "f64.eq")
	r.Register(wasm.OpF64Ne, cmpInfixHandler{"!=", stackvm.PrecEquality}, "f64.ne")
	r.Register(wasm.OpF64Lt, cmpInfixHandler{"<", stackvm.PrecOrderedCompare}, "f64.lt")
	r.Register(wasm.OpF64Gt, cmpInfixHandler{">", stackvm.PrecOrderedCompare}, "f64.gt")
	r.Register(wasm.OpF64Le, cmpInfixHandler{"<=", stackvm.PrecOrderedCompare}, "f64.le")
	r.Register(wasm.OpF64Ge, cmpInfixHandler{">=", stackvm.PrecOrderedCompare}, "f64.ge")
}
