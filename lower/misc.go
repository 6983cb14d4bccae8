package lower

import (
	"github.com/wasm2kt/wasm2kt/literal"
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// constHandler folds a *.const opcode to its bit-exact Kotlin literal
// text, an atom with no dependencies or side effects.
type constHandler struct {
	Format func(instr wasm.Instruction) string
	Type   stackvm.Type
}

func (h constHandler) Handle(env *Env, instr wasm.Instruction) error {
	env.Stack.PushValue(stackvm.StackValue{Text: h.Format(instr), Precedence: stackvm.PrecAtom, Type: h.Type})
	return nil
}

func registerMisc(r *Registry) {
	r.Register(wasm.OpI32Const, constHandler{
		Format: func(instr wasm.Instruction) string { return literal.I32(instr.Imm.(wasm.I32Imm).Value) },
		Type:   stackvm.I32,
	}, "i32.const")
	r.Register(wasm.OpI64Const, constHandler{
		Format: func(instr wasm.Instruction) string { return literal.I64(instr.Imm.(wasm.I64Imm).Value) },
		Type:   stackvm.I64,
	}, "i64.const")
	r.Register(wasm.OpF32Const, constHandler{
		Format: func(instr wasm.Instruction) string { return literal.F32(instr.Imm.(wasm.F32Imm).Value) },
		Type:   stackvm.F32,
	}, "f32.const")
	r.Register(wasm.OpF64Const, constHandler{
		Format: func(instr wasm.Instruction) string { return literal.F64(instr.Imm.(wasm.F64Imm).Value) },
		Type:   stackvm.F64,
	}, "f64.const")
}
