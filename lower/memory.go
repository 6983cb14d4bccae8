package lower

import (
	"fmt"

	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// loadHandler folds a load opcode to a postfix method call on the
// target Memory: "<mem>.<opname>(addr, offset)". Loads always depend on
// memory and can trap (out-of-bounds access).
type loadHandler struct {
	OpName string
	Type   stackvm.Type
}

func (h loadHandler) Handle(env *Env, instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MemoryImm)
	addr := env.Stack.PopValue()
	mem := env.MemName(imm.MemIdx)
	text := fmt.Sprintf("%s.%s(%s, %d)", mem, h.OpName, addr.Text, imm.Offset)
	deps := addr.DependsOn
	deps.Memory = true
	eff := addr.SideEffect
	eff.CanTrap = true
	env.Stack.PushValue(stackvm.StackValue{Text: text, Precedence: stackvm.PrecUnaryPostfix, Type: h.Type, DependsOn: deps, SideEffect: eff})
	return nil
}

// storeHandler folds a store opcode to a statement: the full value
// stack is spilled first (a store is a structural event, per the
// unconditional-spill rule), then "<mem>.<opname>(addr, offset, value)"
// is emitted directly.
type storeHandler struct{ OpName string }

func (h storeHandler) Handle(env *Env, instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MemoryImm)
	value := env.Stack.PopValue()
	addr := env.Stack.PopValue()
	spillStack(env)
	mem := env.MemName(imm.MemIdx)
	emitStatement(env, fmt.Sprintf("%s.%s(%s, %d, %s)", mem, h.OpName, addr.Text, imm.Offset, value.Text))
	return nil
}

// memorySizeHandler folds memory.size to the ".pages" property read.
type memorySizeHandler struct{}

func (h memorySizeHandler) Handle(env *Env, instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MemoryIdxImm)
	mem := env.MemName(imm.MemIdx)
	env.Stack.PushValue(stackvm.StackValue{
		Text: mem + ".pages", Precedence: stackvm.PrecUnaryPostfix, Type: stackvm.I32,
		DependsOn: stackvm.DependsOn{Memory: true},
	})
	return nil
}

// memoryGrowHandler folds memory.grow to "<mem>.resize(delta)", which
// returns the previous page count (or -1 on failure), matching Wasm's
// memory.grow result.
type memoryGrowHandler struct{}

func (h memoryGrowHandler) Handle(env *Env, instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MemoryIdxImm)
	delta := env.Stack.PopValue()
	spillStack(env)
	mem := env.MemName(imm.MemIdx)
	resultVar := pushResultVar(env, stackvm.I32)
	emitStatement(env, resultVar.Text+" = "+mem+".resize("+delta.Text+")")
	return nil
}

// bulkMemoryHandler folds memory.fill/copy/init and data.drop: spill
// first, then emit a statement invoking the corresponding Memory method.
type bulkMemoryHandler struct {
	// Build returns the full statement text given the popped operand
	// texts, in operand order (first operand first).
	Build func(env *Env, imm wasm.MiscImm, ops []string) string
	Arity int
}

func (h bulkMemoryHandler) Handle(env *Env, instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MiscImm)
	ops := make([]string, h.Arity)
	for i := h.Arity - 1; i >= 0; i-- {
		ops[i] = env.Stack.PopValue().Text
	}
	spillStack(env)
	emitStatement(env, h.Build(env, imm, ops))
	return nil
}

func registerMemory(r *Registry) {
	r.Register(wasm.OpI32Load, loadHandler{"i32_load", stackvm.I32}, "i32.load")
	r.Register(wasm.OpI64Load, loadHandler{"i64_load", stackvm.I64}, "i64.load")
	r.Register(wasm.OpF32Load, loadHandler{"f32_load", stackvm.F32}, "f32.load")
	r.Register(wasm.OpF64Load, loadHandler{"f64_load", stackvm.F64}, "f64.load")
	r.Register(wasm.OpI32Load8S, loadHandler{"i32_load8_s", stackvm.I32}, "i32.load8_s")
	r.Register(wasm.OpI32Load8U, loadHandler{"i32_load8_u", stackvm.I32}, "i32.load8_u")
	r.Register(wasm.OpI32Load16S, loadHandler{"i32_load16_s", stackvm.I32}, "i32.load16_s")
	r.Register(wasm.OpI32Load16U, loadHandler{"i32_load16_u", stackvm.I32}, "i32.load16_u")
	r.Register(wasm.OpI64Load8S, loadHandler{"i64_load8_s", stackvm.I64}, "i64.load8_s")
	r.Register(wasm.OpI64Load8U, loadHandler{"i64_load8_u", stackvm.I64}, "i64.load8_u")
	r.Register(wasm.OpI64Load16S, loadHandler{"i64_load16_s", stackvm.I64}, "i64.load16_s")
	r.Register(wasm.OpI64Load16U, loadHandler{"i64_load16_u", stackvm.I64}, "i64.load16_u")
	r.Register(wasm.OpI64Load32S, loadHandler{"i64_load32_s", stackvm.I64}, "i64.load32_s")
	r.Register(wasm.OpI64Load32U, loadHandler{"i64_load32_u", stackvm.I64}, "i64.load32_u")

	r.Register(wasm.OpI32Store, storeHandler{"i32_store"}, "i32.store")
	r.Register(wasm.OpI64Store, storeHandler{"i64_store"}, "i64.store")
	r.Register(wasm.OpF32Store, storeHandler{"f32_store"}, "f32.store")
	r.Register(wasm.OpF64Store, storeHandler{"f64_store"}, "f64.store")
	r.Register(wasm.OpI32Store8, storeHandler{"i32_store8"}, "i32.store8")
	r.Register(wasm.OpI32Store16, storeHandler{"i32_store16"}, "i32.store16")
	r.Register(wasm.OpI64Store8, storeHandler{"i64_store8"}, "i64.store8")
	r.Register(wasm.OpI64Store16, storeHandler{"i64_store16"}, "i64.store16")
	r.Register(wasm.OpI64Store32, storeHandler{"i64_store32"}, "i64.store32")

	r.Register(wasm.OpMemorySize, memorySizeHandler{}, "memory.size")
	r.Register(wasm.OpMemoryGrow, memoryGrowHandler{}, "memory.grow")

	r.RegisterMisc(wasm.MiscMemoryInit, bulkMemoryHandler{
		Arity: 3,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			mem := env.MemName(imm.Operands[1])
			return fmt.Sprintf("%s.memory_init(%d, %s, %s, %s)", mem, imm.Operands[0], ops[0], ops[1], ops[2])
		},
	}, "memory.init")
	r.RegisterMisc(wasm.MiscDataDrop, bulkMemoryHandler{
		Arity: 0,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			return fmt.Sprintf("Runtime.dataDrop(%d)", imm.Operands[0])
		},
	}, "data.drop")
	r.RegisterMisc(wasm.MiscMemoryCopy, bulkMemoryHandler{
		Arity: 3,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			dst := env.MemName(imm.Operands[0])
			src := env.MemName(imm.Operands[1])
			return fmt.Sprintf("%s.copy_from(%s, %s, %s, %s)", dst, src, ops[0], ops[1], ops[2])
		},
	}, "memory.copy")
	r.RegisterMisc(wasm.MiscMemoryFill, bulkMemoryHandler{
		Arity: 3,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			mem := env.MemName(imm.Operands[0])
			return fmt.Sprintf("%s.fill(%s, %s, %s)", mem, ops[0], ops[1], ops[2])
		},
	}, "memory.fill")

	r.RegisterMisc(wasm.MiscTableInit, bulkMemoryHandler{
		Arity: 3,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			tbl := env.TableName(imm.Operands[1])
			return fmt.Sprintf("%s.table_init(%d, %s, %s, %s)", tbl, imm.Operands[0], ops[0], ops[1], ops[2])
		},
	}, "table.init")
	r.RegisterMisc(wasm.MiscElemDrop, bulkMemoryHandler{
		Arity: 0,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			return fmt.Sprintf("Runtime.elemDrop(%d)", imm.Operands[0])
		},
	}, "elem.drop")
	r.RegisterMisc(wasm.MiscTableCopy, bulkMemoryHandler{
		Arity: 3,
		Build: func(env *Env, imm wasm.MiscImm, ops []string) string {
			dst := env.TableName(imm.Operands[0])
			src := env.TableName(imm.Operands[1])
			return fmt.Sprintf("%s.copy_from(%s, %s, %s, %s)", dst, src, ops[0], ops[1], ops[2])
		},
	}, "table.copy")
	// table.grow/size/fill are stubbed as fatal alongside table.get/set
	// and the ref.* family in unsupported.go: only table.copy/init and
	// elem.drop are wired here.
}
