package lower

import (
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// localGetHandler folds local.get to a bare variable read, precedence 1
// per the fixed table (local/global get binds tighter than any
// operator but looser than an atom, since it may need narrowing when
// used as an operand of a postfix method call).
type localGetHandler struct{}

func (h localGetHandler) Handle(env *Env, instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.LocalImm).LocalIdx
	name := env.LocalName(idx)
	t := env.LocalType(idx)
	deps := stackvm.DependsOn{Locals: map[uint32]bool{idx: true}}
	env.Stack.PushValue(stackvm.StackValue{Text: name, Precedence: stackvm.PrecLocalGlobalGet, Type: t, DependsOn: deps})
	return nil
}

// localSetHandler folds local.set: spills the stack (a local write is a
// structural event), then emits "name = expr".
type localSetHandler struct{}

func (h localSetHandler) Handle(env *Env, instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.LocalImm).LocalIdx
	v := env.Stack.PopValue()
	spillStack(env)
	emitStatement(env, env.LocalName(idx)+" = "+v.Text)
	return nil
}

// localTeeHandler folds local.tee: like local.set, but re-pushes the
// assigned value as a bare variable read instead of dropping it.
type localTeeHandler struct{}

func (h localTeeHandler) Handle(env *Env, instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.LocalImm).LocalIdx
	v := env.Stack.PopValue()
	spillStack(env)
	name := env.LocalName(idx)
	emitStatement(env, name+" = "+v.Text)
	t := env.LocalType(idx)
	deps := stackvm.DependsOn{Locals: map[uint32]bool{idx: true}}
	env.Stack.PushValue(stackvm.StackValue{Text: name, Precedence: stackvm.PrecLocalGlobalGet, Type: t, DependsOn: deps})
	return nil
}

// globalGetHandler folds global.get to a bare variable read.
type globalGetHandler struct{}

func (h globalGetHandler) Handle(env *Env, instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.GlobalImm).GlobalIdx
	name := env.GlobalName(idx)
	t := env.GlobalType(idx)
	deps := stackvm.DependsOn{Globals: map[uint32]bool{idx: true}}
	env.Stack.PushValue(stackvm.StackValue{Text: name, Precedence: stackvm.PrecLocalGlobalGet, Type: t, DependsOn: deps})
	return nil
}

// globalSetHandler folds global.set: spills, then emits the assignment.
type globalSetHandler struct{}

func (h globalSetHandler) Handle(env *Env, instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.GlobalImm).GlobalIdx
	v := env.Stack.PopValue()
	spillStack(env)
	emitStatement(env, env.GlobalName(idx)+" = "+v.Text)
	return nil
}

// dropHandler folds drop: a pure value is simply discarded; a
// side-effecting one must still run, so its statement is emitted.
type dropHandler struct{}

func (h dropHandler) Handle(env *Env, instr wasm.Instruction) error {
	if stmt := env.Stack.DropValue(); stmt != nil {
		emitStatement(env, stmt.Text)
	}
	return nil
}

// selectHandler folds select/select_t: pop the condition and the two
// candidate values, fold to a `Runtime.select(a, b, cond)` call rather
// than a Kotlin if-expression, since both operands were already
// computed by earlier instructions and Wasm requires both to run
// unconditionally, whereas `if`/`else` would only evaluate the taken
// branch.
type selectHandler struct{}

func (h selectHandler) Handle(env *Env, instr wasm.Instruction) error {
	cond := env.Stack.PopValue()
	ifFalse := env.Stack.PopValue()
	ifTrue := env.Stack.PopValue()
	text := "Runtime.select(" + ifTrue.Text + ", " + ifFalse.Text + ", " + cond.Text + ")"
	deps := cond.DependsOn.Union(ifTrue.DependsOn).Union(ifFalse.DependsOn)
	eff := cond.SideEffect.Union(ifTrue.SideEffect).Union(ifFalse.SideEffect)
	env.Stack.PushValue(stackvm.StackValue{Text: text, Precedence: stackvm.PrecUnaryPostfix, Type: ifTrue.Type, DependsOn: deps, SideEffect: eff})
	return nil
}

// unreachableHandler folds unreachable to a trap statement; the caller
// (control) is responsible for flagging the rest of the block dead.
type unreachableHandler struct{}

func (h unreachableHandler) Handle(env *Env, instr wasm.Instruction) error {
	emitStatement(env, "Runtime.unreachable()")
	return nil
}

// nopHandler folds nop to nothing at all.
type nopHandler struct{}

func (h nopHandler) Handle(env *Env, instr wasm.Instruction) error { return nil }

func registerVariable(r *Registry) {
	r.Register(wasm.OpLocalGet, localGetHandler{}, "local.get")
	r.Register(wasm.OpLocalSet, localSetHandler{}, "local.set")
	r.Register(wasm.OpLocalTee, localTeeHandler{}, "local.tee")
	r.Register(wasm.OpGlobalGet, globalGetHandler{}, "global.get")
	r.Register(wasm.OpGlobalSet, globalSetHandler{}, "global.set")
	r.Register(wasm.OpDrop, dropHandler{}, "drop")
	r.Register(wasm.OpSelect, selectHandler{}, "select")
	r.Register(wasm.OpSelectType, selectHandler{}, "select_t")
	r.Register(wasm.OpUnreachable, unreachableHandler{}, "unreachable")
	r.Register(wasm.OpNop, nopHandler{}, "nop")
}
