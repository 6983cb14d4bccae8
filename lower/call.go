package lower

import (
	"strings"

	"github.com/wasm2kt/wasm2kt/wasm"
)

// callHandler folds call: pops the callee's argument count, spills
// (a call may observe or mutate anything), then either emits a
// statement (void result) or assigns the call's result to a fresh
// spill variable and pushes a read of it.
type callHandler struct{}

func (h callHandler) Handle(env *Env, instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.CallImm).FuncIdx
	sig := env.FuncType(idx)
	args := env.Stack.PopValues(len(sig.Params))
	spillStack(env)
	argTexts := make([]string, len(args))
	for i, a := range args {
		argTexts[i] = a.Text
	}
	call := env.FuncName(idx) + "(" + strings.Join(argTexts, ", ") + ")"
	pushCallResult(env, call, sig)
	return nil
}

// callIndirectHandler folds call_indirect: pops the table index and the
// call's operands, records the signature in the call-indirect map for
// later adapter emission, and calls the per-signature adapter function.
type callIndirectHandler struct{}

func (h callIndirectHandler) Handle(env *Env, instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.CallIndirectImm)
	env.recordCallIndirect(imm.TypeIdx)
	sig := &env.Module.Types[imm.TypeIdx]
	tableIndex := env.Stack.PopValue()
	args := env.Stack.PopValues(len(sig.Params))
	spillStack(env)
	argTexts := make([]string, len(args))
	for i, a := range args {
		argTexts[i] = a.Text
	}
	table := env.TableName(imm.TableIdx)
	adapter := adapterName(imm.TypeIdx)
	parts := append([]string{table}, argTexts...)
	parts = append(parts, tableIndex.Text)
	call := adapter + "(" + strings.Join(parts, ", ") + ")"
	pushCallResult(env, call, sig)
	return nil
}

// AdapterName derives the per-signature call_indirect adapter's name
// from its type-table index; exported so the assemble package
// names the same adapter functions it emits at module end.
func AdapterName(typeIdx uint32) string {
	return "CALL_INDIRECT_" + itoa(typeIdx)
}

func adapterName(typeIdx uint32) string {
	return AdapterName(typeIdx)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// pushCallResult emits a call as a bare statement if it returns nothing,
// assigns a single result to a spill variable and pushes a read of it,
// or binds a multi-value result to a local val and unpacks each
// component into its own spill variable.
func pushCallResult(env *Env, call string, sig *wasm.FuncType) {
	switch len(sig.Results) {
	case 0:
		emitStatement(env, call)
	case 1:
		t := FromWasm(sig.Results[0])
		result := pushResultVar(env, t)
		emitStatement(env, result.Text+" = "+call)
	default:
		// Multi-value returns come back as a Kotlin data class; it is
		// bound to an ordinary local val (not a spill slot, since the
		// tuple itself never occupies a Wasm operand-stack position),
		// then each component is unpacked into its own spill variable.
		tmpName := "callResult" + itoa(uint32(env.Stack.Depth()))
		emitStatement(env, "val "+tmpName+" = "+call)
		for i, res := range sig.Results {
			v := pushResultVar(env, FromWasm(res))
			emitStatement(env, v.Text+" = "+tmpName+".component"+itoa(uint32(i+1))+"()")
		}
	}
}

func registerCall(r *Registry) {
	r.Register(wasm.OpCall, callHandler{}, "call")
	r.Register(wasm.OpCallIndirect, callIndirectHandler{}, "call_indirect")
}
