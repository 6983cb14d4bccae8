package lower

import "github.com/wasm2kt/wasm2kt/wasm"

// unsupportedHandler always fails: it backs every opcode family that
// has no Kotlin lowering.
type unsupportedHandler struct{ Name string }

func (h unsupportedHandler) Handle(env *Env, instr wasm.Instruction) error {
	return unsupported(instr, h.Name)
}

func registerUnsupported(r *Registry) {
	// SIMD, atomics, and GC-typed references: no Kotlin lowering exists
	// for 128-bit vectors, shared-memory atomics, or struct/array refs.
	r.Register(wasm.OpPrefixSIMD, unsupportedHandler{"simd"}, "simd-prefix")
	r.Register(wasm.OpPrefixAtomic, unsupportedHandler{"atomic"}, "atomic-prefix")
	r.Register(wasm.OpPrefixGC, unsupportedHandler{"gc"}, "gc-prefix")

	// Tail calls and typed function references: no host tail-call
	// convention to lower onto.
	r.Register(wasm.OpReturnCall, unsupportedHandler{"return_call"}, "return_call")
	r.Register(wasm.OpReturnCallIndirect, unsupportedHandler{"return_call_indirect"}, "return_call_indirect")
	r.Register(wasm.OpCallRef, unsupportedHandler{"call_ref"}, "call_ref")
	r.Register(wasm.OpReturnCallRef, unsupportedHandler{"return_call_ref"}, "return_call_ref")

	// The newer exception-handling proposal (throw_ref / try_table):
	// only the legacy try/catch/catch_all/delegate encoding is lowered.
	r.Register(wasm.OpThrowRef, unsupportedHandler{"throw_ref"}, "throw_ref")
	r.Register(wasm.OpTryTable, unsupportedHandler{"try_table"}, "try_table")

	// Reference types and table mutation: stubbed as fatal.
	r.Register(wasm.OpTableGet, unsupportedHandler{"table.get"}, "table.get")
	r.Register(wasm.OpTableSet, unsupportedHandler{"table.set"}, "table.set")
	r.Register(wasm.OpRefNull, unsupportedHandler{"ref.null"}, "ref.null")
	r.Register(wasm.OpRefIsNull, unsupportedHandler{"ref.is_null"}, "ref.is_null")
	r.Register(wasm.OpRefFunc, unsupportedHandler{"ref.func"}, "ref.func")

	r.RegisterMisc(wasm.MiscTableGrow, unsupportedHandler{"table.grow"}, "table.grow")
	r.RegisterMisc(wasm.MiscTableSize, unsupportedHandler{"table.size"}, "table.size")
	r.RegisterMisc(wasm.MiscTableFill, unsupportedHandler{"table.fill"}, "table.fill")
	r.RegisterMisc(wasm.MiscMemoryDiscard, unsupportedHandler{"memory.discard"}, "memory.discard")
}
