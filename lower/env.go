// Package lower is the expression translator: a per-opcode lowering
// table that pops operand StackValues from a stackvm.Stack, builds the
// Kotlin text for the operation, and pushes the result (or emits a
// statement when the opcode has side effects and no result).
package lower

import (
	"github.com/wasm2kt/wasm2kt/codegen"
	"github.com/wasm2kt/wasm2kt/errors"
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// FromWasm converts a Wasm value type to the stackvm type tag used by
// the expression translator.
func FromWasm(t wasm.ValType) stackvm.Type {
	switch t {
	case wasm.ValI32:
		return stackvm.I32
	case wasm.ValI64:
		return stackvm.I64
	case wasm.ValF32:
		return stackvm.F32
	case wasm.ValF64:
		return stackvm.F64
	default:
		return stackvm.Any
	}
}

// ResultClassName derives the generated data class name a multi-value
// return of results is packed into. Wasm signatures are structurally
// typed, so distinct result tuples need distinct classes; the name is
// built from the same single-letter tags stackvm.Type already uses
// ("i","l","f","d") rather than minting a second naming scheme, so a
// function returning (i32, i64) and one returning (i32, f32) never
// collide on a shared "Result" class.
func ResultClassName(results []wasm.ValType) string {
	name := "Result"
	for _, r := range results {
		switch FromWasm(r) {
		case stackvm.I32:
			name += "_i"
		case stackvm.I64:
			name += "_l"
		case stackvm.F32:
			name += "_f"
		case stackvm.F64:
			name += "_d"
		default:
			name += "_a"
		}
	}
	return name
}

// Env is the per-function environment threaded through every handler:
// the value stack being folded, the sink to emit statements into, and
// name/type resolution callbacks supplied by the caller (control and
// assemble own the symbol table; lower only consumes it).
type Env struct {
	Stack  *stackvm.Stack
	Sink   *codegen.Sink
	Module *wasm.Module

	LocalName  func(idx uint32) string
	LocalType  func(idx uint32) stackvm.Type
	GlobalName func(idx uint32) string
	GlobalType func(idx uint32) stackvm.Type
	MemName    func(idx uint32) string
	TableName  func(idx uint32) string
	FuncName   func(idx uint32) string
	FuncType   func(idx uint32) *wasm.FuncType
	TagName    func(idx uint32) string

	// CallIndirect records every (type index) seen at a call_indirect
	// site, so the module assembler can emit one adapter function per
	// signature after every function body has been translated.
	CallIndirect map[uint32]*wasm.FuncType
}

// recordCallIndirect registers typeIdx's signature for later adapter
// emission, the first time it is seen.
func (e *Env) recordCallIndirect(typeIdx uint32) {
	if e.CallIndirect == nil {
		e.CallIndirect = make(map[uint32]*wasm.FuncType)
	}
	if _, ok := e.CallIndirect[typeIdx]; ok {
		return
	}
	if int(typeIdx) < len(e.Module.Types) {
		e.CallIndirect[typeIdx] = &e.Module.Types[typeIdx]
	}
}

func unsupported(instr wasm.Instruction, name string) error {
	return errors.UnsupportedOpcode(instr.Opcode, name)
}
