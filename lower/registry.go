package lower

import "github.com/wasm2kt/wasm2kt/wasm"

// Handler lowers a single instruction: it pops its operands from
// env.Stack, builds the result text, and pushes or emits it.
//
// Handlers are stateless and shared across every function in a module;
// all mutable state lives in Env.
type Handler interface {
	Handle(env *Env, instr wasm.Instruction) error
}

// Func adapts an ordinary function to Handler.
type Func func(env *Env, instr wasm.Instruction) error

// Handle implements Handler.
func (f Func) Handle(env *Env, instr wasm.Instruction) error {
	return f(env, instr)
}

// Registry maps opcodes to their handlers, giving O(1) dispatch during
// translation. Wasm's 0xFC "misc" prefix opcode multiplexes many
// unrelated operations (saturating truncation, bulk memory, table ops)
// behind a single top-level opcode byte with a LEB128 sub-opcode; those
// register into miscHandlers/miscNames instead of handlers/names and
// are dispatched by a wrapper installed at OpPrefixMisc.
type Registry struct {
	handlers [256]Handler
	names    [256]string

	miscHandlers [256]Handler
	miscNames    [256]string
}

// NewRegistry returns a registry populated with every opcode
// family this package implements.
func NewRegistry() *Registry {
	r := &Registry{}
	registerArithmetic(r)
	registerCompare(r)
	registerConvert(r)
	registerMemory(r)
	registerVariable(r)
	registerCall(r)
	registerMisc(r)
	registerUnsupported(r)
	r.Register(wasm.OpPrefixMisc, Func(r.dispatchMisc), "misc")
	return r
}

// RegisterMisc adds a handler for a 0xFC-prefixed sub-opcode.
func (r *Registry) RegisterMisc(subOpcode uint32, h Handler, name string) {
	r.miscHandlers[subOpcode] = h
	r.miscNames[subOpcode] = name
}

func (r *Registry) dispatchMisc(env *Env, instr wasm.Instruction) error {
	imm, ok := instr.Imm.(wasm.MiscImm)
	if !ok {
		return unsupported(instr, "misc")
	}
	h := r.miscHandlers[imm.SubOpcode]
	if h == nil {
		return unsupported(instr, "misc")
	}
	return h.Handle(env, instr)
}

// Register adds a handler for a single opcode, replacing any existing
// one.
func (r *Registry) Register(opcode byte, h Handler, name string) {
	r.handlers[opcode] = h
	r.names[opcode] = name
}

// RegisterBulk registers the same handler for every opcode in opcodes.
func (r *Registry) RegisterBulk(opcodes []byte, h Handler, name string) {
	for _, op := range opcodes {
		r.handlers[op] = h
		r.names[op] = name
	}
}

// Get returns the handler registered for opcode, or nil.
func (r *Registry) Get(opcode byte) Handler {
	return r.handlers[opcode]
}

// Has reports whether opcode has a registered handler.
func (r *Registry) Has(opcode byte) bool {
	return r.handlers[opcode] != nil
}

// Name returns the mnemonic registered for opcode, for diagnostics.
func (r *Registry) Name(opcode byte) string {
	return r.names[opcode]
}

// Dispatch looks up and runs the handler for instr.Opcode.
func (r *Registry) Dispatch(env *Env, instr wasm.Instruction) error {
	h := r.handlers[instr.Opcode]
	if h == nil {
		return unsupported(instr, "unregistered")
	}
	return h.Handle(env, instr)
}
