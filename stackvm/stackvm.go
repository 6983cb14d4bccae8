// Package stackvm implements the symbolic value stack that backs the
// expression translator: a lazily-folded stack of deferred expression
// fragments (StackValue) parallel to the Wasm operand type stack, with
// conservative dependency/effect tracking so spills are inserted only
// where evaluation order or aliasing requires them.
package stackvm

import "github.com/wasm2kt/wasm2kt/symtab"

// Type tags a value stack slot. The concrete set mirrors Wasm's value
// types; Any is used where a slot's type is not yet known (e.g. an
// unreachable-flagged region).
type Type byte

const (
	I32 Type = 'i'
	I64 Type = 'l'
	F32 Type = 'f'
	F64 Type = 'd'
	Any Type = 'a'
)

// Precedence ranks in the fixed parenthesization scale: 0 is a bare
// identifier or literal, larger numbers bind looser.
const (
	PrecAtom           = 0
	PrecLocalGlobalGet = 1
	PrecUnaryPostfix   = 2
	PrecUnaryPrefix    = 3
	PrecMulDiv         = 4
	PrecAddSub         = 5
	PrecShiftBitwise   = 7
	PrecOrderedCompare = 10
	PrecEquality       = 11
)

// DependsOn is the set of inputs a StackValue's text reads: specific
// locals, specific globals, and whether it reads memory.
type DependsOn struct {
	Locals  map[uint32]bool
	Globals map[uint32]bool
	Memory  bool
}

// IsEmpty reports whether d records no dependencies at all.
func (d DependsOn) IsEmpty() bool {
	return len(d.Locals) == 0 && len(d.Globals) == 0 && !d.Memory
}

// Union returns the dependency set of a value built from both d and o.
func (d DependsOn) Union(o DependsOn) DependsOn {
	return DependsOn{
		Locals:  unionSet(d.Locals, o.Locals),
		Globals: unionSet(d.Globals, o.Globals),
		Memory:  d.Memory || o.Memory,
	}
}

// SideEffects is the set of outputs a StackValue's text produces when
// evaluated: specific locals written, specific globals written, whether
// it writes memory, and whether it can trap.
type SideEffects struct {
	Locals  map[uint32]bool
	Globals map[uint32]bool
	Memory  bool
	CanTrap bool
}

// IsEmpty reports whether s records no side effects at all.
func (s SideEffects) IsEmpty() bool {
	return len(s.Locals) == 0 && len(s.Globals) == 0 && !s.Memory && !s.CanTrap
}

// Union returns the side-effect set of a value built from both s and o.
func (s SideEffects) Union(o SideEffects) SideEffects {
	return SideEffects{
		Locals:  unionSet(s.Locals, o.Locals),
		Globals: unionSet(s.Globals, o.Globals),
		Memory:  s.Memory || o.Memory,
		CanTrap: s.CanTrap || o.CanTrap,
	}
}

func unionSet(a, b map[uint32]bool) map[uint32]bool {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[uint32]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

// StackValue is a deferred expression fragment: host-language text plus
// enough metadata to parenthesize it correctly and decide whether it
// must be spilled before a later side-effecting operation.
type StackValue struct {
	Text       string
	Precedence int
	Type       Type
	DependsOn  DependsOn
	SideEffect SideEffects
}

// Var constructs a precedence-0 StackValue referring to a bare
// identifier; by construction it has no dependencies or side effects.
func Var(name string, t Type) StackValue {
	return StackValue{Text: name, Precedence: PrecAtom, Type: t}
}

// Assignment is a generated "var = expr" line produced by SpillValues.
type Assignment struct {
	Var  string
	Expr string
}

// Statement is a bare expression statement, produced by DropValue when
// the discarded value has side effects that must still execute.
type Statement struct {
	Text string
}

// spillVars allocates and remembers the canonical spill-variable name
// for each (depth, type) slot touched during one function's translation,
// and records first-use order for prologue declaration.
type spillVars struct {
	order []SpillDecl
	seen  map[string]bool
}

// SpillDecl names one spill variable's declaration, for the function
// prologue.
type SpillDecl struct {
	Name string
	Type Type
}

func newSpillVars() *spillVars {
	return &spillVars{seen: make(map[string]bool)}
}

func (sv *spillVars) nameFor(depth int, t Type) string {
	name := symtab.StackVarName(byte(t), depth)
	if !sv.seen[name] {
		sv.seen[name] = true
		sv.order = append(sv.order, SpillDecl{Name: name, Type: t})
	}
	return name
}

// Prologue returns every spill variable touched so far, grouped by type
// in declaration order (i32s, then i64s, f32s, f64s), stable within each
// group by first use.
func (sv *spillVars) Prologue() []SpillDecl {
	var out []SpillDecl
	for _, t := range []Type{I32, I64, F32, F64} {
		for _, d := range sv.order {
			if d.Type == t {
				out = append(out, d)
			}
		}
	}
	return out
}

// Stack is the value stack paired with its parallel type stack, scoped
// to one function's translation.
type Stack struct {
	types  []Type
	values []StackValue
	vars   *spillVars
}

// New creates an empty value/type stack pair.
func New() *Stack {
	return &Stack{vars: newSpillVars()}
}

// Depth returns the current type-stack height.
func (s *Stack) Depth() int {
	return len(s.types)
}

// PushType pushes a type onto the type stack without a corresponding
// value; the slot materializes lazily via PushVar or on first access.
func (s *Stack) PushType(t Type) {
	s.types = append(s.types, t)
}

// PushTypes pushes a sequence of types, in order, bottom to top.
func (s *Stack) PushTypes(ts []Type) {
	s.types = append(s.types, ts...)
}

// DropTypes removes the top n entries from the type stack, discarding
// any corresponding values.
func (s *Stack) DropTypes(n int) {
	s.types = s.types[:len(s.types)-n]
	if len(s.values) > len(s.types) {
		s.values = s.values[:len(s.types)]
	}
}

// PushValue pushes a fully-formed StackValue, keeping the type stack in
// sync.
func (s *Stack) PushValue(v StackValue) {
	s.types = append(s.types, v.Type)
	s.values = append(s.values, v)
}

// ensureUpTo materializes bare spill-variable references for every
// unmatched type-stack slot from the current value-stack height up to
// and including idx, so that idx can be read or popped directly.
func (s *Stack) ensureUpTo(idx int) {
	for len(s.values) <= idx {
		depth := len(s.values)
		t := s.types[depth]
		name := s.vars.nameFor(depth, t)
		s.values = append(s.values, Var(name, t))
	}
}

// PopValue pops and returns the top StackValue, materializing it first
// if it falls in the unmatched region of the type stack.
func (s *Stack) PopValue() StackValue {
	idx := len(s.types) - 1
	s.ensureUpTo(idx)
	v := s.values[idx]
	s.values = s.values[:idx]
	s.types = s.types[:idx]
	return v
}

// PopValues pops n values and returns them in original bottom-to-top
// order.
func (s *Stack) PopValues(n int) []StackValue {
	out := make([]StackValue, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = s.PopValue()
	}
	return out
}

// GetValue immutably peeks the value at depth slots below the top
// (depth 0 is the top), materializing it first if needed.
func (s *Stack) GetValue(depth int) StackValue {
	idx := len(s.types) - 1 - depth
	s.ensureUpTo(idx)
	return s.values[idx]
}

// PushVar defines or looks up the spill variable for the next
// type-stack slot beyond the current value stack and pushes a
// precedence-0 StackValue referring to it.
func (s *Stack) PushVar() StackValue {
	depth := len(s.values)
	t := s.types[depth]
	v := Var(s.vars.nameFor(depth, t), t)
	s.values = append(s.values, v)
	return v
}

// DropValue pops the top value. If it has no side effects it is simply
// discarded; otherwise its text is returned as a statement to emit so
// that it still executes.
func (s *Stack) DropValue() *Statement {
	v := s.PopValue()
	if v.SideEffect.IsEmpty() {
		return nil
	}
	return &Statement{Text: v.Text}
}

// SpillValues assigns every folded (precedence > 0) value-stack entry's
// text to its canonical spill variable, in slot order, then replaces
// each with a bare precedence-0 reference to that variable. Calling
// SpillValues twice in a row is a no-op the second time: every entry is
// already at precedence 0 after the first call.
func (s *Stack) SpillValues() []Assignment {
	var out []Assignment
	for i, v := range s.values {
		if v.Precedence == PrecAtom {
			continue
		}
		t := s.types[i]
		name := s.vars.nameFor(i, t)
		out = append(out, Assignment{Var: name, Expr: v.Text})
		s.values[i] = Var(name, t)
	}
	return out
}

// ResetTypeStack truncates both stacks to mark, a previously recorded
// depth. The caller must have synchronized the value stack up to the
// current height first (typically via SpillValues), since the
// truncated values above mark are simply discarded.
func (s *Stack) ResetTypeStack(mark int) {
	if mark > len(s.types) {
		panic("stackvm: ResetTypeStack mark beyond current depth")
	}
	s.types = s.types[:mark]
	if len(s.values) > mark {
		s.values = s.values[:mark]
	}
}

// Prologue returns every spill variable touched during this function's
// translation so far, grouped by type for the function prologue's
// variable declarations.
func (s *Stack) Prologue() []SpillDecl {
	return s.vars.Prologue()
}

// Side identifies which operand of a binary operator is being
// parenthesized.
type Side int

const (
	LHS Side = iota
	RHS
)

// Assoc identifies a binary operator's associativity for
// parenthesization purposes.
type Assoc int

const (
	LeftAssoc Assoc = iota
	RightAssoc
)

// Paren returns v's text, parenthesized if required when splicing it in
// as the given side of a binary operator at opPrec with the given
// associativity: a left operand is parenthesized iff its precedence
// exceeds the operator's, a right operand iff it meets or exceeds the
// operator's; right-associative operators invert which side uses the
// strict comparison.
func Paren(v StackValue, opPrec int, side Side, assoc Assoc) string {
	strict := side == LHS
	if assoc == RightAssoc {
		strict = !strict
	}
	var needsParen bool
	if strict {
		needsParen = v.Precedence > opPrec
	} else {
		needsParen = v.Precedence >= opPrec
	}
	if needsParen {
		return "(" + v.Text + ")"
	}
	return v.Text
}

// ParenUnary parenthesizes v's text for use as the sole operand of a
// unary operator at opPrec: the same strict rule as a left operand.
func ParenUnary(v StackValue, opPrec int) string {
	return Paren(v, opPrec, LHS, LeftAssoc)
}
