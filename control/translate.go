package control

import (
	"strconv"
	"strings"

	"github.com/wasm2kt/wasm2kt/lower"
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/symtab"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// labelKind distinguishes how a label is framed and which keyword a
// branch to it uses.
type labelKind int

const (
	kindBlock labelKind = iota
	kindLoop
	kindIf
	kindTry
)

// label is one entry of the branch-target stack, indexed the way
// Wasm's br/br_if/br_table label indices count outward from the
// innermost enclosing construct. The function body itself is pushed as
// the outermost kindBlock label, so `return` is just a branch to it.
type label struct {
	Name string
	Kind labelKind
	Mark int

	// TryDepth is this label's own position in the try/catch stack
	// (1-indexed by entry order, including itself) when Kind is
	// kindTry; zero and unused for every other kind. Delegate targets
	// resolve through this field to compute how many enclosing tries a
	// delegated exception must skip past.
	TryDepth int
}

// Translator walks a parsed control.Node tree, emitting Kotlin
// statements to env.Sink and dispatching every leaf instruction to a
// lower.Registry.
type Translator struct {
	Env      *lower.Env
	Registry *lower.Registry

	scope         *symtab.Scope
	labels        []*label
	catchVars     []string       // enclosing catch identifiers, for rethrow
	labelCounters map[string]int // per-base-name sequence, for readable label numbering
	delegateLvl   int            // try/catch-stack depth, for the Delegate sentinel
	unreachable   bool
}

// NewTranslator builds a translator for one function body. scope should
// be a child of the module's global naming scope, pre-seeded with the
// function's locals, so label names never collide with either.
func NewTranslator(env *lower.Env, registry *lower.Registry, scope *symtab.Scope) *Translator {
	return &Translator{Env: env, Registry: registry, scope: scope}
}

// newLabelName numbers base sequentially ("blockLabel0", "blockLabel1",
// ...) before legalizing it through scope, so labels read the way a
// human translating the same Wasm by hand would number them, rather
// than colliding and falling back to symtab's generic "_0"/"_1" suffix.
func (t *Translator) newLabelName(base string) string {
	if t.labelCounters == nil {
		t.labelCounters = make(map[string]int)
	}
	n := t.labelCounters[base]
	t.labelCounters[base] = n + 1
	return t.scope.Define(base + strconv.Itoa(n))
}

func toStackTypes(vs []wasm.ValType) []stackvm.Type {
	out := make([]stackvm.Type, len(vs))
	for i, v := range vs {
		out[i] = lower.FromWasm(v)
	}
	return out
}

// TranslateFunction walks body (the parsed tree of one function's
// instructions, as returned by Parse) and emits its statements,
// followed by a final `return` built from whatever values remain on
// the fold stack at the implicit function-level label's exit.
func (t *Translator) TranslateFunction(body Node, resultTypes []wasm.ValType) error {
	lbl := &label{Name: t.newLabelName("wasmFn"), Kind: kindBlock, Mark: t.Env.Stack.Depth()}
	t.labels = append(t.labels, lbl)

	t.Env.Sink.WriteString(lbl.Name + "@ do ")
	t.Env.Sink.OpenBrace()
	if err := t.walk(body); err != nil {
		return err
	}
	t.Env.Sink.CloseBrace()
	t.Env.Sink.WriteString(" while (false)")
	t.Env.Sink.Newline()

	// No forced spill/resync here: a fallthrough exit still has its
	// literal folded values on the stack and should return them as-is,
	// while an exit via an explicit `return` already spilled its values
	// to their canonical slots at the return site itself (PopValue
	// re-synthesizes the same names), so either way the stack already
	// holds exactly what the final return statement needs.
	t.labels = t.labels[:len(t.labels)-1]
	t.unreachable = false
	t.emitFinalReturn(resultTypes)
	return nil
}

func (t *Translator) emitFinalReturn(resultTypes []wasm.ValType) {
	switch len(resultTypes) {
	case 0:
		return
	case 1:
		v := t.Env.Stack.PopValue()
		lower.Emit(t.Env, "return "+v.Text)
	default:
		vals := t.Env.Stack.PopValues(len(resultTypes))
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = v.Text
		}
		// The per-signature multi-result wrapper class is emitted once by
		// the module assembler for every distinct result tuple in the
		// module; this constructor name must match that class name exactly.
		lower.Emit(t.Env, "return "+lower.ResultClassName(resultTypes)+"("+strings.Join(parts, ", ")+")")
	}
}

func (t *Translator) walk(n Node) error {
	switch v := n.(type) {
	case *SeqNode:
		return t.walkSeq(v)
	case *InstrNode:
		return t.walkInstr(v)
	case *BlockNode:
		return t.walkBlock(v)
	case *IfNode:
		return t.walkIf(v)
	case *TryNode:
		return t.walkTry(v)
	default:
		return nil
	}
}

func (t *Translator) walkSeq(n *SeqNode) error {
	for _, child := range n.Children {
		if t.unreachable {
			return nil
		}
		if err := t.walk(child); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) resolveLabel(idx uint32) *label {
	return t.labels[len(t.labels)-1-int(idx)]
}

// emitJump writes the break/continue statement that branches to lbl: a
// loop's label targets its start (continue), every other label targets
// its end (break).
func (t *Translator) emitJump(idx uint32) {
	lbl := t.resolveLabel(idx)
	if lbl.Kind == kindLoop {
		t.Env.Sink.Line("continue@" + lbl.Name)
	} else {
		t.Env.Sink.Line("break@" + lbl.Name)
	}
}

func (t *Translator) walkInstr(n *InstrNode) error {
	instr := n.Instr
	switch instr.Opcode {
	case wasm.OpBr:
		idx := instr.Imm.(wasm.BranchImm).LabelIdx
		lower.Spill(t.Env)
		t.emitJump(idx)
		t.unreachable = true
		return nil

	case wasm.OpBrIf:
		idx := instr.Imm.(wasm.BranchImm).LabelIdx
		cond := t.Env.Stack.PopValue()
		lower.Spill(t.Env)
		t.Env.Sink.WriteString("if (" + stackvm.ParenUnary(cond, stackvm.PrecUnaryPostfix) + ".inz()) ")
		t.Env.Sink.OpenBrace()
		t.emitJump(idx)
		t.Env.Sink.CloseBrace()
		t.Env.Sink.Newline()
		return nil

	case wasm.OpBrTable:
		imm := instr.Imm.(wasm.BrTableImm)
		return t.walkBrTable(imm)

	case wasm.OpReturn:
		lower.Spill(t.Env)
		t.emitJump(uint32(len(t.labels) - 1))
		t.unreachable = true
		return nil

	case wasm.OpThrow:
		return t.walkThrow(instr)

	case wasm.OpRethrow:
		idx := instr.Imm.(wasm.BranchImm).LabelIdx
		excVar := t.catchVars[len(t.catchVars)-1-int(idx)]
		lower.Spill(t.Env)
		lower.Emit(t.Env, "throw "+excVar)
		t.unreachable = true
		return nil

	case wasm.OpUnreachable:
		t.unreachable = true
		return t.Registry.Dispatch(t.Env, instr)

	default:
		return t.Registry.Dispatch(t.Env, instr)
	}
}

// brTableGroup is one case arm of the `when` a br_table lowers to:
// every case index that targets the same label is coalesced into a
// single comma-joined condition, per the spec's duplicate-target
// resolution.
type brTableGroup struct {
	Label uint32
	Cases []int
}

func groupBrTableTargets(labels []uint32) []brTableGroup {
	order := make([]uint32, 0, len(labels))
	byLabel := make(map[uint32][]int, len(labels))
	for i, l := range labels {
		if _, ok := byLabel[l]; !ok {
			order = append(order, l)
		}
		byLabel[l] = append(byLabel[l], i)
	}
	out := make([]brTableGroup, 0, len(order))
	for _, l := range order {
		out = append(out, brTableGroup{Label: l, Cases: byLabel[l]})
	}
	return out
}

func formatCaseList(cases []int) string {
	parts := make([]string, len(cases))
	for i, c := range cases {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func (t *Translator) walkBrTable(imm wasm.BrTableImm) error {
	idxVal := t.Env.Stack.PopValue()
	lower.Spill(t.Env)

	t.Env.Sink.WriteString("when (" + idxVal.Text + ") ")
	t.Env.Sink.OpenBrace()
	for _, g := range groupBrTableTargets(imm.Labels) {
		t.Env.Sink.WriteString(formatCaseList(g.Cases) + " -> ")
		t.Env.Sink.OpenBrace()
		t.emitJump(g.Label)
		t.Env.Sink.CloseBrace()
		t.Env.Sink.Newline()
	}
	t.Env.Sink.WriteString("else -> ")
	t.Env.Sink.OpenBrace()
	t.emitJump(imm.Default)
	t.Env.Sink.CloseBrace()
	t.Env.Sink.Newline()
	t.Env.Sink.CloseBrace()
	t.Env.Sink.Newline()

	t.unreachable = true
	return nil
}

// walkBlock handles both block and loop: a block's label targets its
// end with the block's result types as branch signature; a loop's
// targets its start with the loop's *param* types, since a back-branch
// must re-enter with the loop's incoming stack shape.
func (t *Translator) walkBlock(n *BlockNode) error {
	isLoop := n.Opcode == wasm.OpLoop
	kind := kindBlock
	if isLoop {
		kind = kindLoop
	}

	lower.Spill(t.Env)
	lbl := &label{Name: t.newLabelName(labelBaseName(kind)), Kind: kind, Mark: t.Env.Stack.Depth()}
	t.labels = append(t.labels, lbl)

	if isLoop {
		t.Env.Sink.WriteString(lbl.Name + "@ while (true) ")
	} else {
		t.Env.Sink.WriteString(lbl.Name + "@ do ")
	}
	t.Env.Sink.OpenBrace()
	if err := t.walk(n.Body); err != nil {
		return err
	}
	if !t.unreachable {
		lower.Spill(t.Env)
		if isLoop {
			// A loop does not repeat on fallthrough, only on an explicit
			// branch back to its own label; falling off the end exits it.
			t.Env.Sink.Line("break@" + lbl.Name)
		}
	}
	t.Env.Sink.CloseBrace()
	if isLoop {
		t.Env.Sink.Newline()
	} else {
		t.Env.Sink.WriteString(" while (false)")
		t.Env.Sink.Newline()
	}

	t.labels = t.labels[:len(t.labels)-1]
	t.unreachable = false
	t.Env.Stack.ResetTypeStack(lbl.Mark)
	t.Env.Stack.PushTypes(toStackTypes(n.ResultTypes))
	return nil
}

func labelBaseName(kind labelKind) string {
	if kind == kindLoop {
		return "loopLabel"
	}
	return "blockLabel"
}

// walkIf wraps the if/else in a do-while(false) so that a `br` to the
// if's own label falls through to the code following it, per the
// framing the spec prescribes for block/if alike.
func (t *Translator) walkIf(n *IfNode) error {
	cond := t.Env.Stack.PopValue()
	lower.Spill(t.Env)
	lbl := &label{Name: t.newLabelName("ifLabel"), Kind: kindIf, Mark: t.Env.Stack.Depth()}
	t.labels = append(t.labels, lbl)

	t.Env.Sink.WriteString(lbl.Name + "@ do ")
	t.Env.Sink.OpenBrace()
	t.Env.Sink.WriteString("if (" + stackvm.ParenUnary(cond, stackvm.PrecUnaryPostfix) + ".inz()) ")
	t.Env.Sink.OpenBrace()

	armMark := t.Env.Stack.Depth()
	if err := t.walk(n.Then); err != nil {
		return err
	}
	if !t.unreachable {
		lower.Spill(t.Env)
	}
	t.unreachable = false
	t.Env.Stack.ResetTypeStack(armMark)

	t.Env.Sink.CloseBrace()
	t.Env.Sink.WriteString(" else ")
	t.Env.Sink.OpenBrace()

	if n.Else != nil {
		if err := t.walk(n.Else); err != nil {
			return err
		}
	}
	if !t.unreachable {
		lower.Spill(t.Env)
	}
	t.unreachable = false
	t.Env.Stack.ResetTypeStack(armMark)

	t.Env.Sink.CloseBrace()
	t.Env.Sink.Newline()
	t.Env.Sink.CloseBrace()
	t.Env.Sink.WriteString(" while (false)")
	t.Env.Sink.Newline()

	t.labels = t.labels[:len(t.labels)-1]
	t.Env.Stack.ResetTypeStack(lbl.Mark)
	t.Env.Stack.PushTypes(toStackTypes(n.ResultTypes))
	return nil
}

func (t *Translator) tagSignature(tagIdx uint32) *wasm.FuncType {
	if t.Env.Module == nil || int(tagIdx) >= len(t.Env.Module.Tags) {
		return &wasm.FuncType{}
	}
	typeIdx := t.Env.Module.Tags[tagIdx].TypeIdx
	if int(typeIdx) >= len(t.Env.Module.Types) {
		return &wasm.FuncType{}
	}
	return &t.Env.Module.Types[typeIdx]
}

func (t *Translator) walkThrow(instr wasm.Instruction) error {
	tagIdx := instr.Imm.(wasm.ThrowImm).TagIdx
	sig := t.tagSignature(tagIdx)
	args := t.Env.Stack.PopValues(len(sig.Params))
	lower.Spill(t.Env)

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Text
	}
	name := t.Env.TagName(tagIdx)
	lower.Emit(t.Env, "throw "+name+".newException() { it("+strings.Join(parts, ", ")+") }")
	t.unreachable = true
	return nil
}

// walkTry emits the host try/catch skeleton the spec prescribes: the
// body runs inside its own do-while(false) (so a `br` to the try's own
// label falls through to after the catches), wrapped by a try whose
// first two catch clauses only exist to re-propagate a Delegate
// countdown or an unrelated trap, and whose last catch dispatches by
// tag via a generated Tag.check/payload helper pair.
func (t *Translator) walkTry(n *TryNode) error {
	lower.Spill(t.Env)
	lbl := &label{Name: t.newLabelName("tryLabel"), Kind: kindTry, Mark: t.Env.Stack.Depth()}
	t.labels = append(t.labels, lbl)
	t.delegateLvl++
	lbl.TryDepth = t.delegateLvl

	// The label has to sit on a loop (do-while), not the try itself:
	// Kotlin only allows break/continue to target a labeled loop, so a
	// forward `br` to this try's own label (targeting its end, same as
	// a block) breaks out of this wrapper rather than labeling `try`
	// directly, which Kotlin would reject.
	t.Env.Sink.WriteString(lbl.Name + "@ do ")
	t.Env.Sink.OpenBrace()
	t.Env.Sink.WriteString("try ")
	t.Env.Sink.OpenBrace()

	bodyMark := t.Env.Stack.Depth()
	if err := t.walk(n.Body); err != nil {
		return err
	}
	if !t.unreachable {
		lower.Spill(t.Env)
	}
	t.unreachable = false
	t.Env.Stack.ResetTypeStack(bodyMark)

	t.Env.Sink.CloseBrace()

	t.Env.Sink.WriteString(" catch (wasm2ktDelegate: Runtime.Delegate) ")
	t.Env.Sink.OpenBrace()
	t.Env.Sink.Line("if (wasm2ktDelegate.level > 0) throw Runtime.Delegate(wasm2ktDelegate.level - 1, wasm2ktDelegate.exception) else throw wasm2ktDelegate.exception")
	t.Env.Sink.CloseBrace()

	t.Env.Sink.WriteString(" catch (wasm2ktTrap: Runtime.WasmTrap) ")
	t.Env.Sink.OpenBrace()
	t.Env.Sink.Line("throw wasm2ktTrap")
	t.Env.Sink.CloseBrace()

	t.Env.Sink.WriteString(" catch (wasm2ktExc: Exception) ")
	t.Env.Sink.OpenBrace()
	if err := t.walkCatchArms(n, lbl, "wasm2ktExc"); err != nil {
		return err
	}
	t.Env.Sink.CloseBrace()

	t.Env.Sink.CloseBrace()
	t.Env.Sink.WriteString(" while (false)")
	t.Env.Sink.Newline()

	t.delegateLvl--
	t.labels = t.labels[:len(t.labels)-1]
	t.unreachable = false
	t.Env.Stack.ResetTypeStack(lbl.Mark)
	t.Env.Stack.PushTypes(toStackTypes(n.ResultTypes))
	return nil
}

// delegateThrow builds the statement a delegate clause throws when this
// try has no catch arms of its own: a plain rethrow when the resolved
// target is this try's immediate enclosing try (nothing needs to be
// skipped), or a Runtime.Delegate sentinel carrying the count of
// intervening try frames the exception must pass through unexamined
// before the target's own catch(Exception) dispatch finally runs, so
// those intervening tries never get a chance to match their own tags.
// Delegating to the implicit function label is the degenerate case: the
// sentinel must outlive every currently open try, so its level is just
// the count of tries open right now, which a normal decrement-per-try
// never brings down to zero.
func (t *Translator) delegateThrow(d *DelegateArm, excVar string) string {
	outer := t.labels[:len(t.labels)-1]
	target := outer[len(outer)-1-int(d.LabelIdx)]

	if target.Kind != kindTry {
		return "throw Runtime.Delegate(" + strconv.Itoa(t.delegateLvl) + ", " + excVar + ")"
	}

	skip := t.delegateLvl - target.TryDepth - 2
	if skip < 0 {
		return "throw " + excVar
	}
	return "throw Runtime.Delegate(" + strconv.Itoa(skip) + ", " + excVar + ")"
}

func (t *Translator) walkCatchArms(n *TryNode, tryLbl *label, excVar string) error {
	if len(n.Catches) == 0 && n.CatchAll == nil {
		if n.Delegate != nil {
			t.Env.Sink.Line(t.delegateThrow(n.Delegate, excVar))
		} else {
			t.Env.Sink.Line("throw " + excVar)
		}
		return nil
	}

	t.Env.Sink.WriteString("when ")
	t.Env.Sink.OpenBrace()
	for _, arm := range n.Catches {
		tagName := t.Env.TagName(arm.TagIdx)
		sig := t.tagSignature(arm.TagIdx)
		t.Env.Sink.WriteString(tagName + ".check(" + excVar + ") -> ")
		t.Env.Sink.OpenBrace()
		if err := t.walkCatchBody(arm.Body, tryLbl, excVar, tagName, sig.Params); err != nil {
			return err
		}
		t.Env.Sink.CloseBrace()
		t.Env.Sink.Newline()
	}
	if n.CatchAll != nil {
		t.Env.Sink.WriteString("else -> ")
		t.Env.Sink.OpenBrace()
		if err := t.walkCatchBody(n.CatchAll.Body, tryLbl, excVar, "", nil); err != nil {
			return err
		}
		t.Env.Sink.CloseBrace()
		t.Env.Sink.Newline()
	} else if n.Delegate != nil {
		t.Env.Sink.Line("else -> " + t.delegateThrow(n.Delegate, excVar))
	} else {
		t.Env.Sink.Line("else -> throw " + excVar)
	}
	t.Env.Sink.CloseBrace()
	t.Env.Sink.Newline()
	return nil
}

// walkCatchBody binds a matched tag's payload fields into the try
// label's canonical spill slots (mirroring a multi-result call's
// componentN() unpacking), translates the arm, then folds the arm's
// exit back to the try label's own mark, same as an if-arm.
func (t *Translator) walkCatchBody(body Node, tryLbl *label, excVar, tagName string, payload []wasm.ValType) error {
	if tagName != "" && len(payload) > 0 {
		lower.Emit(t.Env, "val wasm2ktPayload = "+tagName+".payload("+excVar+")")
		t.Env.Stack.PushTypes(toStackTypes(payload))
		for i := range payload {
			slot := t.Env.Stack.GetValue(len(payload) - 1 - i)
			lower.Emit(t.Env, slot.Text+" = wasm2ktPayload.component"+strconv.Itoa(i+1)+"()")
		}
	}

	t.catchVars = append(t.catchVars, excVar)
	armMark := t.Env.Stack.Depth()
	if err := t.walk(body); err != nil {
		return err
	}
	if !t.unreachable {
		lower.Spill(t.Env)
	}
	t.unreachable = false
	t.Env.Stack.ResetTypeStack(armMark)
	t.catchVars = t.catchVars[:len(t.catchVars)-1]
	t.Env.Stack.ResetTypeStack(tryLbl.Mark)
	return nil
}
