package lower

import (
	"fmt"

	"github.com/wasm2kt/wasm2kt/stackvm"
)

// pushBinaryInfix pops two operands and folds them through a Kotlin
// infix operator (an actual symbol or a word-form infix function such
// as "and"/"or"/"shl"), at the given precedence.
func pushBinaryInfix(env *Env, opPrec int, symbol string, resultType stackvm.Type, canTrap bool) {
	rhs := env.Stack.PopValue()
	lhs := env.Stack.PopValue()
	text := stackvm.Paren(lhs, opPrec, stackvm.LHS, stackvm.LeftAssoc) +
		" " + symbol + " " +
		stackvm.Paren(rhs, opPrec, stackvm.RHS, stackvm.LeftAssoc)
	push(env, text, opPrec, resultType, lhs, rhs, canTrap)
}

// pushBinaryInfixNarrowRHS is pushBinaryInfix for Wasm's i64 shift
// opcodes, whose shift-count operand is i64 on the stack but must be
// narrowed to Int before use as a Kotlin shift argument.
func pushBinaryInfixNarrowRHS(env *Env, opPrec int, symbol string, resultType stackvm.Type) {
	rhs := env.Stack.PopValue()
	lhs := env.Stack.PopValue()
	rhsText := stackvm.ParenUnary(rhs, stackvm.PrecUnaryPostfix) + ".toInt()"
	text := stackvm.Paren(lhs, opPrec, stackvm.LHS, stackvm.LeftAssoc) + " " + symbol + " " + rhsText
	push(env, text, opPrec, resultType, lhs, rhs, false)
}

// pushBinaryCall pops two operands and folds them through a free
// function call (Runtime helper or kotlin.math), which is always
// precedence-atomic since a call's own parens delimit it.
func pushBinaryCall(env *Env, format string, resultType stackvm.Type, canTrap bool) {
	rhs := env.Stack.PopValue()
	lhs := env.Stack.PopValue()
	text := fmt.Sprintf(format, lhs.Text, rhs.Text)
	push(env, text, stackvm.PrecAtom, resultType, lhs, rhs, canTrap)
}

// pushBinaryPostfixMethod pops two operands and folds them through a
// dot-postfix method call on the left operand, optionally narrowing the
// right operand (the argument) to Int first.
func pushBinaryPostfixMethod(env *Env, method string, resultType stackvm.Type, narrowArg bool) {
	rhs := env.Stack.PopValue()
	lhs := env.Stack.PopValue()
	arg := rhs.Text
	if narrowArg {
		arg = stackvm.ParenUnary(rhs, stackvm.PrecUnaryPostfix) + ".toInt()"
	}
	text := stackvm.ParenUnary(lhs, stackvm.PrecUnaryPostfix) + method + "(" + arg + ")"
	push(env, text, stackvm.PrecUnaryPostfix, resultType, lhs, rhs, false)
}

// pushUnaryPostfix pops one operand and folds it through a no-argument
// dot-postfix method, e.g. ".isz()", ".toLong()", ".countLeadingZeroBits()".
func pushUnaryPostfix(env *Env, method string, resultType stackvm.Type, canTrap bool) {
	v := env.Stack.PopValue()
	text := stackvm.ParenUnary(v, stackvm.PrecUnaryPostfix) + method
	pushUnary(env, text, stackvm.PrecUnaryPostfix, resultType, v, canTrap)
}

// pushUnaryPrefix pops one operand and folds it through a prefix
// operator symbol (only "-" is used in practice). Guards against the
// Kotlin lexer reading "--" as a decrement token when negating an
// already-negative text.
func pushUnaryPrefix(env *Env, symbol string, resultType stackvm.Type) {
	v := env.Stack.PopValue()
	operand := stackvm.ParenUnary(v, stackvm.PrecUnaryPrefix)
	if symbol == "-" && len(operand) > 0 && operand[0] == '-' {
		operand = "(" + operand + ")"
	}
	text := symbol + operand
	pushUnary(env, text, stackvm.PrecUnaryPrefix, resultType, v, false)
}

// pushUnaryCall pops one operand and folds it through a free function
// call.
func pushUnaryCall(env *Env, format string, resultType stackvm.Type, canTrap bool) {
	v := env.Stack.PopValue()
	text := fmt.Sprintf(format, v.Text)
	pushUnary(env, text, stackvm.PrecAtom, resultType, v, canTrap)
}

// pushCompareInfix pops two operands, folds them through a boolean
// infix operator at cmpPrec (ordered or equality), then debooleanizes
// the whole comparison to i32 0/1 via the ".btoI32()" postfix idiom.
// The debooleanized result always carries PrecUnaryPostfix.
func pushCompareInfix(env *Env, cmpPrec int, symbol string) {
	rhs := env.Stack.PopValue()
	lhs := env.Stack.PopValue()
	boolText := stackvm.Paren(lhs, cmpPrec, stackvm.LHS, stackvm.LeftAssoc) +
		" " + symbol + " " +
		stackvm.Paren(rhs, cmpPrec, stackvm.RHS, stackvm.LeftAssoc)
	text := "(" + boolText + ").btoI32()"
	push(env, text, stackvm.PrecUnaryPostfix, stackvm.I32, lhs, rhs, false)
}

// pushCompareCall pops two operands, folds them through a boolean-
// returning Runtime helper (the unsigned comparisons, which Kotlin's
// signed Int/Long operators can't express directly), then debooleanizes.
func pushCompareCall(env *Env, format string) {
	rhs := env.Stack.PopValue()
	lhs := env.Stack.PopValue()
	boolText := fmt.Sprintf(format, lhs.Text, rhs.Text)
	text := boolText + ".btoI32()"
	push(env, text, stackvm.PrecUnaryPostfix, stackvm.I32, lhs, rhs, false)
}

// pushEqz pops one operand and folds i32.eqz/i64.eqz through the
// ".isz()" postfix idiom (an already-debooleanized 0/1 result, distinct
// from ".inz()", which stays a Boolean for use as an if/br_if test).
func pushEqz(env *Env, _ string) {
	v := env.Stack.PopValue()
	text := stackvm.ParenUnary(v, stackvm.PrecUnaryPostfix) + ".isz()"
	pushUnary(env, text, stackvm.PrecUnaryPostfix, stackvm.I32, v, false)
}

// Spill flushes the fold stack to spill variables; exported so control
// can force a join at a label boundary (block/loop/if/try entry and
// exit, and every br/br_if/br_table/return).
func Spill(env *Env) { spillStack(env) }

// Emit writes a bare statement; exported for control's branch and
// exception-handling emission, which has no StackValue to fold.
func Emit(env *Env, text string) { emitStatement(env, text) }

// spillStack flushes every folded value-stack entry to its spill
// variable, emitting one assignment statement per entry. Idempotent:
// a second call in a row emits nothing.
func spillStack(env *Env) {
	for _, a := range env.Stack.SpillValues() {
		env.Sink.Line(a.Var + " = " + a.Expr)
	}
}

// emitStatement writes a bare expression statement to the sink, used
// by opcodes that have no result (store, bulk memory/table ops).
func emitStatement(env *Env, text string) {
	env.Sink.Line(text)
}

// pushResultVar grows the type stack by one slot of type t and returns
// a StackValue for that slot's spill variable, for handlers whose
// result must be assigned to a variable rather than folded (calls,
// memory.grow).
func pushResultVar(env *Env, t stackvm.Type) stackvm.StackValue {
	env.Stack.PushType(t)
	return env.Stack.PushVar()
}

func push(env *Env, text string, prec int, resultType stackvm.Type, lhs, rhs stackvm.StackValue, canTrap bool) {
	deps := lhs.DependsOn.Union(rhs.DependsOn)
	eff := lhs.SideEffect.Union(rhs.SideEffect)
	eff.CanTrap = eff.CanTrap || canTrap
	env.Stack.PushValue(stackvm.StackValue{Text: text, Precedence: prec, Type: resultType, DependsOn: deps, SideEffect: eff})
}

func pushUnary(env *Env, text string, prec int, resultType stackvm.Type, v stackvm.StackValue, canTrap bool) {
	eff := v.SideEffect
	eff.CanTrap = eff.CanTrap || canTrap
	env.Stack.PushValue(stackvm.StackValue{Text: text, Precedence: prec, Type: resultType, DependsOn: v.DependsOn, SideEffect: eff})
}
