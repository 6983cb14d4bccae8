// Package codegen is the indented output buffer every translated Wasm
// construct is written into; assemble owns the module-level assembly
// that decides what gets written and in what order.
package codegen

import "strings"

// defaultIndentStep is written once per nesting depth at the start of
// each line.
const defaultIndentStep = "    "

// Sink is a buffered, indent-tracking writer for Kotlin source text.
// Writes never need to carry their own leading whitespace: Newline sets
// a pending-indent flag, and the next WriteString call emits the
// correct number of indentStep repetitions before its own text.
type Sink struct {
	b             strings.Builder
	indentStep    string
	depth         int
	pendingIndent bool
	sections      []*FuncSection
}

// NewSink creates an empty sink using the default indent step.
func NewSink() *Sink {
	return &Sink{indentStep: defaultIndentStep}
}

// WriteString appends str, first emitting the current indent if a
// newline was just written. Returns the sink for chaining.
func (s *Sink) WriteString(str string) *Sink {
	if s.pendingIndent {
		s.b.WriteString(strings.Repeat(s.indentStep, s.depth))
		s.pendingIndent = false
	}
	s.b.WriteString(str)
	return s
}

// Newline writes a line break and arms the pending-indent flag.
func (s *Sink) Newline() *Sink {
	s.b.WriteByte('\n')
	s.pendingIndent = true
	return s
}

// Line writes str followed by a newline, a shorthand for the common
// WriteString+Newline pair.
func (s *Sink) Line(str string) *Sink {
	return s.WriteString(str).Newline()
}

// Indent increases the indent depth by one level without writing
// anything, for constructs that nest without a brace pair.
func (s *Sink) Indent() *Sink {
	s.depth++
	return s
}

// Dedent decreases the indent depth by one level.
func (s *Sink) Dedent() *Sink {
	if s.depth > 0 {
		s.depth--
	}
	return s
}

// OpenBrace writes "{", breaks the line, and increases the indent depth
// so subsequent writes land one level deeper.
func (s *Sink) OpenBrace() *Sink {
	return s.WriteString("{").Newline().Indent()
}

// CloseBrace decreases the indent depth, then writes "}" at the
// dedented level so it lines up with the statement that opened it.
func (s *Sink) CloseBrace() *Sink {
	return s.Dedent().WriteString("}")
}

// Depth returns the current indent depth.
func (s *Sink) Depth() int {
	return s.depth
}

// SetDepth forces the indent depth, for a scratch sink meant to be
// spliced back into a parent buffer at a known nesting level (a
// function body translated separately from its spill-variable
// prologue, then stitched together once both are known).
func (s *Sink) SetDepth(d int) *Sink {
	s.depth = d
	return s
}

// WriteRaw appends str without indent handling, for splicing in text
// already rendered by another Sink at a matching depth.
func (s *Sink) WriteRaw(str string) *Sink {
	s.b.WriteString(str)
	return s
}

// String returns the accumulated buffer contents.
func (s *Sink) String() string {
	return s.b.String()
}

// FuncSection is a named, independently-buffered chunk of output whose
// inclusion in the final module is gated by Condition: a Go-language
// build-style feature name (e.g. "enableTailCalls"), or empty for a
// section that is always included.
type FuncSection struct {
	Condition string
	Sink      *Sink
}

// PushFuncSection opens a new sub-buffer gated by condition (empty
// means unconditional) and registers it with the parent sink in
// declaration order. Writes to the returned Sink do not appear in the
// parent's buffer until the module assembler splices the section in.
func (s *Sink) PushFuncSection(condition string) *Sink {
	sub := NewSink()
	sub.indentStep = s.indentStep
	s.sections = append(s.sections, &FuncSection{Condition: condition, Sink: sub})
	return sub
}

// Sections returns every sub-buffer registered via PushFuncSection, in
// the order they were pushed.
func (s *Sink) Sections() []*FuncSection {
	return s.sections
}
