// Package symtab legalizes and disambiguates WebAssembly names into
// stable Kotlin identifiers.
//
// Wasm names may be empty, may collide with Kotlin reserved words, and
// may contain bytes Kotlin's lexer rejects. Two distinct schemes are
// used: Legalize+Define for internal identifiers (locals, stack
// variables, labels, private backing fields) and Mangle for
// host-visible import/export strings, which must round-trip without
// collisions between distinct inputs.
package symtab

import (
	"fmt"
	"strconv"
	"strings"
)

// Sigil prefixes every legalized internal identifier so it can never
// collide with a Kotlin reserved word or a runtime-library symbol.
const Sigil = "w2k_"

// manglePrefix starts every mangled export/import string.
const manglePrefix = "Z_"

// mangleEscape is the escape letter used by Mangle for non-identifier bytes.
const mangleEscape = 'Z'

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

// Legalize sanitizes name into a valid Kotlin identifier fragment: the
// first character becomes a letter or underscore, remaining characters
// become alphanumerics or underscores, and an empty name becomes "_".
// The result is always prefixed with Sigil so it can never collide with
// a Kotlin keyword or a runtime-library symbol.
func Legalize(name string) string {
	if name == "" {
		return Sigil + "_"
	}

	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if i == 0 {
			if isIdentStart(c) {
				b.WriteByte(c)
			} else {
				b.WriteByte('_')
			}
			continue
		}
		if isAlphaNum(c) || c == '_' {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}

	result := b.String()
	if result == "" {
		result = "_"
	}
	return Sigil + result
}

// Mangle produces a reversible, collision-free identifier for
// host-visible import/export names. Every alphanumeric or underscore
// byte (other than the leading sigil) passes through unchanged; every
// other byte is replaced by the escape letter followed by its uppercase
// hex value, guaranteeing that distinct byte strings map to distinct
// outputs (the escape letter itself is always hex-escaped when it
// appears literally, so no two distinct inputs can produce the same
// output).
func Mangle(name string) string {
	var b strings.Builder
	b.Grow(len(name) + len(manglePrefix))
	b.WriteString(manglePrefix)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAlphaNum(c) && c != mangleEscape || c == '_' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%c%02X", mangleEscape, c)
	}
	return b.String()
}

// Scope tracks the set of identifiers already defined within one
// naming scope (global, a function's locals, or a label namespace).
type Scope struct {
	used map[string]bool
}

// NewScope creates an empty naming scope.
func NewScope() *Scope {
	return &Scope{used: make(map[string]bool)}
}

// NewChildScope creates a scope pre-seeded with every name already
// defined in parent, so that a name shadowing an outer-scope name is
// itself renamed rather than silently shadowing it. This implements the
// "locals are seeded from globals at function entry" rule.
func NewChildScope(parent *Scope) *Scope {
	s := NewScope()
	for k := range parent.used {
		s.used[k] = true
	}
	return s
}

// Define returns a unique legalized identifier for raw name within this
// scope: Legalize(name) if free, else Legalize(name) suffixed with
// "_0", "_1", ... until a free spelling is found. The returned name is
// inserted into the scope before being returned.
func (s *Scope) Define(name string) string {
	base := Legalize(name)
	candidate := base
	if !s.used[candidate] {
		s.used[candidate] = true
		return candidate
	}
	for i := 0; ; i++ {
		candidate = base + "_" + strconv.Itoa(i)
		if !s.used[candidate] {
			s.used[candidate] = true
			return candidate
		}
	}
}

// Has reports whether ident has already been defined in this scope.
func (s *Scope) Has(ident string) bool {
	return s.used[ident]
}

// Reserve marks ident as defined without running it through Legalize,
// used to pre-claim runtime-reserved symbols before user names are
// assigned.
func (s *Scope) Reserve(ident string) {
	s.used[ident] = true
}

// StackVarName derives the canonical spill-variable name for a value
// stack slot: Sigil, "s", a one-character type tag and the stack depth,
// e.g. "w2k_si3" for an i32 slot at depth 3.
func StackVarName(typeTag byte, depth int) string {
	return Sigil + "s" + string(typeTag) + strconv.Itoa(depth)
}
