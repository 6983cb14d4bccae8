// Package wasm2kt translates a validated WebAssembly module into
// idiomatic Kotlin source that runs on the JVM.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	wasm2kt/             Root package, doc only
//	├── wasm/            Core WASM binary parsing, encoding, and validation (external collaborator)
//	├── validate/        External validation collaborator (wazero-backed compile check)
//	├── symtab/          Name legalization, mangling, and scope disambiguation
//	├── literal/         Bit-exact numeric literal formatting
//	├── stackvm/         Symbolic value stack with dependency/effect tracking and spilling
//	├── lower/           Per-opcode lowering tables (the expression translator)
//	├── control/         Block/loop/if/try/branch translation (the control-flow translator)
//	├── codegen/         Output sink (the Kotlin source buffer)
//	├── assemble/        Module assembler: fields, constructor, functions (the Kotlin source writer)
//	├── internal/logging/ Structured logging wrapper
//	├── errors/          Structured error types for diagnostics
//	└── cmd/wasm2kt/     Command-line entry point
//
// # Quick Start
//
// Translate a parsed module to Kotlin source:
//
//	data, _ := os.ReadFile("module.wasm")
//	mod, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := assemble.TranslateModule(mod, assemble.Options{ClassName: "Guest"})
//
// # Semantics Preserved
//
// The translator preserves Wasm's evaluation order, trap semantics (integer
// division/remainder by zero, signed overflow on INT_MIN/-1, out-of-bounds
// memory and table access, invalid float-to-int conversions), and exact
// IEEE-754 bit patterns for constants (signed zero, NaN payloads, infinities)
// in the emitted Kotlin.
//
// # Non-goals
//
// No dataflow optimization or cross-block CSE; no SIMD, atomics, GC-typed
// references, or tail calls (these abort translation with a named
// unsupported-opcode error); no bit-level NaN-payload fidelity beyond what
// the JVM's float/double bit operations preserve.
package wasm2kt
