// Package assemble owns the module-level assembly step (§4.G): given a
// decoded wasm.Module, it pre-allocates every backing field's name,
// emits the class's constructor and fields, translates every function
// body via control.NewTranslator, and stitches the results into one
// Kotlin source file.
package assemble

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wasm2kt/wasm2kt/codegen"
	"github.com/wasm2kt/wasm2kt/control"
	"github.com/wasm2kt/wasm2kt/errors"
	"github.com/wasm2kt/wasm2kt/internal/logging"
	"github.com/wasm2kt/wasm2kt/literal"
	"github.com/wasm2kt/wasm2kt/lower"
	"github.com/wasm2kt/wasm2kt/stackvm"
	"github.com/wasm2kt/wasm2kt/symtab"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// runtimeImportBanner is the fixed import line every generated file
// carries, naming the runtime library package the generated class's
// backing fields and helper calls resolve against.
const runtimeImportBanner = "import wasm_rt_impl.*"

// defaultClassName is used when Options.ClassName is empty.
const defaultClassName = "Wasm"

// featureSet is the fixed, always-enabled set of Wasm features this
// translator understands; --enable-<feature> only accepts names drawn
// from it, since the underlying decoder already handles all of them
// unconditionally.
var featureSet = map[string]bool{
	"exceptions":  true,
	"bulk-memory": true,
	"sign-ext":    true,
	"multi-value": true,
}

// Options configures one module translation.
type Options struct {
	PackageName  string
	ClassName    string
	NoDebugNames bool
	Features     map[string]bool

	// OnFuncDone, if set, is called with each function's generated name
	// right after its body finishes translating, for a caller-driven
	// progress display. Called synchronously from TranslateModule's
	// goroutine; it must not block.
	OnFuncDone func(name string)
}

// ValidateFeatures reports an error if opts names a feature outside
// featureSet, matching the CLI's usage-error behavior for an
// unrecognized --enable-<feature> flag.
func (o Options) ValidateFeatures() error {
	for name, enabled := range o.Features {
		if enabled && !featureSet[name] {
			return errors.New(errors.PhaseTranslate, errors.KindUnsupported).
				Detail("unknown feature %q", name).
				Build()
		}
	}
	return nil
}

func (o Options) className() string {
	if o.ClassName != "" {
		return o.ClassName
	}
	return defaultClassName
}

// TranslateModule assembles mod's Kotlin source in a fixed section
// order, after pre-allocating every name: source prologue, class
// header, multi-value result classes, imports, tag fields, globals,
// memories, tables, the init block (exports, elem initializers, data
// initializers, start invocation), function bodies, call-indirect
// adapters, closing brace.
func TranslateModule(mod *wasm.Module, opts Options) (string, error) {
	if err := opts.ValidateFeatures(); err != nil {
		return "", err
	}
	logging.Logger().Debug("translating module",
		zap.Int("funcs", len(mod.Code)),
		zap.Int("imports", len(mod.Imports)),
		zap.Int("exports", len(mod.Exports)),
		zap.String("class", opts.className()),
	)
	a := newAssembler(mod, opts)
	if err := a.writeModule(); err != nil {
		return "", err
	}
	return a.sink.String(), nil
}

// assembler holds the module-wide naming and bookkeeping state shared
// across every function body translated: it owns the one symbol
// namespace all backing fields, exports, and generated classes draw
// from, and accumulates the call-indirect signatures every function
// body records so their adapters can be emitted once at module end.
type assembler struct {
	mod  *wasm.Module
	opts Options
	sink *codegen.Sink

	scope *symtab.Scope

	funcNames   []string
	globalNames []string
	memNames    []string
	tableNames  []string
	tagNames    []string

	callIndirect map[uint32]*wasm.FuncType
}

func newAssembler(mod *wasm.Module, opts Options) *assembler {
	return &assembler{mod: mod, opts: opts, sink: codegen.NewSink(), scope: symtab.NewScope()}
}

func (a *assembler) writeModule() error {
	a.reserveWellKnown()
	a.preallocateNames()

	a.writePrologue()
	a.writeClassHeader()

	a.writeResultClasses()
	a.writeImportFields()
	a.writeTagFields()
	a.writeGlobalFields()
	a.writeMemoryFields()
	a.writeTableFields()

	a.writeInitBlock()

	if err := a.writeFunctionBodies(); err != nil {
		return err
	}
	a.writeCallIndirectAdapters()

	a.sink.CloseBrace()
	a.sink.Newline()
	return nil
}

// reserveWellKnown claims the constructor parameter names and the
// class name itself before any Wasm-derived name is legalized, so a
// Wasm export or function named e.g. "name" is renamed instead of
// silently shadowing the constructor's own "name" parameter.
func (a *assembler) reserveWellKnown() {
	a.scope.Reserve(symtab.Sigil + "moduleRegistry")
	a.scope.Reserve(symtab.Sigil + "name")
}

func (a *assembler) writePrologue() {
	if a.opts.PackageName != "" {
		a.sink.Line("package " + a.opts.PackageName)
		a.sink.Newline()
	}
	a.sink.Line(runtimeImportBanner)
	a.sink.Newline()
}

func (a *assembler) writeClassHeader() {
	a.sink.WriteString("class " + a.opts.className() + "(moduleRegistry: Runtime.ModuleRegistry, name: String) ")
	a.sink.OpenBrace()
}

// preallocateNames assigns every module-scoped identifier (functions,
// globals, memories, tables, tags, spanning imported and locally
// declared entries in one combined index space) up front, before any
// function body is translated, so a function body's own call sites can
// resolve a forward reference to a not-yet-emitted sibling.
func (a *assembler) preallocateNames() {
	names := readFunctionNames(a.mod, a.opts.NoDebugNames)
	total := a.mod.NumImportedFuncs() + len(a.mod.Funcs)
	a.funcNames = make([]string, total)
	for i := 0; i < total; i++ {
		if n, ok := names[uint32(i)]; ok {
			a.funcNames[i] = a.scope.Define(n)
		} else {
			a.funcNames[i] = a.scope.Define("func" + strconv.Itoa(i))
		}
	}

	totalGlobals := a.mod.NumImportedGlobals() + len(a.mod.Globals)
	a.globalNames = make([]string, totalGlobals)
	for i := 0; i < totalGlobals; i++ {
		a.globalNames[i] = a.scope.Define("global" + strconv.Itoa(i))
	}

	totalMems := a.mod.NumImportedMemories() + len(a.mod.Memories)
	a.memNames = make([]string, totalMems)
	for i := 0; i < totalMems; i++ {
		a.memNames[i] = a.scope.Define("memory" + strconv.Itoa(i))
	}

	totalTables := a.mod.NumImportedTables() + len(a.mod.Tables)
	a.tableNames = make([]string, totalTables)
	for i := 0; i < totalTables; i++ {
		a.tableNames[i] = a.scope.Define("table" + strconv.Itoa(i))
	}

	totalTags := a.mod.NumImportedTags() + len(a.mod.Tags)
	a.tagNames = make([]string, totalTags)
	for i := 0; i < totalTags; i++ {
		a.tagNames[i] = a.scope.Define("tag" + strconv.Itoa(i))
	}
}

// writeImportFields emits one backing field per import, initialized
// through the module registry's typed lookup, in the order the import
// section declared them (function-type table's role at this point is
// purely internal: every import's signature is already resolvable via
// mod.GetFuncType/Types, with nothing further to print).
func (a *assembler) writeImportFields() {
	funcIdx, globalIdx, memIdx, tableIdx, tagIdx := 0, 0, 0, 0, 0
	for _, imp := range a.mod.Imports {
		switch imp.Desc.Kind {
		case wasm.KindFunc:
			name := a.funcNames[funcIdx]
			a.sink.Line("private val " + name + ": (List<Any?>) -> List<Any?> = moduleRegistry.importFunc(\"" +
				imp.Module + "\", \"" + imp.Name + "\")")
			funcIdx++
		case wasm.KindGlobal:
			name := a.globalNames[globalIdx]
			t := kotlinType(lower.FromWasm(imp.Desc.Global.ValType))
			decl := "val"
			if imp.Desc.Global.Mutable {
				decl = "var"
			}
			a.sink.Line("private " + decl + " " + name + ": " + t + " = moduleRegistry.importGlobal(\"" +
				imp.Module + "\", \"" + imp.Name + "\")")
			globalIdx++
		case wasm.KindMemory:
			name := a.memNames[memIdx]
			a.sink.Line("private val " + name + " = moduleRegistry.importMemory(\"" + imp.Module + "\", \"" + imp.Name + "\")")
			memIdx++
		case wasm.KindTable:
			name := a.tableNames[tableIdx]
			a.sink.Line("private val " + name + " = moduleRegistry.importTable(\"" + imp.Module + "\", \"" + imp.Name + "\")")
			tableIdx++
		case wasm.KindTag:
			name := a.tagNames[tagIdx]
			a.sink.Line("private val " + name + " = moduleRegistry.importTag(\"" + imp.Module + "\", \"" + imp.Name + "\")")
			tagIdx++
		}
	}
}

// writeResultClasses emits one data class per distinct multi-value
// result tuple appearing anywhere in the module's type section, so
// every function or call_indirect adapter returning more than one
// value shares a class with every other signature of the identical
// shape rather than minting a fresh one per function.
func (a *assembler) writeResultClasses() {
	seen := make(map[string]bool)
	for _, ft := range a.mod.Types {
		if len(ft.Results) < 2 {
			continue
		}
		name := lower.ResultClassName(ft.Results)
		if seen[name] {
			continue
		}
		seen[name] = true

		fields := make([]string, len(ft.Results))
		for i, r := range ft.Results {
			fields[i] = "val r" + strconv.Itoa(i) + ": " + kotlinType(lower.FromWasm(r))
		}
		a.sink.Line("private data class " + name + "(" + strings.Join(fields, ", ") + ")")
	}
}

// writeTagFields emits the locally-declared (non-imported) tags: a
// payload data class capturing the tag's signature, plus the tag
// instance itself, matching the check/newException/payload contract
// control's try/catch and throw emission already assumes.
func (a *assembler) writeTagFields() {
	base := a.mod.NumImportedTags()
	for i, tag := range a.mod.Tags {
		name := a.tagNames[base+i]
		sig := a.tagSignature(tag)
		payloadClass := symtab.Legalize(name + "Payload")

		if len(sig.Params) == 0 {
			a.sink.Line("private class " + payloadClass)
		} else {
			fields := make([]string, len(sig.Params))
			for j, p := range sig.Params {
				fields[j] = "val p" + strconv.Itoa(j) + ": " + kotlinType(lower.FromWasm(p))
			}
			a.sink.Line("private data class " + payloadClass + "(" + strings.Join(fields, ", ") + ")")
		}
		a.sink.Line("private val " + name + " = Runtime.Tag<" + payloadClass + ">()")
	}
}

func (a *assembler) tagSignature(tag wasm.TagType) *wasm.FuncType {
	if int(tag.TypeIdx) >= len(a.mod.Types) {
		return &wasm.FuncType{}
	}
	return &a.mod.Types[tag.TypeIdx]
}

// writeGlobalFields emits the locally-declared globals, each
// initialized from its constant-expression bytecode.
func (a *assembler) writeGlobalFields() {
	base := a.mod.NumImportedGlobals()
	for i, g := range a.mod.Globals {
		name := a.globalNames[base+i]
		t := kotlinType(lower.FromWasm(g.Type.ValType))
		decl := "val"
		if g.Type.Mutable {
			decl = "var"
		}
		init := evalConstExpr(a.mod, g.Init, lower.FromWasm(g.Type.ValType), a)
		a.sink.Line("private " + decl + " " + name + ": " + t + " = " + init)
	}
}

func (a *assembler) writeMemoryFields() {
	base := a.mod.NumImportedMemories()
	for i, m := range a.mod.Memories {
		name := a.memNames[base+i]
		maxArg := "null"
		if m.Limits.Max != nil {
			maxArg = strconv.FormatUint(*m.Limits.Max, 10)
		}
		a.sink.Line("private val " + name + " = Runtime.Memory(" + strconv.FormatUint(m.Limits.Min, 10) + ", " + maxArg + ")")
	}
}

func (a *assembler) writeTableFields() {
	base := a.mod.NumImportedTables()
	for i, tbl := range a.mod.Tables {
		name := a.tableNames[base+i]
		maxArg := "null"
		if tbl.Limits.Max != nil {
			maxArg = strconv.FormatUint(*tbl.Limits.Max, 10)
		}
		a.sink.Line("private val " + name + " = Runtime.Table(" + strconv.FormatUint(tbl.Limits.Min, 10) + ", " + maxArg + ")")
	}
}

// writeInitBlock emits the export registrations, the elem and data
// initializers, and the optional start invocation, in that order; all
// of them run once, at construction time, so a single init block holds
// all of them.
func (a *assembler) writeInitBlock() {
	a.sink.WriteString("init ")
	a.sink.OpenBrace()

	for _, exp := range a.mod.Exports {
		a.writeExport(exp)
	}
	for _, el := range a.mod.Elements {
		a.writeElement(el)
	}
	for i, d := range a.mod.Data {
		a.writeData(i, d)
	}
	if a.mod.Start != nil {
		a.sink.Line(a.funcNames[*a.mod.Start] + "(emptyList())")
	}

	a.sink.CloseBrace()
	a.sink.Newline()
}

func (a *assembler) writeExport(exp wasm.Export) {
	switch exp.Kind {
	case wasm.KindFunc:
		a.sink.Line("moduleRegistry.exportFunc(name, \"" + exp.Name + "\", " + a.funcNames[exp.Idx] + ")")
	case wasm.KindGlobal:
		a.sink.Line("moduleRegistry.exportGlobal(name, \"" + exp.Name + "\", " + a.globalNames[exp.Idx] + ")")
	case wasm.KindMemory:
		a.sink.Line("moduleRegistry.exportMemory(name, \"" + exp.Name + "\", " + a.memNames[exp.Idx] + ")")
	case wasm.KindTable:
		a.sink.Line("moduleRegistry.exportTable(name, \"" + exp.Name + "\", " + a.tableNames[exp.Idx] + ")")
	case wasm.KindTag:
		a.sink.Line("moduleRegistry.exportTag(name, \"" + exp.Name + "\", " + a.tagNames[exp.Idx] + ")")
	}
}

// writeElement emits an active element segment's initializer as a
// constructor-call array of Func entries; passive/declarative segments
// (Flags 1/3/5/7) have no eager initializer and are left to
// table.init at the sites that reference them.
func (a *assembler) writeElement(el wasm.Element) {
	if el.Flags == 1 || el.Flags == 3 || el.Flags == 5 || el.Flags == 7 {
		return
	}
	table := "table0"
	if int(el.TableIdx) < len(a.tableNames) {
		table = a.tableNames[el.TableIdx]
	}
	offset := evalConstExpr(a.mod, el.Offset, stackvm.I32, a)
	funcTypes := make([]uint32, 0, len(a.mod.Imports)+len(a.mod.Funcs))
	for _, imp := range a.mod.Imports {
		if imp.Desc.Kind == wasm.KindFunc {
			funcTypes = append(funcTypes, imp.Desc.TypeIdx)
		}
	}
	funcTypes = append(funcTypes, a.mod.Funcs...)
	entries := make([]string, 0, len(el.FuncIdxs))
	for _, idx := range el.FuncIdxs {
		entries = append(entries, "Runtime.Func("+strconv.FormatUint(uint64(funcTypes[idx]), 10)+", ::"+a.funcNames[idx]+")")
	}
	a.sink.Line(table + ".tableInit(" + offset + ", listOf(" + strings.Join(entries, ", ") + "))")
}

// writeData emits an active data segment's bytes as a base-64 literal
// decoded at construction time; passive segments (Flags 1) are left to
// memory.init at the sites that reference them.
func (a *assembler) writeData(idx int, d wasm.DataSegment) {
	if d.Flags == 1 {
		return
	}
	mem := "memory0"
	if int(d.MemIdx) < len(a.memNames) {
		mem = a.memNames[d.MemIdx]
	}
	offset := evalConstExpr(a.mod, d.Offset, stackvm.I32, a)
	a.sink.Line(mem + ".put(" + offset + ", loadb64(\"" + toBase64(d.Init) + "\"))")
}

// writeFunctionBodies translates every non-imported function, resetting
// its local symbol table, stack-var map, and translator state fresh for
// each one, per WriteModule's "every function body emission resets"
// note.
func (a *assembler) writeFunctionBodies() error {
	base := a.mod.NumImportedFuncs()
	callIndirect := make(map[uint32]*wasm.FuncType)

	for i, body := range a.mod.Code {
		funcIdx := uint32(base + i)
		sig := a.mod.GetFuncType(funcIdx)
		instrs, err := wasm.DecodeInstructions(body.Code)
		if err != nil {
			return err
		}
		logging.Logger().Debug("translating function", zap.Uint32("index", funcIdx), zap.String("name", a.funcNames[funcIdx]))

		fnScope := symtab.NewChildScope(a.scope)
		locals, localTypes := declareLocals(sig, body.Locals, fnScope)

		bodySink := codegen.NewSink()

		env := &lower.Env{
			Stack:  stackvm.New(),
			Sink:   bodySink,
			Module: a.mod,
			LocalName: func(idx uint32) string {
				return locals[idx]
			},
			LocalType: func(idx uint32) stackvm.Type {
				return localTypes[idx]
			},
			GlobalName: func(idx uint32) string { return a.globalNames[idx] },
			GlobalType: func(idx uint32) stackvm.Type {
				return globalValType(a.mod, idx)
			},
			MemName:   func(idx uint32) string { return a.memNames[idx] },
			TableName: func(idx uint32) string { return a.tableNames[idx] },
			FuncName:  func(idx uint32) string { return a.funcNames[idx] },
			FuncType:  func(idx uint32) *wasm.FuncType { return a.mod.GetFuncType(idx) },
			TagName:   func(idx uint32) string { return a.tagNames[idx] },
		}

		params := make([]string, len(sig.Params))
		for j, p := range sig.Params {
			params[j] = locals[uint32(j)] + ": " + kotlinType(lower.FromWasm(p))
		}
		retType := functionReturnType(sig)

		a.sink.WriteString("private fun " + a.funcNames[funcIdx] + "(" + strings.Join(params, ", ") + ")" + retType + " ")
		a.sink.OpenBrace()
		for _, decl := range declaredLocalVars(sig, body.Locals, locals) {
			a.sink.Line("var " + decl)
		}

		// The body is translated into its own scratch sink, since the
		// spill variables a folded expression needs are only known once
		// translation has run to completion (stackvm.Stack.Prologue());
		// bodySink is set to the same depth as a.sink's open brace so its
		// rendered text splices back in at the right indent.
		bodySink.SetDepth(a.sink.Depth())
		tree := control.Parse(instrs, a.mod)
		translator := control.NewTranslator(env, lower.NewRegistry(), fnScope)
		if err := translator.TranslateFunction(tree, sig.Results); err != nil {
			return err
		}
		for _, decl := range env.Stack.Prologue() {
			a.sink.Line("var " + decl.Name + ": " + kotlinType(decl.Type) + " = " + zeroLiteral(decl.Type))
		}
		a.sink.WriteRaw(bodySink.String())

		a.sink.CloseBrace()
		a.sink.Newline()

		for typeIdx, fsig := range env.CallIndirect {
			callIndirect[typeIdx] = fsig
		}

		if a.opts.OnFuncDone != nil {
			a.opts.OnFuncDone(a.funcNames[funcIdx])
		}
	}

	a.callIndirect = callIndirect
	return nil
}

// writeCallIndirectAdapters emits one adapter per distinct signature
// seen at a call_indirect site across every function body, validating
// the callee's recorded type index before dispatching.
func (a *assembler) writeCallIndirectAdapters() {
	for typeIdx, sig := range a.callIndirect {
		params := make([]string, 0, len(sig.Params)+2)
		params = append(params, "table: Runtime.Table")
		for i, p := range sig.Params {
			params = append(params, "a"+strconv.Itoa(i)+": "+kotlinType(lower.FromWasm(p)))
		}
		params = append(params, "idx: Int")
		retType := functionReturnType(sig)

		a.sink.WriteString("private fun " + lower.AdapterName(typeIdx) + "(" + strings.Join(params, ", ") + ")" + retType + " ")
		a.sink.OpenBrace()
		a.sink.Line("val entry = table.get(idx)")
		a.sink.Line("if (entry.typeIndex != " + strconv.Itoa(int(typeIdx)) + ") throw Runtime.WasmTrap(\"TRAP_CALL_INDIRECT\")")
		args := make([]string, len(sig.Params))
		for i := range sig.Params {
			args[i] = "a" + strconv.Itoa(i)
		}
		call := "entry.call(" + strings.Join(args, ", ") + ")"
		if len(sig.Results) > 0 {
			a.sink.Line("return " + call)
		} else {
			a.sink.Line(call)
		}
		a.sink.CloseBrace()
		a.sink.Newline()
	}
}

func functionReturnType(sig *wasm.FuncType) string {
	switch len(sig.Results) {
	case 0:
		return ""
	case 1:
		return ": " + kotlinType(lower.FromWasm(sig.Results[0]))
	default:
		return ": " + lower.ResultClassName(sig.Results)
	}
}

func kotlinType(t stackvm.Type) string {
	switch t {
	case stackvm.I32:
		return "Int"
	case stackvm.I64:
		return "Long"
	case stackvm.F32:
		return "Float"
	case stackvm.F64:
		return "Double"
	default:
		return "Any"
	}
}

// declareLocals assigns Kotlin identifiers to a function's parameters
// and declared locals (the flattened Locals run-length groups), all in
// one Wasm local index space, seeded fresh into fnScope per the
// "local symbol table, reseeded from globals" reset WriteModule
// requires for every function body.
func declareLocals(sig *wasm.FuncType, groups []wasm.LocalEntry, fnScope *symtab.Scope) (map[uint32]string, map[uint32]stackvm.Type) {
	names := make(map[uint32]string)
	types := make(map[uint32]stackvm.Type)
	idx := uint32(0)
	for range sig.Params {
		names[idx] = fnScope.Define("local" + strconv.Itoa(int(idx)))
		types[idx] = lower.FromWasm(sig.Params[idx])
		idx++
	}
	for _, g := range groups {
		t := lower.FromWasm(g.ValType)
		for i := uint32(0); i < g.Count; i++ {
			names[idx] = fnScope.Define("local" + strconv.Itoa(int(idx)))
			types[idx] = t
			idx++
		}
	}
	return names, types
}

// declaredLocalVars returns "name: Type = 0"-style declarations for
// every local beyond the parameter list (parameters are already bound
// by the function signature; only the declared-locals region needs an
// explicit var with a zero default, per Wasm's own zero-initialization
// rule for locals).
func declaredLocalVars(sig *wasm.FuncType, groups []wasm.LocalEntry, names map[uint32]string) []string {
	var out []string
	idx := uint32(len(sig.Params))
	for _, g := range groups {
		t := lower.FromWasm(g.ValType)
		for i := uint32(0); i < g.Count; i++ {
			out = append(out, names[idx]+": "+kotlinType(t)+" = "+zeroLiteral(t))
			idx++
		}
	}
	return out
}

func zeroLiteral(t stackvm.Type) string {
	switch t {
	case stackvm.I32:
		return literal.I32(0)
	case stackvm.I64:
		return literal.I64(0)
	case stackvm.F32:
		return literal.F32(0)
	case stackvm.F64:
		return literal.F64(0)
	default:
		return "0"
	}
}

func globalValType(mod *wasm.Module, idx uint32) stackvm.Type {
	numImported := uint32(mod.NumImportedGlobals())
	if idx < numImported {
		var seen uint32
		for _, imp := range mod.Imports {
			if imp.Desc.Kind == wasm.KindGlobal {
				if seen == idx {
					return lower.FromWasm(imp.Desc.Global.ValType)
				}
				seen++
			}
		}
	}
	local := idx - numImported
	if int(local) < len(mod.Globals) {
		return lower.FromWasm(mod.Globals[local].Type.ValType)
	}
	return stackvm.Any
}

// evalConstExpr decodes a Wasm constant-expression's leading
// instruction (the only one that carries a value for every init-expr
// form this translator needs: {i32,i64,f32,f64}.const and global.get of
// an immutable import) and folds it to Kotlin literal text.
func evalConstExpr(mod *wasm.Module, code []byte, want stackvm.Type, a *assembler) string {
	instrs, err := wasm.DecodeInstructions(code)
	if err != nil || len(instrs) == 0 {
		return zeroLiteral(want)
	}
	switch imm := instrs[0].Imm.(type) {
	case wasm.I32Imm:
		return literal.I32(imm.Value)
	case wasm.I64Imm:
		return literal.I64(imm.Value)
	case wasm.F32Imm:
		return literal.F32(imm.Value)
	case wasm.F64Imm:
		return literal.F64(imm.Value)
	case wasm.GlobalImm:
		if a != nil && int(imm.GlobalIdx) < len(a.globalNames) {
			return a.globalNames[imm.GlobalIdx]
		}
		return zeroLiteral(want)
	default:
		return zeroLiteral(want)
	}
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// toBase64 encodes data using the standard RFC 4648 alphabet, emitting
// the raw character stream without "=" padding: loadb64 recovers the
// exact byte count from the encoded length, per the persisted-format
// convention this translator uses for data segments.
func toBase64(data []byte) string {
	var b strings.Builder
	for i := 0; i+3 <= len(data); i += 3 {
		n := uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
		b.WriteByte(base64Alphabet[(n>>18)&0x3F])
		b.WriteByte(base64Alphabet[(n>>12)&0x3F])
		b.WriteByte(base64Alphabet[(n>>6)&0x3F])
		b.WriteByte(base64Alphabet[n&0x3F])
	}
	rem := len(data) % 3
	if rem == 1 {
		n := uint32(data[len(data)-1]) << 16
		b.WriteByte(base64Alphabet[(n>>18)&0x3F])
		b.WriteByte(base64Alphabet[(n>>12)&0x3F])
	} else if rem == 2 {
		n := uint32(data[len(data)-2])<<16 | uint32(data[len(data)-1])<<8
		b.WriteByte(base64Alphabet[(n>>18)&0x3F])
		b.WriteByte(base64Alphabet[(n>>12)&0x3F])
		b.WriteByte(base64Alphabet[(n>>6)&0x3F])
	}
	return b.String()
}

// readFunctionNames scans the "name" custom section's function-names
// subsection (id 1) for a debug name per function index, honoring
// --no-debug-names by skipping the scan entirely.
func readFunctionNames(mod *wasm.Module, skip bool) map[uint32]string {
	out := make(map[uint32]string)
	if skip {
		return out
	}
	for _, cs := range mod.CustomSections {
		if cs.Name != "name" {
			continue
		}
		parseNameSection(cs.Data, out)
	}
	return out
}

func parseNameSection(data []byte, out map[uint32]string) {
	r := newByteReader(data)
	for r.remaining() > 0 {
		id, ok := r.readByte()
		if !ok {
			return
		}
		size, err := wasm.ReadLEB128u(r)
		if err != nil {
			return
		}
		sub, ok := r.readBytes(int(size))
		if !ok {
			return
		}
		if id == 1 {
			parseFunctionNameSubsection(sub, out)
		}
	}
}

func parseFunctionNameSubsection(data []byte, out map[uint32]string) {
	r := newByteReader(data)
	count, err := wasm.ReadLEB128u(r)
	if err != nil {
		return
	}
	for i := uint32(0); i < count; i++ {
		idx, err := wasm.ReadLEB128u(r)
		if err != nil {
			return
		}
		nameLen, err := wasm.ReadLEB128u(r)
		if err != nil {
			return
		}
		nameBytes, ok := r.readBytes(int(nameLen))
		if !ok {
			return
		}
		out[idx] = string(nameBytes)
	}
}

// byteReader is a minimal io.ByteReader over a byte slice, enough to
// drive wasm.ReadLEB128u while tracking position for sub-slicing.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, strconvRangeErr
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readByte() (byte, bool) {
	b, err := r.ReadByte()
	return b, err == nil
}

func (r *byteReader) readBytes(n int) ([]byte, bool) {
	if r.pos+n > len(r.data) {
		return nil, false
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, true
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.pos
}

var strconvRangeErr = strconv.ErrRange
