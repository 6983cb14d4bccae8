// Package control implements the structured control-flow translator
// (§4.F): a recursive-descent parser that turns a function body's flat
// []wasm.Instruction into a tree of Seq/Block/If/Try/Catch/CatchAll
// nodes, and a walker that lowers that tree into host statements using
// lower.Registry for every leaf instruction.
package control

import "github.com/wasm2kt/wasm2kt/wasm"

// Node is one node of the parsed instruction tree.
type Node interface {
	// IsControlFlow reports whether this node opens a label (block,
	// loop, if, try): these are the nodes br/br_if/br_table can target.
	IsControlFlow() bool
	// Results returns the node's result types, or nil for void.
	Results() []wasm.ValType
}

// SeqNode is a straight-line sequence of nodes with no label of its
// own (the body of a function, or of a block/if/try arm).
type SeqNode struct {
	Children []Node
}

func (n *SeqNode) IsControlFlow() bool     { return false }
func (n *SeqNode) Results() []wasm.ValType { return nil }

// BlockNode represents block or loop. Opcode distinguishes which: a
// block's label targets its end (forward branch), a loop's targets its
// start (back branch), which is why BlockNode also records ParamTypes
// (a loop's label signature is its *params*, not its results).
type BlockNode struct {
	Body        Node
	ParamTypes  []wasm.ValType
	ResultTypes []wasm.ValType
	Imm         wasm.BlockImm
	Opcode      byte
}

func (n *BlockNode) IsControlFlow() bool     { return true }
func (n *BlockNode) Results() []wasm.ValType { return n.ResultTypes }

// IfNode represents if/else.
type IfNode struct {
	Then        Node
	Else        Node
	ParamTypes  []wasm.ValType
	ResultTypes []wasm.ValType
	Imm         wasm.BlockImm
}

func (n *IfNode) IsControlFlow() bool     { return true }
func (n *IfNode) Results() []wasm.ValType { return n.ResultTypes }

// TryNode represents try/catch/catch_all/delegate. Exactly one of
// CatchAll or Delegate is non-nil unless the try has neither, which
// Wasm's validator forbids but the parser tolerates (an empty handler
// list) so a malformed tail doesn't panic translation.
type TryNode struct {
	Body        Node
	Catches     []CatchArm
	CatchAll    *CatchAllArm
	Delegate    *DelegateArm
	ParamTypes  []wasm.ValType
	ResultTypes []wasm.ValType
	Imm         wasm.BlockImm
}

func (n *TryNode) IsControlFlow() bool     { return true }
func (n *TryNode) Results() []wasm.ValType { return n.ResultTypes }

// CatchArm is one `catch <tag>` handler.
type CatchArm struct {
	TagIdx uint32
	Body   Node
}

// CatchAllArm is the `catch_all` handler.
type CatchAllArm struct {
	Body Node
}

// DelegateArm is a `delegate <label>` tail in place of any catch arms.
type DelegateArm struct {
	LabelIdx uint32
}

// InstrNode wraps a single non-structural instruction, dispatched to
// lower.Registry during the walk.
type InstrNode struct {
	Instr wasm.Instruction
}

func (n *InstrNode) IsControlFlow() bool     { return false }
func (n *InstrNode) Results() []wasm.ValType { return nil }

// Parse converts a function body's flat instruction stream (with its
// trailing implicit OpEnd already included, as wasm.FuncBody stores
// it) into a tree. module resolves block-type type-indices to their
// param/result lists; it may be nil if no block in instrs uses one.
func Parse(instrs []wasm.Instruction, module *wasm.Module) Node {
	p := &parser{instrs: instrs, module: module}
	return p.parseSeq()
}

type parser struct {
	module *wasm.Module
	instrs []wasm.Instruction
	pos    int
}

func (p *parser) parseSeq() Node {
	var children []Node
	for p.pos < len(p.instrs) {
		instr := p.instrs[p.pos]
		switch instr.Opcode {
		case wasm.OpEnd:
			p.pos++
			return &SeqNode{Children: children}

		case wasm.OpElse:
			// Consumed by the enclosing parseIf; return without advancing.
			return &SeqNode{Children: children}

		case wasm.OpCatch, wasm.OpCatchAll, wasm.OpDelegate:
			// Consumed by the enclosing parseTry; return without advancing.
			return &SeqNode{Children: children}

		case wasm.OpBlock, wasm.OpLoop:
			children = append(children, p.parseBlock())

		case wasm.OpIf:
			children = append(children, p.parseIf())

		case wasm.OpTry:
			children = append(children, p.parseTry())

		default:
			children = append(children, &InstrNode{Instr: instr})
			p.pos++
		}
	}
	return &SeqNode{Children: children}
}

func (p *parser) parseBlock() Node {
	instr := p.instrs[p.pos]
	imm := instr.Imm.(wasm.BlockImm)
	p.pos++
	body := p.parseSeq()
	params, results := blockTypeToParamsAndResults(imm.Type, p.module)
	return &BlockNode{Opcode: instr.Opcode, ParamTypes: params, ResultTypes: results, Body: body, Imm: imm}
}

func (p *parser) parseIf() Node {
	instr := p.instrs[p.pos]
	imm := instr.Imm.(wasm.BlockImm)
	p.pos++
	then := p.parseSeq()
	var elseBranch Node
	if p.pos < len(p.instrs) && p.instrs[p.pos].Opcode == wasm.OpElse {
		p.pos++
		elseBranch = p.parseSeq()
	}
	params, results := blockTypeToParamsAndResults(imm.Type, p.module)
	return &IfNode{ParamTypes: params, ResultTypes: results, Then: then, Else: elseBranch, Imm: imm}
}

func (p *parser) parseTry() Node {
	instr := p.instrs[p.pos]
	imm := instr.Imm.(wasm.BlockImm)
	p.pos++
	body := p.parseSeq()

	node := &TryNode{Body: body}
	for p.pos < len(p.instrs) {
		switch p.instrs[p.pos].Opcode {
		case wasm.OpCatch:
			tagIdx := p.instrs[p.pos].Imm.(wasm.ThrowImm).TagIdx
			p.pos++
			node.Catches = append(node.Catches, CatchArm{TagIdx: tagIdx, Body: p.parseSeq()})
			continue
		case wasm.OpCatchAll:
			p.pos++
			node.CatchAll = &CatchAllArm{Body: p.parseSeq()}
			continue
		case wasm.OpDelegate:
			labelIdx := p.instrs[p.pos].Imm.(wasm.BranchImm).LabelIdx
			p.pos++
			node.Delegate = &DelegateArm{LabelIdx: labelIdx}
		}
		break
	}

	params, results := blockTypeToParamsAndResults(imm.Type, p.module)
	node.ParamTypes, node.ResultTypes, node.Imm = params, results, imm
	return node
}

// blockTypeToParamsAndResults resolves a Wasm block-type encoding
// (negative = value-type shorthand, -64 = void, non-negative = a type
// index) to its param/result lists.
func blockTypeToParamsAndResults(blockType int32, module *wasm.Module) (params, results []wasm.ValType) {
	switch blockType {
	case -1:
		return nil, []wasm.ValType{wasm.ValI32}
	case -2:
		return nil, []wasm.ValType{wasm.ValI64}
	case -3:
		return nil, []wasm.ValType{wasm.ValF32}
	case -4:
		return nil, []wasm.ValType{wasm.ValF64}
	case -5:
		return nil, []wasm.ValType{wasm.ValV128}
	case -16:
		return nil, []wasm.ValType{wasm.ValFuncRef}
	case -17:
		return nil, []wasm.ValType{wasm.ValExtern}
	case -64:
		return nil, nil
	default:
		if blockType >= 0 && module != nil && int(blockType) < len(module.Types) {
			ft := &module.Types[blockType]
			return ft.Params, ft.Results
		}
		return nil, nil
	}
}
