package vmprog

import "github.com/sixtyfive/il65/types"

// Variable is a named dynamic slot shared by the main and timer programs
// (§3.2). Variables carry no scope of their own once flattened -- their
// Name is already the dotted path vmlink assigned.
type Variable struct {
	Name  string
	Type  types.DataType
	Const bool
	Value Value
}

// Instruction is one opcode with its raw arguments (variable/label names
// as strings, counts as ints -- vmlink.FlattenPrograms rewrites the name-typed
// arguments to their dotted form) plus the two linked successor pointers
// vmlink.Link fills in (§4.4).
type Instruction struct {
	Opcode  Opcode
	Args    []interface{}
	Next    *Instruction
	AltNext *Instruction
}

// StringArg returns Args[i] as a string, or "" if out of range or not a
// string -- used by vmlink.Link to read label-name arguments.
func (ins *Instruction) StringArg(i int) string {
	if i < 0 || i >= len(ins.Args) {
		return ""
	}
	s, _ := ins.Args[i].(string)
	return s
}

// IntArg returns Args[i] as an int, or 0 if out of range or not an int.
func (ins *Instruction) IntArg(i int) int {
	if i < 0 || i >= len(ins.Args) {
		return 0
	}
	n, _ := ins.Args[i].(int)
	return n
}

// Block is a named container of variables, instructions, labels and
// nested blocks, mirroring the block hierarchy the AST's flatten pass
// produces (§4.4). Unlike ast.Block this is already past symbol
// resolution -- it only carries what the linker needs.
type Block struct {
	Name         string
	Parent       *Block
	Variables    []*Variable
	Instructions []*Instruction
	Labels       map[string]*Instruction
	Blocks       []*Block
}

func NewBlock(name string, parent *Block) *Block {
	return &Block{Name: name, Parent: parent, Labels: make(map[string]*Instruction)}
}

// Program is a top-level collection of blocks -- either the main program
// or the timer program (§4.4, §4.5).
type Program struct {
	Blocks []*Block
}

// CallFrameMarker is pushed beneath a CALL's argument values and popped by
// the matching RETURN; a nil ReturnInstruction means "this call frame ends
// the interleave" (used to seed both the main and timer stacks before
// their respective run loops start, §4.5).
type CallFrameMarker struct {
	ReturnInstruction *Instruction
}
