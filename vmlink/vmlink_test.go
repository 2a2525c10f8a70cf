package vmlink

import (
	"testing"

	"github.com/sixtyfive/il65/vmprog"
)

func TestFlattenRewritesVariableArgsToDottedPath(t *testing.T) {
	push := &vmprog.Instruction{Opcode: vmprog.PUSH, Args: []interface{}{"x"}}
	main := vmprog.NewBlock("main", nil)
	main.Instructions = []*vmprog.Instruction{push}
	main.Variables = []*vmprog.Variable{{Name: "x"}}

	prog := &vmprog.Program{Blocks: []*vmprog.Block{main}}
	instrs, _, vars, _, err := FlattenPrograms(prog, nil)
	if err != nil {
		t.Fatal(err)
	}
	if push.StringArg(0) != "main.x" {
		t.Errorf("got %q, want main.x", push.StringArg(0))
	}
	if _, ok := vars["main.x"]; !ok {
		t.Errorf("expected main.x registered in variable map")
	}
	if instrs[len(instrs)-1].Opcode != vmprog.TERMINATE {
		t.Errorf("expected trailing TERMINATE")
	}
}

func TestFlattenSkipsSyscallArgRewrite(t *testing.T) {
	sc := &vmprog.Instruction{Opcode: vmprog.SYSCALL, Args: []interface{}{"printstr"}}
	main := vmprog.NewBlock("main", nil)
	main.Instructions = []*vmprog.Instruction{sc}
	prog := &vmprog.Program{Blocks: []*vmprog.Block{main}}
	if _, _, _, _, err := FlattenPrograms(prog, nil); err != nil {
		t.Fatal(err)
	}
	if sc.StringArg(0) != "printstr" {
		t.Errorf("got %q, want printstr unchanged", sc.StringArg(0))
	}
}

func TestFlattenNestedBlocksPrefixDotted(t *testing.T) {
	inner := vmprog.NewBlock("inner", nil)
	push := &vmprog.Instruction{Opcode: vmprog.PUSH, Args: []interface{}{"y"}}
	inner.Instructions = []*vmprog.Instruction{push}
	inner.Variables = []*vmprog.Variable{{Name: "y"}}

	outer := vmprog.NewBlock("main", nil)
	outer.Blocks = []*vmprog.Block{inner}
	inner.Parent = outer

	prog := &vmprog.Program{Blocks: []*vmprog.Block{outer}}
	_, _, vars, _, err := FlattenPrograms(prog, nil)
	if err != nil {
		t.Fatal(err)
	}
	if push.StringArg(0) != "main.inner.y" {
		t.Errorf("got %q, want main.inner.y", push.StringArg(0))
	}
	if _, ok := vars["main.inner.y"]; !ok {
		t.Errorf("expected main.inner.y registered")
	}
}

func TestLinkJumpIfTrueSetsNextAndAltNext(t *testing.T) {
	target := &vmprog.Instruction{Opcode: vmprog.NOP}
	jit := &vmprog.Instruction{Opcode: vmprog.JUMP_IF_TRUE, Args: []interface{}{"loop"}}
	after := &vmprog.Instruction{Opcode: vmprog.NOP}
	labels := map[string]*vmprog.Instruction{"loop": target}

	if err := Link([]*vmprog.Instruction{jit, after}, labels); err != nil {
		t.Fatal(err)
	}
	if jit.Next != after {
		t.Errorf("expected Next to be the fall-through instruction")
	}
	if jit.AltNext != target {
		t.Errorf("expected AltNext to be the resolved label target")
	}
}

func TestLinkCallSetsNextToCalleeAndAltNextToReturnSite(t *testing.T) {
	callee := &vmprog.Instruction{Opcode: vmprog.NOP}
	call := &vmprog.Instruction{Opcode: vmprog.CALL, Args: []interface{}{2, "sub"}}
	after := &vmprog.Instruction{Opcode: vmprog.NOP}
	labels := map[string]*vmprog.Instruction{"sub": callee}

	if err := Link([]*vmprog.Instruction{call, after}, labels); err != nil {
		t.Fatal(err)
	}
	if call.Next != callee {
		t.Errorf("expected Next to be the callee")
	}
	if call.AltNext != after {
		t.Errorf("expected AltNext to be the return site")
	}
}

func TestLinkUndefinedLabelFails(t *testing.T) {
	jmp := &vmprog.Instruction{Opcode: vmprog.JUMP, Args: []interface{}{"nowhere"}}
	if err := Link([]*vmprog.Instruction{jmp}, map[string]*vmprog.Instruction{}); err == nil {
		t.Errorf("expected undefined-label error")
	}
}
