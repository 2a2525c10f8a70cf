package asm

import (
	"strings"
	"testing"

	"github.com/sixtyfive/il65/vmprog"
)

func TestDisassembleStraightLine(t *testing.T) {
	term := &vmprog.Instruction{Opcode: vmprog.TERMINATE}
	push := &vmprog.Instruction{Opcode: vmprog.PUSH, Args: []interface{}{"x"}, Next: term}
	instrs := []*vmprog.Instruction{push, term}

	var buf strings.Builder
	if err := Disassemble(instrs, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "PUSH") || !strings.Contains(out, "x") {
		t.Fatalf("disassembly missing PUSH x: %q", out)
	}
	if !strings.Contains(out, "TERMINATE") {
		t.Fatalf("disassembly missing TERMINATE: %q", out)
	}
}

func TestDisassembleJumpShowsTargetIndex(t *testing.T) {
	target := &vmprog.Instruction{Opcode: vmprog.NOP}
	jump := &vmprog.Instruction{Opcode: vmprog.JUMP, Args: []interface{}{"label"}, Next: target}
	instrs := []*vmprog.Instruction{jump, target}

	var buf strings.Builder
	if err := Disassemble(instrs, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "-> 1") {
		t.Fatalf("expected jump target index 1 in output: %q", buf.String())
	}
}

func TestDisassembleCallShowsBothTargets(t *testing.T) {
	callee := &vmprog.Instruction{Opcode: vmprog.NOP}
	returnSite := &vmprog.Instruction{Opcode: vmprog.TERMINATE}
	call := &vmprog.Instruction{Opcode: vmprog.CALL, Args: []interface{}{1}, Next: callee, AltNext: returnSite}
	instrs := []*vmprog.Instruction{call, callee, returnSite}

	var buf strings.Builder
	if err := Disassemble(instrs, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "-> 1") || !strings.Contains(out, "alt -> 2") {
		t.Fatalf("expected both call targets in output: %q", out)
	}
}
