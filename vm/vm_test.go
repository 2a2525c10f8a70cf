package vm

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sixtyfive/il65/types"
	"github.com/sixtyfive/il65/vmprog"
	"github.com/sixtyfive/il65/vmsys"
)

// link wires up Next/AltNext for a straight-line sequence (no branches),
// appending a trailing TERMINATE -- enough to drive the opcode handlers
// directly without going through vmlink for these unit tests.
func link(instrs []*vmprog.Instruction) []*vmprog.Instruction {
	instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.TERMINATE})
	for i := 0; i < len(instrs)-1; i++ {
		instrs[i].Next = instrs[i+1]
	}
	return instrs
}

func TestRunPushAddPop(t *testing.T) {
	vars := map[string]*vmprog.Variable{
		"a":      {Name: "a", Type: types.BYTE, Value: vmprog.NewByte(10)},
		"b":      {Name: "b", Type: types.BYTE, Value: vmprog.NewByte(20)},
		"result": {Name: "result", Type: types.BYTE},
	}
	instrs := link([]*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{"a"}},
		{Opcode: vmprog.PUSH, Args: []interface{}{"b"}},
		{Opcode: vmprog.ADD},
		{Opcode: vmprog.POP, Args: []interface{}{"result"}},
	})
	i, err := New(instrs, nil, vars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Run(); err != nil {
		t.Fatal(err)
	}
	if got := vars["result"].Value.I; got != 30 {
		t.Fatalf("got %d, want 30", got)
	}
}

func TestRunByteOverflowWraps(t *testing.T) {
	vars := map[string]*vmprog.Variable{
		"a":      {Name: "a", Type: types.BYTE, Value: vmprog.NewByte(250)},
		"b":      {Name: "b", Type: types.BYTE, Value: vmprog.NewByte(10)},
		"result": {Name: "result", Type: types.BYTE},
	}
	instrs := link([]*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{"a"}},
		{Opcode: vmprog.PUSH, Args: []interface{}{"b"}},
		{Opcode: vmprog.ADD},
		{Opcode: vmprog.POP, Args: []interface{}{"result"}},
	})
	i, err := New(instrs, nil, vars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Run(); err != nil {
		t.Fatal(err)
	}
	if got := vars["result"].Value.I; got != 4 { // (250+10) mod 256
		t.Fatalf("got %d, want 4", got)
	}
}

func TestRunSByteOverflowFails(t *testing.T) {
	vars := map[string]*vmprog.Variable{
		"a": {Name: "a", Type: types.SBYTE, Value: vmprog.NewSByte(120)},
		"b": {Name: "b", Type: types.SBYTE, Value: vmprog.NewSByte(10)},
	}
	instrs := link([]*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{"a"}},
		{Opcode: vmprog.PUSH, Args: []interface{}{"b"}},
		{Opcode: vmprog.ADD},
	})
	i, err := New(instrs, nil, vars, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = i.Run()
	if _, ok := err.(*OverflowError); !ok {
		t.Fatalf("expected *OverflowError, got %v (%T)", err, err)
	}
}

func TestRunMixingFloatIntoNonFloatFails(t *testing.T) {
	vars := map[string]*vmprog.Variable{
		"a": {Name: "a", Type: types.BYTE, Value: vmprog.NewByte(1)},
		"b": {Name: "b", Type: types.FLOAT, Value: vmprog.NewFloat(2.5)},
	}
	instrs := link([]*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{"a"}},
		{Opcode: vmprog.PUSH, Args: []interface{}{"b"}},
		{Opcode: vmprog.ADD},
	})
	i, err := New(instrs, nil, vars, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = i.Run()
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %v (%T)", err, err)
	}
}

func TestRunCallAndReturn(t *testing.T) {
	// main: PUSH 5, CALL sub(1 arg, returns via RETURN 1), POP result
	// sub:  RETURN 1 (just echoes its single argument back as its return value)
	vars := map[string]*vmprog.Variable{
		"five":   {Name: "five", Type: types.BYTE, Value: vmprog.NewByte(5)},
		"result": {Name: "result", Type: types.BYTE},
	}
	subEntry := &vmprog.Instruction{Opcode: vmprog.RETURN, Args: []interface{}{1}}
	callIns := &vmprog.Instruction{Opcode: vmprog.CALL, Args: []interface{}{1}, Next: subEntry}
	pushIns := &vmprog.Instruction{Opcode: vmprog.PUSH, Args: []interface{}{"five"}, Next: callIns}
	popIns := &vmprog.Instruction{Opcode: vmprog.POP, Args: []interface{}{"result"}}
	terminate := &vmprog.Instruction{Opcode: vmprog.TERMINATE}
	callIns.AltNext = popIns
	popIns.Next = terminate

	i, err := New([]*vmprog.Instruction{pushIns}, nil, vars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Run(); err != nil {
		t.Fatal(err)
	}
	if got := vars["result"].Value.I; got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestRunSyscallPrintstr(t *testing.T) {
	var out bytes.Buffer
	sys := vmsys.NewSystem(vmsys.NewMemory(), vmsys.NewLatin1Codec(), &out, strings.NewReader(""))
	vars := map[string]*vmprog.Variable{
		"msg": {Name: "msg", Type: types.ARRAY_BYTE, Value: vmprog.NewByteArray([]byte("hi"))},
	}
	instrs := link([]*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{"msg"}},
		{Opcode: vmprog.SYSCALL, Args: []interface{}{"printstr"}},
	})
	i, err := New(instrs, nil, vars, nil, System(sys))
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Run(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hi" {
		t.Fatalf("got %q, want hi", out.String())
	}
}

func TestRunTimerProgramInterleaves(t *testing.T) {
	vars := map[string]*vmprog.Variable{
		"ticks": {Name: "ticks", Type: types.BYTE, Value: vmprog.NewByte(0)},
		"one":   {Name: "one", Type: types.BYTE, Value: vmprog.NewByte(1)},
	}
	timerInstrs := link([]*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{"ticks"}},
		{Opcode: vmprog.PUSH, Args: []interface{}{"one"}},
		{Opcode: vmprog.ADD},
		{Opcode: vmprog.POP, Args: []interface{}{"ticks"}},
	})
	// main just spins long enough for at least one timer interleave to fire.
	var mainInstrs []*vmprog.Instruction
	nop := &vmprog.Instruction{Opcode: vmprog.NOP}
	terminate := &vmprog.Instruction{Opcode: vmprog.TERMINATE}
	nop.Next = terminate
	mainInstrs = append(mainInstrs, nop)

	i, err := New(mainInstrs, timerInstrs, vars, nil, TimerResolution(time.Nanosecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Run(); err != nil {
		t.Fatal(err)
	}
	if got := vars["ticks"].Value.I; got != 1 {
		t.Fatalf("got %d, want 1 (timer program should have run once)", got)
	}
}

func TestCheckDispatchCompletenessCoversEveryOpcode(t *testing.T) {
	if err := checkDispatchCompleteness(); err != nil {
		t.Fatal(err)
	}
}
