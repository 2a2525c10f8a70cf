// This file is part of ngaro - https://github.com/db47h/ngaro
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"github.com/sixtyfive/il65/types"
	"github.com/sixtyfive/il65/vmprog"
)

// handler executes one instruction and reports whether the caller should
// advance pc to ins.Next (true) or leave pc as the handler itself already
// set it (false) -- mirroring the original's opcode_* return-bool
// convention for CALL/RETURN/JUMP_IF_TRUE/JUMP_IF_FALSE, which redirect pc
// themselves.
type handler func(i *Instance, ins *vmprog.Instruction) (advance bool, err error)

var dispatchTable map[vmprog.Opcode]handler

func init() {
	dispatchTable = map[vmprog.Opcode]handler{
		vmprog.TERMINATE:          opTerminate,
		vmprog.NOP:                opNop,
		vmprog.PUSH:               opPush,
		vmprog.PUSH2:              opPush2,
		vmprog.PUSH3:              opPush3,
		vmprog.POP:                opPop,
		vmprog.POP2:               opPop2,
		vmprog.POP3:               opPop3,
		vmprog.DUP:                opDup,
		vmprog.DUP2:               opDup2,
		vmprog.SWAP:               opSwap,
		vmprog.ADD:                opAdd,
		vmprog.SUB:                opSub,
		vmprog.MUL:                opMul,
		vmprog.DIV:                opDiv,
		vmprog.AND:                opAnd,
		vmprog.OR:                 opOr,
		vmprog.XOR:                opXor,
		vmprog.NOT:                opNot,
		vmprog.TEST:               opTest,
		vmprog.CMP_EQ:             opCmpEQ,
		vmprog.CMP_LT:             opCmpLT,
		vmprog.CMP_GT:             opCmpGT,
		vmprog.CMP_LTE:            opCmpLTE,
		vmprog.CMP_GTE:            opCmpGTE,
		vmprog.CALL:               opCall,
		vmprog.RETURN:             opReturn,
		vmprog.SYSCALL:            opSyscall,
		vmprog.JUMP:               opJump,
		vmprog.JUMP_IF_TRUE:       opJumpIfTrue,
		vmprog.JUMP_IF_FALSE:      opJumpIfFalse,
		vmprog.JUMP_IF_STATUS_ZERO: opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_NE:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_EQ:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_CC:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_CS:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_VC:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_VS:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_GE:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_LE:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_GT:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_LT:  opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_POS: opJumpIfStatusUnsupported,
		vmprog.JUMP_IF_STATUS_NEG: opJumpIfStatusUnsupported,
	}
}

// checkDispatchCompleteness verifies every vmprog.Opcode has a dispatch
// entry, mirroring the original VM.__init__'s assertion over the Opcode
// enum before it would accept running a program.
func checkDispatchCompleteness() error {
	for _, oc := range vmprog.AllOpcodes {
		if _, ok := dispatchTable[oc]; !ok {
			return &ExecutionError{Msg: "missing opcode dispatch for " + oc.String()}
		}
	}
	return nil
}

func opNop(i *Instance, ins *vmprog.Instruction) (bool, error) { return true, nil }

func opTerminate(i *Instance, ins *vmprog.Instruction) (bool, error) {
	return false, &TerminateExecution{}
}

func (i *Instance) variable(name string) (*vmprog.Variable, error) {
	v, ok := i.variables[name]
	if !ok {
		return nil, &ExecutionError{Msg: "undefined variable: " + name}
	}
	return v, nil
}

func assignVariable(v *vmprog.Variable, value vmprog.Value) error {
	if v.Const {
		return &ExecutionError{Msg: "cannot modify a const variable: " + v.Name}
	}
	v.Value = value
	return nil
}

func opPush(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v, err := i.variable(ins.StringArg(0))
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(v.Value)
}

func opPush2(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v1, err := i.variable(ins.StringArg(0))
	if err != nil {
		return false, err
	}
	v2, err := i.variable(ins.StringArg(1))
	if err != nil {
		return false, err
	}
	return true, i.stack.Push2(v1.Value, v2.Value)
}

func opPush3(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v1, err := i.variable(ins.StringArg(0))
	if err != nil {
		return false, err
	}
	v2, err := i.variable(ins.StringArg(1))
	if err != nil {
		return false, err
	}
	v3, err := i.variable(ins.StringArg(2))
	if err != nil {
		return false, err
	}
	return true, i.stack.Push3(v1.Value, v2.Value, v3.Value)
}

func opPop(i *Instance, ins *vmprog.Instruction) (bool, error) {
	value, err := popValue(i.stack)
	if err != nil {
		return false, err
	}
	v, err := i.variable(ins.StringArg(0))
	if err != nil {
		return false, err
	}
	return true, assignVariable(v, value)
}

func opPop2(i *Instance, ins *vmprog.Instruction) (bool, error) {
	value1, value2, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	v1, err := i.variable(ins.StringArg(0))
	if err != nil {
		return false, err
	}
	if err := assignVariable(v1, value1); err != nil {
		return false, err
	}
	v2, err := i.variable(ins.StringArg(1))
	if err != nil {
		return false, err
	}
	return true, assignVariable(v2, value2)
}

func opPop3(i *Instance, ins *vmprog.Instruction) (bool, error) {
	item1, item2, item3, err := i.stack.Pop3()
	if err != nil {
		return false, &ExecutionError{Msg: err.Error()}
	}
	values := [3]vmprog.Value{}
	for idx, item := range []vmprog.StackItem{item1, item2, item3} {
		v, ok := item.(vmprog.Value)
		if !ok {
			return false, &TypeError{Msg: "expected a value on the stack, found a call frame marker"}
		}
		values[idx] = v
	}
	for idx := 0; idx < 3; idx++ {
		v, err := i.variable(ins.StringArg(idx))
		if err != nil {
			return false, err
		}
		if err := assignVariable(v, values[idx]); err != nil {
			return false, err
		}
	}
	return true, nil
}

func opDup(i *Instance, ins *vmprog.Instruction) (bool, error) {
	top := i.stack.Peek()
	if top == nil {
		return false, &ExecutionError{Msg: "dup on empty stack"}
	}
	return true, i.stack.Push(top)
}

func opDup2(i *Instance, ins *vmprog.Instruction) (bool, error) {
	top := i.stack.Peek()
	if top == nil {
		return false, &ExecutionError{Msg: "dup2 on empty stack"}
	}
	if err := i.stack.Push(top); err != nil {
		return false, err
	}
	return true, i.stack.Push(top)
}

func opSwap(i *Instance, ins *vmprog.Instruction) (bool, error) {
	return true, i.stack.Swap()
}

func opAdd(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	result, err := addValues(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(result)
}

func opSub(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	result, err := subValues(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(result)
}

func opMul(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	result, err := mulValues(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(result)
}

func opDiv(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	result, err := divValues(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(result)
}

func opAnd(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(first.Truthy() && second.Truthy()))
}

func opOr(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(first.Truthy() || second.Truthy()))
}

func opXor(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(first.Truthy() != second.Truthy()))
}

func opNot(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v, err := popValue(i.stack)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(!v.Truthy()))
}

func opTest(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v, err := popValue(i.stack)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(v.Truthy()))
}

func compareNumeric(first, second vmprog.Value) (int, error) {
	if first.Type == types.FLOAT || second.Type == types.FLOAT {
		if first.Type != second.Type {
			return 0, &TypeError{Msg: "cannot compare FLOAT with a non-FLOAT operand"}
		}
		switch {
		case first.F < second.F:
			return -1, nil
		case first.F > second.F:
			return 1, nil
		default:
			return 0, nil
		}
	}
	switch {
	case first.I < second.I:
		return -1, nil
	case first.I > second.I:
		return 1, nil
	default:
		return 0, nil
	}
}

func opCmpEQ(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	cmp, err := compareNumeric(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(cmp == 0))
}

func opCmpLT(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	cmp, err := compareNumeric(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(cmp < 0))
}

func opCmpGT(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	cmp, err := compareNumeric(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(cmp > 0))
}

func opCmpLTE(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	cmp, err := compareNumeric(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(cmp <= 0))
}

func opCmpGTE(i *Instance, ins *vmprog.Instruction) (bool, error) {
	second, first, err := pop2Values(i.stack)
	if err != nil {
		return false, err
	}
	cmp, err := compareNumeric(first, second)
	if err != nil {
		return false, err
	}
	return true, i.stack.Push(vmprog.NewBool(cmp >= 0))
}

func opCall(i *Instance, ins *vmprog.Instruction) (bool, error) {
	numArgs := ins.IntArg(0)
	marker := vmprog.CallFrameMarker{ReturnInstruction: ins.AltNext}
	if err := i.stack.PushUnder(numArgs, marker); err != nil {
		return false, &ExecutionError{Msg: err.Error()}
	}
	return true, nil
}

func opReturn(i *Instance, ins *vmprog.Instruction) (bool, error) {
	numReturnValues := ins.IntArg(0)
	item, err := i.stack.PopUnder(numReturnValues)
	if err != nil {
		return false, &ExecutionError{Msg: err.Error()}
	}
	marker, ok := item.(vmprog.CallFrameMarker)
	if !ok {
		return false, &ExecutionError{Msg: "RETURN found no call frame marker on the stack"}
	}
	i.pc = marker.ReturnInstruction
	return false, nil
}

func opSyscall(i *Instance, ins *vmprog.Instruction) (bool, error) {
	name := ins.StringArg(0)
	if i.sys == nil {
		return false, &ExecutionError{Msg: "no syscall collaborator wired for: " + name}
	}
	unknown, err := i.sys.Invoke(name, i.stack)
	if unknown {
		return false, &ExecutionError{Msg: "no syscall method for " + name}
	}
	if err != nil {
		return false, &ExecutionError{Msg: err.Error()}
	}
	return true, nil
}

func opJump(i *Instance, ins *vmprog.Instruction) (bool, error) {
	return true, nil // ins.Next already points at the jump target
}

func opJumpIfTrue(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v, err := popValue(i.stack)
	if err != nil {
		return false, err
	}
	if v.Truthy() {
		i.pc = ins.AltNext
		return false, nil
	}
	return true, nil
}

func opJumpIfFalse(i *Instance, ins *vmprog.Instruction) (bool, error) {
	v, err := popValue(i.stack)
	if err != nil {
		return false, err
	}
	if v.Truthy() {
		return true, nil
	}
	i.pc = ins.AltNext
	return false, nil
}

func opJumpIfStatusUnsupported(i *Instance, ins *vmprog.Instruction) (bool, error) {
	return false, &ExecutionError{Msg: "unsupported status-flag jump: " + ins.Opcode.String()}
}
