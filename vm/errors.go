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

import "github.com/sixtyfive/il65/vmprog"

// TerminateExecution is returned by Run when the program hits a TERMINATE
// instruction; it is a normal, clean exit, not a failure.
type TerminateExecution struct {
	Reason string
}

func (e *TerminateExecution) Error() string {
	if e.Reason == "" {
		return "execution terminated"
	}
	return "execution terminated: " + e.Reason
}

// ExecutionError wraps any other runtime failure with the instruction that
// triggered it, for the debug-stack dump in Run.
type ExecutionError struct {
	Msg         string
	Instruction *vmprog.Instruction
}

func (e *ExecutionError) Error() string {
	return e.Msg
}

// OverflowError is raised by an arithmetic opcode whose result does not
// fit the destination's datatype range (§4.5: BYTE/WORD wrap, SBYTE/SWORD
// range-check and fail).
type OverflowError struct {
	Msg string
}

func (e *OverflowError) Error() string { return e.Msg }

// TypeError is raised by an opcode handler given an operand of the wrong
// runtime type (e.g. mixing FLOAT into a non-FLOAT left operand).
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }
