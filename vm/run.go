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
	"fmt"
	"time"

	"github.com/sixtyfive/il65/vmprog"
)

// Run starts the main program and interleaves the timer program at
// roughly 60Hz until a TERMINATE instruction ends execution cleanly (nil
// error) or an opcode handler returns an error.
//
// If the last instruction of the main program runs off the end (it always
// ends in a synthetic TERMINATE, per vmlink.FlattenPrograms), Run returns
// nil. Any other error leaves pc pointing at the instruction that
// triggered it, for DebugStack.
func (i *Instance) Run() (err error) {
	if len(i.mainProgram) == 0 {
		return nil
	}
	i.program = i.mainProgram
	i.stack = i.mainStack
	i.pc = i.mainProgram[0]
	if err := i.stack.Push(vmprog.CallFrameMarker{}); err != nil {
		return &ExecutionError{Msg: err.Error()}
	}

	counter := 0
	lastTimer := time.Now()
	for i.pc != nil {
		h, ok := dispatchTable[i.pc.Opcode]
		if !ok {
			return &ExecutionError{Msg: "missing opcode dispatch for " + i.pc.Opcode.String(), Instruction: i.pc}
		}
		advance, err := h(i, i.pc)
		if err != nil {
			if term, ok := err.(*TerminateExecution); ok {
				_ = term
				return nil
			}
			return err
		}
		if advance {
			i.pc = i.pc.Next
		}
		i.insCount++
		counter++

		if i.screen != nil && counter%1000 == 0 && i.onYield != nil {
			i.onYield()
		}

		if time.Since(lastTimer) > i.timerResolution {
			if err := i.timerIRQ(); err != nil {
				return err
			}
			lastTimer = time.Now()
		}
	}
	return nil
}

// timerIRQ runs the timer program to completion (it always ends with its
// own RETURN against the CallFrameMarker seeded below), halting the main
// program for its duration -- the two programs never run concurrently,
// matching §4.5's cooperative execution model.
func (i *Instance) timerIRQ() error {
	if len(i.timerProgram) == 0 {
		return nil
	}
	previousPC, previousProgram, previousStack := i.pc, i.program, i.stack
	i.stack = i.timerStack
	i.program = i.timerProgram
	i.pc = i.timerProgram[0]
	if err := i.stack.Push(vmprog.CallFrameMarker{}); err != nil {
		return &ExecutionError{Msg: err.Error()}
	}
	for i.pc != nil {
		h, ok := dispatchTable[i.pc.Opcode]
		if !ok {
			return &ExecutionError{Msg: "missing opcode dispatch for " + i.pc.Opcode.String(), Instruction: i.pc}
		}
		advance, err := h(i, i.pc)
		if err != nil {
			if _, ok := err.(*TerminateExecution); ok {
				break
			}
			return err
		}
		if advance {
			i.pc = i.pc.Next
		}
		i.insCount++
	}
	i.pc, i.program, i.stack = previousPC, previousProgram, previousStack
	return nil
}

// DebugStack renders the top `size` stack items and the last popped-item
// history, mirroring the original's debug_stack diagnostic dump on an
// execution error.
func (i *Instance) DebugStack(size int) string {
	var b []byte
	if i.stack == nil {
		return "** no active stack.\n"
	}
	top := i.stack.DebugPeek(size)
	if len(top) == 0 {
		b = append(b, "** stack is empty.\n"...)
	} else {
		b = append(b, fmt.Sprintf("** stack (top %d):\n", len(top))...)
		for n := len(top) - 1; n >= 0; n-- {
			b = append(b, fmt.Sprintf("  %d. %v\n", len(top)-n, top[n])...)
		}
	}
	history := i.stack.PopHistory()
	if len(history) > 0 {
		b = append(b, fmt.Sprintf("** last %d values popped from stack (most recent first):\n", len(history))...)
		for n := len(history) - 1; n >= 0; n-- {
			b = append(b, fmt.Sprintf("  %v\n", history[n])...)
		}
	}
	if i.pc != nil {
		b = append(b, fmt.Sprintf("* instruction: %v\n", i.pc.Opcode)...)
	}
	return string(b)
}
