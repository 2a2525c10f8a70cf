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
	"time"

	"github.com/sixtyfive/il65/vmprog"
	"github.com/sixtyfive/il65/vmsys"
)

const timerIRQResolution = time.Second / 60

// Option configures an Instance at construction time.
type Option func(*Instance) error

// System installs the syscall/memory collaborator a SYSCALL instruction
// dispatches into.
func System(sys *vmsys.System) Option {
	return func(i *Instance) error { i.sys = sys; return nil }
}

// Screen installs the character-screen collaborator; when set, Run yields
// to it every 1000 steps the way the original's tkinter viewer needed the
// main loop to sleep briefly for its event loop to pump.
func Screen(scr *vmsys.Screen, onYield func()) Option {
	return func(i *Instance) error { i.screen = scr; i.onYield = onYield; return nil }
}

// TimerResolution overrides the default ~60Hz timer-program interleave
// interval, mainly for tests that want the timer to fire deterministically.
func TimerResolution(d time.Duration) Option {
	return func(i *Instance) error { i.timerResolution = d; return nil }
}

// Instance is one running (or not-yet-started) VM: a linked main program,
// an optional linked timer program, their shared variables, and the
// syscall collaborator SYSCALL instructions dispatch into.
type Instance struct {
	mainProgram  []*vmprog.Instruction
	timerProgram []*vmprog.Instruction
	variables    map[string]*vmprog.Variable
	labels       map[string]*vmprog.Instruction

	mainStack  *vmprog.Stack
	timerStack *vmprog.Stack

	program []*vmprog.Instruction
	stack   *vmprog.Stack
	pc      *vmprog.Instruction

	sys    *vmsys.System
	screen *vmsys.Screen
	onYield func()

	timerResolution time.Duration

	insCount int64
}

// New builds an Instance from the flattened, linked main and timer
// instruction streams and their shared variable/label tables (the output
// of vmlink.FlattenPrograms + vmlink.Link). Every Opcode must have a
// handler in dispatchTable, verified at construction the way the
// original's VM.__init__ asserted its dispatch_table covered every member
// of the Opcode enum.
func New(mainProgram, timerProgram []*vmprog.Instruction, variables map[string]*vmprog.Variable, labels map[string]*vmprog.Instruction, opts ...Option) (*Instance, error) {
	if err := checkDispatchCompleteness(); err != nil {
		return nil, err
	}
	i := &Instance{
		mainProgram:     mainProgram,
		timerProgram:    timerProgram,
		variables:       variables,
		labels:          labels,
		mainStack:       vmprog.NewStack(),
		timerStack:      vmprog.NewStack(),
		timerResolution: timerIRQResolution,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// InstructionCount returns the number of instructions executed so far,
// across both the main and timer programs.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}
