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

package asm

import (
	"fmt"
	"io"
	"strings"

	"github.com/sixtyfive/il65/vmprog"
)

// Disassemble writes one line per instruction in instrs to w: its index,
// opcode, arguments, and -- for CALL/JUMP/JUMP_IF_TRUE/JUMP_IF_FALSE -- the
// index of its Next/AltNext targets, resolved against instrs itself
// (instructions reachable only via a label outside instrs, e.g. a CALL's
// callee living in a different flattened block, are rendered by address
// since they're not in the slice being disassembled).
func Disassemble(instrs []*vmprog.Instruction, w io.Writer) error {
	index := make(map[*vmprog.Instruction]int, len(instrs))
	for n, ins := range instrs {
		index[ins] = n
	}
	for n, ins := range instrs {
		line := formatInstruction(n, ins, index)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatInstruction(n int, ins *vmprog.Instruction, index map[*vmprog.Instruction]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d: %-16s", n, ins.Opcode.String())
	for i, a := range ins.Args {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v", a)
	}
	switch ins.Opcode {
	case vmprog.CALL:
		fmt.Fprintf(&b, "  ; -> %s, alt -> %s", target(ins.Next, index), target(ins.AltNext, index))
	case vmprog.JUMP, vmprog.JUMP_IF_TRUE, vmprog.JUMP_IF_FALSE:
		fmt.Fprintf(&b, "  ; -> %s", target(ins.Next, index))
		if ins.Opcode != vmprog.JUMP {
			fmt.Fprintf(&b, ", alt -> %s", target(ins.AltNext, index))
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func target(ins *vmprog.Instruction, index map[*vmprog.Instruction]int) string {
	if ins == nil {
		return "<nil>"
	}
	if n, ok := index[ins]; ok {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%p", ins)
}
