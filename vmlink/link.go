package vmlink

import (
	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/vmprog"
)

// Link walks instructions pairwise, wiring Next/AltNext per opcode kind
// (§4.4 step 3):
//
//   - JUMP_IF_TRUE / JUMP_IF_FALSE: Next is the textual successor
//     (fall-through), AltNext is the resolved label target;
//   - JUMP: Next is the resolved label target;
//   - CALL: Next is the resolved callee label, AltNext is the textual
//     successor (the return site);
//   - everything else: Next is the textual successor (nil at the end of
//     the list).
func Link(instructions []*vmprog.Instruction, labels map[string]*vmprog.Instruction) error {
	for i, ins := range instructions {
		var nexti *vmprog.Instruction
		if i+1 < len(instructions) {
			nexti = instructions[i+1]
		}
		switch ins.Opcode {
		case vmprog.JUMP_IF_TRUE, vmprog.JUMP_IF_FALSE:
			ins.Next = nexti
			target, ok := labels[ins.StringArg(0)]
			if !ok {
				return errors.Errorf("undefined label %q", ins.StringArg(0))
			}
			ins.AltNext = target
		case vmprog.JUMP:
			target, ok := labels[ins.StringArg(0)]
			if !ok {
				return errors.Errorf("undefined label %q", ins.StringArg(0))
			}
			ins.Next = target
		case vmprog.CALL:
			target, ok := labels[ins.StringArg(1)]
			if !ok {
				return errors.Errorf("undefined label %q", ins.StringArg(1))
			}
			ins.Next = target
			ins.AltNext = nexti
		default:
			ins.Next = nexti
		}
	}
	return nil
}
