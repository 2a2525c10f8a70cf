package vmlink

import (
	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/vmprog"
)

func blockPrefix(b *vmprog.Block) string {
	if b.Parent != nil {
		return blockPrefix(b.Parent) + "." + b.Name
	}
	return b.Name
}

// flatten recursively appends block's own instructions (with string-typed
// arguments rewritten to their dotted path, SYSCALL instructions exempted
// since their first argument is a selector, not a name) to a flat list,
// registers its variables and labels into the running maps under their
// dotted names, then appends every subblock's flattened instructions in
// turn (§4.4 step 1).
func flatten(block *vmprog.Block, variables map[string]*vmprog.Variable, labels map[string]*vmprog.Instruction) ([]*vmprog.Instruction, error) {
	prefix := blockPrefix(block)
	instructions := make([]*vmprog.Instruction, len(block.Instructions))
	copy(instructions, block.Instructions)

	for _, ins := range instructions {
		if ins.Opcode == vmprog.SYSCALL || len(ins.Args) == 0 {
			continue
		}
		newArgs := make([]interface{}, len(ins.Args))
		for i, a := range ins.Args {
			if s, ok := a.(string); ok {
				newArgs[i] = prefix + "." + s
			} else {
				newArgs[i] = a
			}
		}
		ins.Args = newArgs
	}

	for _, v := range block.Variables {
		vname := prefix + "." + v.Name
		if _, dup := variables[vname]; dup {
			return nil, errors.Errorf("variable %q already defined", vname)
		}
		variables[vname] = v
	}
	for name, instr := range block.Labels {
		lname := prefix + "." + name
		if _, dup := labels[lname]; dup {
			return nil, errors.Errorf("label %q already defined", lname)
		}
		labels[lname] = instr
	}
	for _, sub := range block.Blocks {
		subInstrs, err := flatten(sub, variables, labels)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, subInstrs...)
	}
	return instructions, nil
}

// FlattenPrograms flattens both the main and timer programs into linear
// instruction lists sharing one variable map and one label map, appending
// a trailing TERMINATE to the main list (§4.4 steps 1-2). A nil timer is
// treated as an empty Program.
func FlattenPrograms(main, timer *vmprog.Program) (mainInstrs, timerInstrs []*vmprog.Instruction, variables map[string]*vmprog.Variable, labels map[string]*vmprog.Instruction, err error) {
	variables = make(map[string]*vmprog.Variable)
	labels = make(map[string]*vmprog.Instruction)

	for _, b := range main.Blocks {
		flat, ferr := flatten(b, variables, labels)
		if ferr != nil {
			return nil, nil, nil, nil, errors.Wrap(ferr, "flattening main program")
		}
		mainInstrs = append(mainInstrs, flat...)
	}
	mainInstrs = append(mainInstrs, &vmprog.Instruction{Opcode: vmprog.TERMINATE})

	if timer != nil {
		for _, b := range timer.Blocks {
			flat, ferr := flatten(b, variables, labels)
			if ferr != nil {
				return nil, nil, nil, nil, errors.Wrap(ferr, "flattening timer program")
			}
			timerInstrs = append(timerInstrs, flat...)
		}
	}
	return mainInstrs, timerInstrs, variables, labels, nil
}
