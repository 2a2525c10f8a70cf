package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/asm"
	"github.com/sixtyfive/il65/parser"
	"github.com/sixtyfive/il65/vm"
	"github.com/sixtyfive/il65/vmlink"
	"github.com/sixtyfive/il65/vmprog"
	"github.com/sixtyfive/il65/vmsys"
)

var (
	noRawIO   bool
	dump      bool
	disasm    bool
	execStats bool
	zpAddr    int
)

func setupIO() (raw bool, tearDown func()) {
	if noRawIO {
		return false, nil
	}
	var err error
	tearDown, err = setRawIO()
	if err != nil {
		return false, nil
	}
	return true, tearDown
}

func atExit(i *vm.Instance, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	if dump && i != nil {
		fmt.Fprint(os.Stderr, i.DebugStack(8))
	}
	os.Exit(1)
}

func compileAndLink(path string) (main, timer []*vmprog.Instruction, variables map[string]*vmprog.Variable, labels map[string]*vmprog.Instruction, err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "reading source")
	}
	p, err := parser.New(path, src)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "initializing lexer")
	}
	mod, err := p.Parse()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	prog, err := CompileModule(mod)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "compiling")
	}
	var timerProg *vmprog.Program
	mainInstrs, timerInstrs, vars, lbls, err := vmlink.FlattenPrograms(prog, timerProg)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "flattening")
	}
	if err := vmlink.Link(mainInstrs, lbls); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "linking main program")
	}
	if len(timerInstrs) > 0 {
		if err := vmlink.Link(timerInstrs, lbls); err != nil {
			return nil, nil, nil, nil, errors.Wrap(err, "linking timer program")
		}
	}
	return mainInstrs, timerInstrs, vars, lbls, nil
}

func main() {
	var err error
	var instance *vm.Instance

	flag.BoolVar(&noRawIO, "noraw", false, "disable raw terminal IO")
	flag.BoolVar(&dump, "dump", false, "dump the stack and last popped values upon an execution error")
	flag.BoolVar(&disasm, "disasm", false, "print the linked main program's disassembly instead of running it")
	flag.BoolVar(&execStats, "stats", false, "print execution statistics upon exit")
	flag.IntVar(&zpAddr, "zp-addr", vmsys.DefaultCharOutAddress, "base address of the memory-mapped screen/keyboard region")
	flag.Parse()

	defer func() { atExit(instance, err) }()

	if flag.NArg() != 1 {
		err = errors.New("usage: il65 [flags] <source.il65>")
		return
	}

	var mainInstrs, timerInstrs []*vmprog.Instruction
	var variables map[string]*vmprog.Variable
	var labels map[string]*vmprog.Instruction
	mainInstrs, timerInstrs, variables, labels, err = compileAndLink(flag.Arg(0))
	if err != nil {
		return
	}

	if disasm {
		err = asm.Disassemble(mainInstrs, os.Stdout)
		return
	}

	_, tearDown := setupIO()
	if tearDown != nil {
		defer tearDown()
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	stdin := bufio.NewReader(os.Stdin)

	mem := vmsys.NewMemory()
	mem.MemMappedCharOut(zpAddr, func(b byte) { stdout.WriteByte(b) })
	mem.MemMappedCharIn(zpAddr+1, func() byte {
		b, _ := stdin.ReadByte()
		return b
	})

	sys := vmsys.NewSystem(mem, vmsys.NewLatin1Codec(), stdout, stdin)

	instance, err = vm.New(mainInstrs, timerInstrs, variables, labels, vm.System(sys))
	if err != nil {
		return
	}

	start := time.Now()
	err = instance.Run()
	if err != nil {
		return
	}
	stdout.Flush()
	if execStats {
		delta := time.Since(start)
		fmt.Fprintf(os.Stderr, "Executed %d instructions in %v (%.3f MHz).\n", instance.InstructionCount(), delta,
			float64(instance.InstructionCount())/float64(delta)*float64(time.Second)/1e6)
	}
}
