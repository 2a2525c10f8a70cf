package vmsys

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/internal/vmio"
	"github.com/sixtyfive/il65/types"
	"github.com/sixtyfive/il65/vmprog"
)

// System is the VM's syscall collaborator (§4.6): printstr/printchr/
// input/getchr/decimal+hex formatters/memwrite per type/memread byte/delay,
// plus the string codec and the memory-mapped I/O it sits on top of. A
// SYSCALL instruction's handler in the vm package looks up "syscall_<name>"
// equivalent here by calling Invoke.
type System struct {
	Memory *Memory
	Codec  *StringCodec

	out *vmio.ErrWriter
	in  *vmio.LineReader

	Screen *Screen
}

// NewSystem wires a System atop mem using codec for string decode/encode,
// out for printstr/printchr, and in for input/getchr.
func NewSystem(mem *Memory, codec *StringCodec, out io.Writer, in io.Reader) *System {
	return &System{
		Memory: mem,
		Codec:  codec,
		out:    vmio.NewErrWriter(out),
		in:     vmio.NewLineReader(in),
	}
}

// Invoke dispatches a SYSCALL instruction's selector to the matching
// method, popping/pushing stack as needed. It reports (unknownSelector)
// separately from execution errors so the vm package can turn an unknown
// selector into its own typed error.
func (s *System) Invoke(name string, stack *vmprog.Stack) (unknownSelector bool, err error) {
	fn, ok := syscallTable[name]
	if !ok {
		return true, nil
	}
	return false, fn(s, stack)
}

var syscallTable = map[string]func(*System, *vmprog.Stack) error{
	"printstr":            (*System).syscallPrintstr,
	"printchr":            (*System).syscallPrintchr,
	"input":               (*System).syscallInput,
	"getchr":              (*System).syscallGetchr,
	"decimalstr_signed":   (*System).syscallDecimalStrSigned,
	"decimalstr_unsigned": (*System).syscallDecimalStrUnsigned,
	"hexstr_signed":       (*System).syscallHexStrSigned,
	"hexstr_unsigned":     (*System).syscallHexStrUnsigned,
	"memwrite_byte":       (*System).syscallMemwriteByte,
	"memwrite_sbyte":      (*System).syscallMemwriteSByte,
	"memwrite_word":       (*System).syscallMemwriteWord,
	"memwrite_sword":      (*System).syscallMemwriteSWord,
	"memwrite_float":      (*System).syscallMemwriteFloat,
	"memwrite_str":        (*System).syscallMemwriteStr,
	"memread_byte":        (*System).syscallMemreadByte,
	"smalldelay":          (*System).syscallSmallDelay,
	"delay":               (*System).syscallDelay,
}

func popValue(stack *vmprog.Stack) (vmprog.Value, error) {
	item, err := stack.Pop()
	if err != nil {
		return vmprog.Value{}, err
	}
	v, ok := item.(vmprog.Value)
	if !ok {
		return vmprog.Value{}, errors.Errorf("expected a Value on the stack, got %T", item)
	}
	return v, nil
}

func (s *System) syscallPrintstr(stack *vmprog.Stack) error {
	v, err := popValue(stack)
	if err != nil {
		return err
	}
	if v.Type != types.ARRAY_BYTE {
		return errors.Errorf("printstr expects ARRAY_BYTE, got %s", v.Type)
	}
	_, err = s.out.Write([]byte(s.Codec.Decode(v.Bytes)))
	return err
}

func (s *System) syscallPrintchr(stack *vmprog.Stack) error {
	v, err := popValue(stack)
	if err != nil {
		return err
	}
	if v.Type != types.BYTE {
		return errors.Errorf("printchr expects BYTE, got %s", v.Type)
	}
	_, err = s.out.Write([]byte(s.Codec.Decode([]byte{byte(v.I)})))
	return err
}

func (s *System) syscallInput(stack *vmprog.Stack) error {
	line, err := s.in.ReadLine()
	if err != nil {
		return err
	}
	return stack.Push(vmprog.NewByteArray(s.Codec.Encode(line)))
}

func (s *System) syscallGetchr(stack *vmprog.Stack) error {
	line, err := s.in.ReadLine()
	if err != nil {
		return err
	}
	encoded := s.Codec.Encode(line + "\n")
	if len(encoded) == 0 {
		return stack.Push(vmprog.NewByte(0))
	}
	return stack.Push(vmprog.NewByte(encoded[0]))
}

func (s *System) syscallDecimalStrSigned(stack *vmprog.Stack) error {
	v, err := popValue(stack)
	if err != nil {
		return err
	}
	if v.Type != types.SBYTE && v.Type != types.SWORD {
		return errors.Errorf("decimalstr_signed expects a signed integer, got %s", v.Type)
	}
	return stack.Push(vmprog.NewByteArray(s.Codec.Encode(fmt.Sprintf("%d", v.I))))
}

func (s *System) syscallDecimalStrUnsigned(stack *vmprog.Stack) error {
	v, err := popValue(stack)
	if err != nil {
		return err
	}
	if v.Type != types.BYTE && v.Type != types.WORD {
		return errors.Errorf("decimalstr_unsigned expects an unsigned integer, got %s", v.Type)
	}
	return stack.Push(vmprog.NewByteArray(s.Codec.Encode(fmt.Sprintf("%d", v.I))))
}

func (s *System) syscallHexStrSigned(stack *vmprog.Stack) error {
	v, err := popValue(stack)
	if err != nil {
		return err
	}
	if v.Type != types.SBYTE && v.Type != types.SWORD {
		return errors.Errorf("hexstr_signed expects a signed integer, got %s", v.Type)
	}
	var str string
	if v.I < 0 {
		str = fmt.Sprintf("-$%x", -v.I)
	} else {
		str = fmt.Sprintf("$%x", v.I)
	}
	return stack.Push(vmprog.NewByteArray(s.Codec.Encode(str)))
}

func (s *System) syscallHexStrUnsigned(stack *vmprog.Stack) error {
	v, err := popValue(stack)
	if err != nil {
		return err
	}
	if v.Type != types.BYTE && v.Type != types.WORD {
		return errors.Errorf("hexstr_unsigned expects an unsigned integer, got %s", v.Type)
	}
	return stack.Push(vmprog.NewByteArray(s.Codec.Encode(fmt.Sprintf("$%x", v.I))))
}

func (s *System) syscallMemwriteByte(stack *vmprog.Stack) error {
	value, address, err := pop2Values(stack)
	if err != nil {
		return err
	}
	if value.Type != types.BYTE || address.Type != types.WORD {
		return errors.New("memwrite_byte expects (BYTE, WORD)")
	}
	return s.Memory.SetByte(int(address.I), byte(value.I))
}

func (s *System) syscallMemwriteSByte(stack *vmprog.Stack) error {
	value, address, err := pop2Values(stack)
	if err != nil {
		return err
	}
	if value.Type != types.SBYTE || address.Type != types.WORD {
		return errors.New("memwrite_sbyte expects (SBYTE, WORD)")
	}
	return s.Memory.SetSByte(int(address.I), int8(value.I))
}

func (s *System) syscallMemwriteWord(stack *vmprog.Stack) error {
	value, address, err := pop2Values(stack)
	if err != nil {
		return err
	}
	if (value.Type != types.WORD && value.Type != types.BYTE) || address.Type != types.WORD {
		return errors.New("memwrite_word expects (WORD|BYTE, WORD)")
	}
	return s.Memory.SetWord(int(address.I), uint16(value.I))
}

func (s *System) syscallMemwriteSWord(stack *vmprog.Stack) error {
	value, address, err := pop2Values(stack)
	if err != nil {
		return err
	}
	switch value.Type {
	case types.SWORD, types.SBYTE, types.BYTE:
	default:
		return errors.New("memwrite_sword expects (SWORD|SBYTE|BYTE, WORD)")
	}
	if address.Type != types.WORD {
		return errors.New("memwrite_sword expects a WORD address")
	}
	return s.Memory.SetSWord(int(address.I), int16(value.I))
}

func (s *System) syscallMemwriteFloat(stack *vmprog.Stack) error {
	value, address, err := pop2Values(stack)
	if err != nil {
		return err
	}
	if value.Type != types.FLOAT || address.Type != types.WORD {
		return errors.New("memwrite_float expects (FLOAT, WORD)")
	}
	return s.Memory.SetFloat(int(address.I), value.F)
}

func (s *System) syscallMemwriteStr(stack *vmprog.Stack) error {
	strval, address, err := pop2Values(stack)
	if err != nil {
		return err
	}
	if strval.Type != types.ARRAY_BYTE || address.Type != types.WORD {
		return errors.New("memwrite_str expects (ARRAY_BYTE, WORD)")
	}
	return s.Memory.SetBytes(int(address.I), strval.Bytes)
}

func (s *System) syscallMemreadByte(stack *vmprog.Stack) error {
	address, err := popValue(stack)
	if err != nil {
		return err
	}
	if address.Type != types.WORD {
		return errors.New("memread_byte expects a WORD address")
	}
	return stack.Push(vmprog.NewByte(s.Memory.GetByte(int(address.I))))
}

func (s *System) syscallSmallDelay(stack *vmprog.Stack) error {
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (s *System) syscallDelay(stack *vmprog.Stack) error {
	time.Sleep(100 * time.Millisecond)
	return nil
}

func pop2Values(stack *vmprog.Stack) (first, second vmprog.Value, err error) {
	a, b, err := stack.Pop2()
	if err != nil {
		return vmprog.Value{}, vmprog.Value{}, err
	}
	av, ok := a.(vmprog.Value)
	if !ok {
		return vmprog.Value{}, vmprog.Value{}, errors.Errorf("expected a Value, got %T", a)
	}
	bv, ok := b.(vmprog.Value)
	if !ok {
		return vmprog.Value{}, vmprog.Value{}, errors.Errorf("expected a Value, got %T", b)
	}
	return av, bv, nil
}
