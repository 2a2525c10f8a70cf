package vmprog

import "github.com/pkg/errors"

const popHistorySize = 10

// StackItem is whatever a Stack may hold: a Value or a CallFrameMarker.
// Pushing anything else is a bug in the caller and Push reports it as an
// error rather than silently accepting it (§4.5: "anything else is a bug
// and must raise").
type StackItem interface{}

// Stack is the VM's per-program value stack (§4.5). The main program and
// the timer program each own one; they are never shared.
type Stack struct {
	items   []StackItem
	history []StackItem // last popHistorySize popped items, oldest first
}

func NewStack() *Stack {
	return &Stack{}
}

func (s *Stack) typecheck(v StackItem) error {
	switch v.(type) {
	case Value, CallFrameMarker:
		return nil
	default:
		return errors.Errorf("invalid item type pushed onto stack: %T", v)
	}
}

func (s *Stack) Push(v StackItem) error {
	if err := s.typecheck(v); err != nil {
		return err
	}
	s.items = append(s.items, v)
	return nil
}

func (s *Stack) Push2(a, b StackItem) error {
	if err := s.Push(a); err != nil {
		return err
	}
	return s.Push(b)
}

func (s *Stack) Push3(a, b, c StackItem) error {
	if err := s.Push(a); err != nil {
		return err
	}
	if err := s.Push(b); err != nil {
		return err
	}
	return s.Push(c)
}

// PushUnder inserts v at depth `number` counted from the top (0 means the
// very top), used by CALL to slide a CallFrameMarker beneath the argument
// values already pushed.
func (s *Stack) PushUnder(number int, v StackItem) error {
	if err := s.typecheck(v); err != nil {
		return err
	}
	idx := len(s.items) - number
	s.items = append(s.items, nil)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = v
	return nil
}

func (s *Stack) recordPop(v StackItem) {
	s.history = append(s.history, v)
	if len(s.history) > popHistorySize {
		s.history = s.history[len(s.history)-popHistorySize:]
	}
}

func (s *Stack) Pop() (StackItem, error) {
	if len(s.items) == 0 {
		return nil, errors.New("pop from empty stack")
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	s.recordPop(v)
	return v, nil
}

func (s *Stack) Pop2() (first, second StackItem, err error) {
	// matches the original's pop2(): x, y = pop(), pop() -- x is the
	// topmost (most recently pushed) item, y the one beneath it.
	x, err := s.Pop()
	if err != nil {
		return nil, nil, err
	}
	y, err := s.Pop()
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func (s *Stack) Pop3() (first, second, third StackItem, err error) {
	x, err := s.Pop()
	if err != nil {
		return nil, nil, nil, err
	}
	y, err := s.Pop()
	if err != nil {
		return nil, nil, nil, err
	}
	z, err := s.Pop()
	if err != nil {
		return nil, nil, nil, err
	}
	return x, y, z, nil
}

// PopUnder removes and returns the item `number` slots beneath the top
// (used by RETURN to reclaim the CallFrameMarker beneath the return
// values).
func (s *Stack) PopUnder(number int) (StackItem, error) {
	idx := len(s.items) - 1 - number
	if idx < 0 || idx >= len(s.items) {
		return nil, errors.New("pop_under out of range")
	}
	v := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.recordPop(v)
	return v, nil
}

func (s *Stack) Peek() StackItem {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[len(s.items)-1]
}

func (s *Stack) Swap() error {
	n := len(s.items)
	if n < 2 {
		return errors.New("swap needs at least two items on the stack")
	}
	s.items[n-1], s.items[n-2] = s.items[n-2], s.items[n-1]
	return nil
}

func (s *Stack) Size() int { return len(s.items) }

// DebugPeek returns (a copy of) the top `size` items, for diagnostics.
func (s *Stack) DebugPeek(size int) []StackItem {
	if size > len(s.items) {
		size = len(s.items)
	}
	out := make([]StackItem, size)
	copy(out, s.items[len(s.items)-size:])
	return out
}

// PopHistory returns the last popHistorySize popped items, most recent
// last.
func (s *Stack) PopHistory() []StackItem {
	return s.history
}
