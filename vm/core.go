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

func popValue(stack *vmprog.Stack) (vmprog.Value, error) {
	item, err := stack.Pop()
	if err != nil {
		return vmprog.Value{}, &ExecutionError{Msg: err.Error()}
	}
	v, ok := item.(vmprog.Value)
	if !ok {
		return vmprog.Value{}, &TypeError{Msg: "expected a value on the stack, found a call frame marker"}
	}
	return v, nil
}

func pop2Values(stack *vmprog.Stack) (second, first vmprog.Value, err error) {
	// matches the original's "second, first = pop2()": second is the
	// topmost (most recently pushed) value, first the one beneath it.
	x, y, perr := stack.Pop2()
	if perr != nil {
		return vmprog.Value{}, vmprog.Value{}, &ExecutionError{Msg: perr.Error()}
	}
	xv, ok := x.(vmprog.Value)
	if !ok {
		return vmprog.Value{}, vmprog.Value{}, &TypeError{Msg: "expected a value on the stack, found a call frame marker"}
	}
	yv, ok := y.(vmprog.Value)
	if !ok {
		return vmprog.Value{}, vmprog.Value{}, &TypeError{Msg: "expected a value on the stack, found a call frame marker"}
	}
	return xv, yv, nil
}

// wrapOrCheck applies §4.5's overflow rule for dt to the raw int64 result
// of an integer operation: BYTE/WORD wrap modulo their range, SBYTE/SWORD
// range-check and fail rather than wrap.
func wrapOrCheck(dt types.DataType, v int64) (int64, error) {
	switch dt {
	case types.BYTE:
		return v & 0xff, nil
	case types.WORD:
		return v & 0xffff, nil
	case types.SBYTE:
		if v < types.SByteMin || v > types.SByteMax {
			return 0, &OverflowError{Msg: "sbyte arithmetic overflow"}
		}
		return v, nil
	case types.SWORD:
		if v < types.SWordMin || v > types.SWordMax {
			return 0, &OverflowError{Msg: "sword arithmetic overflow"}
		}
		return v, nil
	case types.BOOL:
		if v != 0 {
			return 1, nil
		}
		return 0, nil
	default:
		return v, nil
	}
}

// resultType picks the result datatype for a binary arithmetic op per
// §4.5: FLOAT only combines with FLOAT (mixing it into a non-FLOAT first
// operand is a type error); otherwise the first (left) operand's type
// wins, matching the original's "first + second" evaluation order.
func resultType(first, second vmprog.Value) (types.DataType, error) {
	if first.Type == types.FLOAT && second.Type == types.FLOAT {
		return types.FLOAT, nil
	}
	if first.Type == types.FLOAT || second.Type == types.FLOAT {
		return 0, &TypeError{Msg: "cannot mix FLOAT with a non-FLOAT operand"}
	}
	return first.Type, nil
}

func arith(first, second vmprog.Value, op func(a, b int64) int64, fop func(a, b float64) float64) (vmprog.Value, error) {
	dt, err := resultType(first, second)
	if err != nil {
		return vmprog.Value{}, err
	}
	if dt == types.FLOAT {
		return vmprog.Value{Type: types.FLOAT, F: fop(first.F, second.F)}, nil
	}
	raw := op(first.I, second.I)
	checked, err := wrapOrCheck(dt, raw)
	if err != nil {
		return vmprog.Value{}, err
	}
	return vmprog.Value{Type: dt, I: checked}, nil
}

func addValues(first, second vmprog.Value) (vmprog.Value, error) {
	return arith(first, second, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func subValues(first, second vmprog.Value) (vmprog.Value, error) {
	return arith(first, second, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

func mulValues(first, second vmprog.Value) (vmprog.Value, error) {
	return arith(first, second, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func divValues(first, second vmprog.Value) (vmprog.Value, error) {
	dt, err := resultType(first, second)
	if err != nil {
		return vmprog.Value{}, err
	}
	if dt == types.FLOAT {
		if second.F == 0 {
			return vmprog.Value{}, &ExecutionError{Msg: "division by zero"}
		}
		return vmprog.Value{Type: types.FLOAT, F: first.F / second.F}, nil
	}
	if second.I == 0 {
		return vmprog.Value{}, &ExecutionError{Msg: "division by zero"}
	}
	raw := first.I / second.I
	checked, err := wrapOrCheck(dt, raw)
	if err != nil {
		return vmprog.Value{}, err
	}
	return vmprog.Value{Type: dt, I: checked}, nil
}
