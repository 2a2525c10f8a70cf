package constfold

import "github.com/sixtyfive/il65/srcref"

// DivisionByZeroError is raised by ConstValue when a fold would divide by
// zero, keyed by the expression's source reference (§4.3). It is returned
// to ConstValue's caller as is; the parser does not call ConstValue.
type DivisionByZeroError struct {
	Ref srcref.SourceRef
}

func (e *DivisionByZeroError) Error() string { return e.Ref.String() + ": division by zero" }

// ExpressionEvaluationError wraps any fold failure other than division by
// zero (unsupported operator combination, non-numeric operand, etc.).
type ExpressionEvaluationError struct {
	Ref srcref.SourceRef
	Msg string
}

func (e *ExpressionEvaluationError) Error() string { return e.Ref.String() + ": " + e.Msg }

// TypeError is raised by CoerceConstantValue when a value's shape cannot be
// legally coerced to the destination datatype (wrong kind of literal, or an
// expression shape the grammar does not allow as a constant initializer).
// Range violations are reported as OverflowError instead, matching the
// original's split between verify_bounds and its callers' own TypeErrors.
type TypeError struct {
	Ref srcref.SourceRef
	Msg string
}

func (e *TypeError) Error() string { return e.Ref.String() + ": " + e.Msg }

// OverflowError is raised by CoerceConstantValue (via rangeCheck) when a
// numeric constant is out of range for its destination datatype (§7),
// matching the original's verify_bounds, which raises OverflowError rather
// than TypeError for byte/word/float range violations.
type OverflowError struct {
	Ref srcref.SourceRef
	Msg string
}

func (e *OverflowError) Error() string { return e.Ref.String() + ": " + e.Msg }
