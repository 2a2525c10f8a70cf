package constfold

import (
	"math"
	"strconv"

	"github.com/sixtyfive/il65/ast"
	"github.com/sixtyfive/il65/srcref"
	"github.com/sixtyfive/il65/types"
)

// IsCompileConstant reports whether expr can be folded to a concrete value
// without running the VM (§4.3): true for LiteralValue and for a
// SymbolName resolving to a `const` VarDef; AddressOf is constant only
// when it resolves to a memory-mapped VarDef with a known zero-page
// address. Register, Dereference, SubCall and ExpressionWithOperator are
// never constant on their own -- folding the latter happens as a rewrite
// via ConstValue, not as a query here.
func IsCompileConstant(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.LiteralValue:
		return true
	case *ast.SymbolName:
		vd := resolveConstVarDef(e)
		return vd != nil
	case *ast.AddressOf:
		vd := resolveVarDef(e.SymbolRef, ast.Node(e))
		return vd != nil && vd.Kind == types.VarKindMemory && vd.ZeroPageAddr != 0
	default:
		return false
	}
}

func resolveVarDef(name string, from ast.Node) *ast.VarDef {
	scope := ast.EnclosingScope(from)
	if scope == nil {
		return nil
	}
	sym, err := scope.Lookup(name)
	if err != nil {
		return nil
	}
	vd, _ := sym.(*ast.VarDef)
	return vd
}

func resolveConstVarDef(sn *ast.SymbolName) *ast.VarDef {
	vd := resolveVarDef(sn.QualifiedName, ast.Node(sn))
	if vd != nil && vd.IsConst() {
		return vd
	}
	return nil
}

// ConstValue evaluates expr to a concrete int64, float64, bool or string,
// or fails with a typed error (§4.3). Division by zero is reported as
// *DivisionByZeroError; any other evaluation failure as
// *ExpressionEvaluationError.
func ConstValue(expr ast.Expression) (interface{}, error) {
	switch e := expr.(type) {
	case *ast.LiteralValue:
		return e.Value, nil
	case *ast.SymbolName:
		vd := resolveConstVarDef(e)
		if vd == nil {
			return nil, &ExpressionEvaluationError{Ref: e.SourceRef(), Msg: "not a compile-time constant: " + e.QualifiedName}
		}
		init := vd.Initializer()
		if init == nil {
			return nil, &ExpressionEvaluationError{Ref: e.SourceRef(), Msg: "const " + vd.Name() + " has no initializer"}
		}
		return ConstValue(init)
	case *ast.AddressOf:
		vd := resolveVarDef(e.SymbolRef, ast.Node(e))
		if vd == nil || vd.ZeroPageAddr == 0 {
			return nil, &ExpressionEvaluationError{Ref: e.SourceRef(), Msg: "address of " + e.SymbolRef + " is not a known compile-time constant"}
		}
		return int64(vd.ZeroPageAddr), nil
	case *ast.ExpressionWithOperator:
		return foldOperator(e)
	default:
		return nil, &ExpressionEvaluationError{Ref: expr.SourceRef(), Msg: "expression is not a compile-time constant"}
	}
}

func foldOperator(e *ast.ExpressionWithOperator) (interface{}, error) {
	left, err := ConstValue(e.Left())
	if err != nil {
		return nil, err
	}
	if e.IsUnary() {
		return foldUnary(e.Operator, left, e.SourceRef())
	}
	right, err := ConstValue(e.Right())
	if err != nil {
		return nil, err
	}
	return foldBinary(e.Operator, left, right, e.SourceRef())
}

func foldUnary(op string, v interface{}, ref srcref.SourceRef) (interface{}, error) {
	switch op {
	case "-":
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
	case "~":
		if n, ok := v.(int64); ok {
			return ^n, nil
		}
	case "!":
		return !truthy(v), nil
	case "&":
		return nil, &ExpressionEvaluationError{Ref: ref, Msg: "address-of is not foldable here"}
	}
	return nil, &ExpressionEvaluationError{Ref: ref, Msg: "invalid operand for unary " + op}
}

// foldBinary reproduces the original's Python-derived arithmetic: // is
// floor division, % is floor modulo (sign follows the divisor), ** is
// power, comparisons and logical operators coerce through truthy().
func foldBinary(op string, l, r interface{}, ref srcref.SourceRef) (interface{}, error) {
	switch op {
	case "&&":
		return truthy(l) && truthy(r), nil
	case "||":
		return truthy(l) || truthy(r), nil
	case "==":
		return numEq(l, r), nil
	case "!=":
		return !numEq(l, r), nil
	}

	lf, lIsFloat, lok := asNumber(l)
	rf, rIsFloat, rok := asNumber(r)
	if !lok || !rok {
		return nil, &ExpressionEvaluationError{Ref: ref, Msg: "non-numeric operand to " + op}
	}
	isFloat := lIsFloat || rIsFloat

	switch op {
	case "<", ">", "<=", ">=":
		return compareNum(op, lf, rf), nil
	case "&", "|", "^", "<<", ">>":
		if isFloat {
			return nil, &ExpressionEvaluationError{Ref: ref, Msg: "bitwise operator " + op + " requires integer operands"}
		}
		li, ri := int64(lf), int64(rf)
		switch op {
		case "&":
			return li & ri, nil
		case "|":
			return li | ri, nil
		case "^":
			return li ^ ri, nil
		case "<<":
			return li << uint(ri), nil
		case ">>":
			return li >> uint(ri), nil
		}
	case "+":
		if isFloat {
			return lf + rf, nil
		}
		return int64(lf) + int64(rf), nil
	case "-":
		if isFloat {
			return lf - rf, nil
		}
		return int64(lf) - int64(rf), nil
	case "*":
		if isFloat {
			return lf * rf, nil
		}
		return int64(lf) * int64(rf), nil
	case "/":
		if rf == 0 {
			return nil, &DivisionByZeroError{Ref: ref}
		}
		return lf / rf, nil
	case "//":
		if rf == 0 {
			return nil, &DivisionByZeroError{Ref: ref}
		}
		return int64(math.Floor(lf / rf)), nil
	case "%":
		if rf == 0 {
			return nil, &DivisionByZeroError{Ref: ref}
		}
		if isFloat {
			m := math.Mod(lf, rf)
			if m != 0 && (m < 0) != (rf < 0) {
				m += rf
			}
			return m, nil
		}
		li, ri := int64(lf), int64(rf)
		m := li % ri
		if m != 0 && (m < 0) != (ri < 0) {
			m += ri
		}
		return m, nil
	case "**":
		res := math.Pow(lf, rf)
		if isFloat {
			return res, nil
		}
		return int64(res), nil
	}
	return nil, &ExpressionEvaluationError{Ref: ref, Msg: "unsupported operator " + op}
}

func asNumber(v interface{}) (f float64, isFloat, ok bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), false, true
	case float64:
		return n, true, true
	case bool:
		if n {
			return 1, false, true
		}
		return 0, false, true
	default:
		return 0, false, false
	}
}

func truthy(v interface{}) bool {
	switch n := v.(type) {
	case bool:
		return n
	case int64:
		return n != 0
	case float64:
		return n != 0
	case string:
		return n != ""
	default:
		return false
	}
}

func numEq(l, r interface{}) bool {
	lf, _, lok := asNumber(l)
	rf, _, rok := asNumber(r)
	if lok && rok {
		return lf == rf
	}
	ls, lIsStr := l.(string)
	rs, rIsStr := r.(string)
	if lIsStr && rIsStr {
		return ls == rs
	}
	return false
}

func compareNum(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	}
	return false
}

// CoerceConstantValue attempts to coerce expr to datatype dt, per §4.3's
// six rules. It returns whether a rewrite occurred, the (possibly new)
// expression to use in its place, a non-empty warning message for
// lossy-but-legal coercions (float truncation), and an error when the
// coercion is outright illegal.
func CoerceConstantValue(dt types.DataType, expr ast.Expression, ref srcref.SourceRef) (changed bool, result ast.Expression, warning string, err error) {
	if sn, ok := expr.(*ast.SymbolName); ok {
		if vd := resolveConstVarDef(sn); vd != nil {
			if init := vd.Initializer(); init != nil {
				return true, init, "", nil
			}
		}
	}
	if ao, ok := expr.(*ast.AddressOf); ok {
		if vd := resolveVarDef(ao.SymbolRef, ast.Node(ao)); vd != nil && vd.ZeroPageAddr != 0 {
			return true, ast.NewLiteralValue(ref, int64(vd.ZeroPageAddr)), "", nil
		}
	}

	lit, isLit := expr.(*ast.LiteralValue)
	if !isLit {
		switch expr.(type) {
		case *ast.Register, *ast.Dereference:
			return false, expr, "", nil
		default:
			if dt.IsNumeric() {
				return false, nil, "", &TypeError{Ref: ref, Msg: "cannot assign a non-constant expression to a " + dt.String() + " destination"}
			}
			return false, expr, "", nil
		}
	}

	switch v := lit.Value.(type) {
	case string:
		if len(v) == 1 && (dt.IsNumeric() || dt.IsArray()) {
			return true, ast.NewLiteralValue(ref, int64(v[0])), "", nil
		}
		return false, expr, "", nil
	case float64:
		if dt.IsNumeric() && dt != types.FLOAT {
			truncated := int64(v)
			if err := rangeCheck(dt, truncated); err != nil {
				return false, nil, "", err
			}
			return true, ast.NewLiteralValue(ref, truncated), "truncating float constant to integer destination", nil
		}
		if dt == types.FLOAT {
			if v < types.FloatMin || v > types.FloatMax {
				return false, nil, "", &OverflowError{Ref: ref, Msg: "value out of range for float: " + strconv.FormatFloat(v, 'g', -1, 64)}
			}
		}
		return false, expr, "", nil
	case int64:
		if dt.IsNumeric() {
			if err := rangeCheck(dt, v); err != nil {
				return false, nil, "", err
			}
		}
		return false, expr, "", nil
	case bool:
		return false, expr, "", nil
	default:
		return false, expr, "", nil
	}
}

// rangeCheck reports an OverflowError when v is out of bounds for dt,
// matching the original's verify_bounds (which raises OverflowError, not
// TypeError, for byte/word/float range violations).
func rangeCheck(dt types.DataType, v int64) error {
	var lo, hi int64
	switch dt {
	case types.BYTE:
		lo, hi = types.ByteMin, types.ByteMax
	case types.SBYTE:
		lo, hi = types.SByteMin, types.SByteMax
	case types.WORD:
		lo, hi = types.WordMin, types.WordMax
	case types.SWORD:
		lo, hi = types.SWordMin, types.SWordMax
	default:
		return nil
	}
	if v < lo || v > hi {
		return &OverflowError{Msg: "value out of range for " + dt.String() + ": " + strconv.FormatInt(v, 10)}
	}
	return nil
}
