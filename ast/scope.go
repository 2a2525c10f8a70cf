package ast

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/srcref"
	"github.com/sixtyfive/il65/types"
)

// UndefinedSymbolError is raised by Scope.Lookup when a name cannot be
// resolved. The parser re-wraps it into a ParseError carrying the call
// site's source reference (§4.1, §7).
type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	return "undefined symbol: " + e.Name
}

// Scope owns a symbol table over its direct named children (Label, VarDef,
// Subroutine, BuiltinFunction, named Block) plus 0..N declarations and
// statements as ordered children. The reserved name "ZP" is allowed to
// duplicate on nested blocks (§3.1).
type Scope struct {
	base
	Level types.ScopeLevel
	Name  string

	symbols     map[string]Named
	floatConsts map[float64]string
	saveRegs    *bool // nil means "inherit from enclosing scope"
}

// NewScope creates an empty scope at the given level. Children should then
// be added via AddNode so the symbol table stays populated.
func NewScope(ref srcref.SourceRef, level types.ScopeLevel) *Scope {
	return &Scope{
		base:        newBase(ref),
		Level:       level,
		symbols:     make(map[string]Named),
		floatConsts: make(map[float64]string),
	}
}

// populateSymbol indexes node into the symbol table if it is one of the
// named variants, per §4.1's "Duplicate names fail" rule (with the sole
// exception of "ZP").
func (s *Scope) populateSymbol(node Node) error {
	named, ok := node.(Named)
	if !ok {
		return nil
	}
	name := named.Name()
	if name == "" {
		return nil
	}
	if name == "ZP" {
		if _, isBlock := node.(*Block); isBlock {
			// ZP blocks are allowed to duplicate; do not index them by
			// name so a second "ZP" block does not clobber the first.
			return nil
		}
	}
	if existing, dup := s.symbols[name]; dup {
		return errors.Errorf("symbol %q already defined at %s", name, existing.SourceRef())
	}
	s.symbols[name] = named
	return nil
}

func (s *Scope) unindexSymbol(node Node) {
	if named, ok := node.(Named); ok {
		if name := named.Name(); name != "" {
			if cur, present := s.symbols[name]; present && cur == named {
				delete(s.symbols, name)
			}
		}
	}
}

// AddNode appends newChild as a declaration/statement of this scope and
// indexes it into the symbol table if applicable.
func (s *Scope) AddNode(newChild Node) error {
	if err := s.populateSymbol(newChild); err != nil {
		return err
	}
	s.addChild(s, newChild)
	return nil
}

// InsertNode inserts newChild at index.
func (s *Scope) InsertNode(index int, newChild Node) error {
	if err := s.populateSymbol(newChild); err != nil {
		return err
	}
	s.insertChild(s, index, newChild)
	return nil
}

// RemoveNode detaches child, removing its symbol table entry if any.
func (s *Scope) RemoveNode(child Node) error {
	if err := s.removeChild(child); err != nil {
		return err
	}
	s.unindexSymbol(child)
	return nil
}

// ReplaceNode substitutes newChild for oldChild in place, updating the
// symbol table accordingly.
func (s *Scope) ReplaceNode(oldChild, newChild Node) error {
	if err := s.replaceChild(s, oldChild, newChild); err != nil {
		return err
	}
	s.unindexSymbol(oldChild)
	if err := s.populateSymbol(newChild); err != nil {
		return err
	}
	return nil
}

// Symbols returns the direct symbol-table entries of this scope, keyed by
// bare name.
func (s *Scope) Symbols() map[string]Named {
	return s.symbols
}

// Lookup resolves name, per §4.1:
//
//   - a dotted name walks to the topmost Scope ancestor, then descends
//     through named Blocks/Subroutines' scopes one segment at a time;
//   - a bare name is looked up in this scope, ascending to enclosing
//     scopes on a miss.
//
// Lookup failure returns *UndefinedSymbolError.
func (s *Scope) Lookup(name string) (Named, error) {
	if hasDot(name) {
		return s.lookupDotted(name)
	}
	return s.lookupBare(name)
}

func (s *Scope) lookupBare(name string) (Named, error) {
	if n, ok := s.symbols[name]; ok {
		return n, nil
	}
	if parent := EnclosingScope(s); parent != nil {
		return parent.lookupBare(name)
	}
	return nil, &UndefinedSymbolError{Name: name}
}

func (s *Scope) lookupDotted(name string) (Named, error) {
	// Walk to the topmost scope ancestor (including self).
	top := s.topmostScope()
	var cur *Scope = top
	var sym Named
	segments := splitDotted(name)
	for i, seg := range segments {
		if cur == nil {
			return nil, &UndefinedSymbolError{Name: name}
		}
		sym = cur.symbols[seg]
		if sym == nil {
			return nil, &UndefinedSymbolError{Name: name}
		}
		if i == len(segments)-1 {
			return sym, nil
		}
		cur = scopeOf(sym)
	}
	return sym, nil
}

// topmostScope walks this scope's ancestry to the outermost enclosing
// Scope (the Module's scope), returning self if none is found above it.
func (s *Scope) topmostScope() *Scope {
	top := s
	n := Node(s)
	for n.Parent() != nil {
		n = n.Parent()
		if sc, ok := n.(*Scope); ok {
			top = sc
		}
	}
	return top
}

// scopeOf returns the Scope a named symbol carries (for Block/Subroutine),
// or nil if sym does not carry a nested scope.
func scopeOf(sym Named) *Scope {
	switch v := sym.(type) {
	case *Block:
		return v.Scope()
	case *Subroutine:
		return v.Scope()
	default:
		return nil
	}
}

// DefineFloatConstant interns value, returning a generated name
// "il65_float_const_<k>". Repeated requests for the same numeric value
// (by value equality) return the same name (§4.1).
func (s *Scope) DefineFloatConstant(value float64) string {
	if name, ok := s.floatConsts[value]; ok {
		return name
	}
	name := "il65_float_const_" + strconv.Itoa(1+len(s.floatConsts))
	s.floatConsts[value] = name
	return name
}

// FloatConstants returns the scope's interned float-constant table.
func (s *Scope) FloatConstants() map[float64]string {
	return s.floatConsts
}

// SaveRegisters resolves the tri-state-via-inheritance flag: if unset
// locally, defers to the enclosing scope's effective value; defaults to
// false at the root (§4.1).
func (s *Scope) SaveRegisters() bool {
	if s.saveRegs != nil {
		return *s.saveRegs
	}
	if parent := EnclosingScope(s); parent != nil {
		return parent.SaveRegisters()
	}
	return false
}

// SetSaveRegisters sets this scope's local override.
func (s *Scope) SetSaveRegisters(save bool) {
	s.saveRegs = &save
}

// DefineBuiltins attaches a BuiltinFunction node for each entry in fns to
// this scope. Per the spec's Open Question, the parser does not call this
// itself — a driver opts in explicitly.
func (s *Scope) DefineBuiltins(fns map[string]BuiltinCallable) error {
	for name, fn := range fns {
		f := NewBuiltinFunction(s.ref, name, fn)
		if err := s.AddNode(f); err != nil {
			return err
		}
	}
	return nil
}

func hasDot(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return true
		}
	}
	return false
}

func splitDotted(name string) []string {
	var out []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			out = append(out, name[start:i])
			start = i + 1
		}
	}
	out = append(out, name[start:])
	return out
}

// ensure Scope satisfies Node (compile-time check).
var _ Node = (*Scope)(nil)

// DataTypeFromNode resolves the DataType a Dereference, Register or
// LiteralValue expression carries. Returns types.UNDEFINED for expressions
// whose type cannot be determined without further context (e.g. SymbolName
// requires a scope to resolve against; see constfold for that case).
func DataTypeFromNode(e Expression) types.DataType {
	switch v := e.(type) {
	case *Register:
		return v.DataType()
	case *Dereference:
		return v.Type
	case *LiteralValue:
		switch v.Value.(type) {
		case bool:
			return types.BOOL
		case float64:
			return types.FLOAT
		case int, int64:
			return types.WORD
		case string:
			return types.ARRAY_BYTE
		}
	}
	return types.UNDEFINED
}
