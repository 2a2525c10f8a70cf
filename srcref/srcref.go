// Package srcref provides the (file, line, column) source reference triple
// attached to every AST node and token.
package srcref

import "fmt"

// SourceRef identifies a position in a source file.
type SourceRef struct {
	File   string
	Line   int
	Column int
}

// String renders the reference as "file:line:column", the form used in
// parse-error messages.
func (s SourceRef) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsValid reports whether s has a non-zero line, i.e. whether it was ever
// set from real source input.
func (s SourceRef) IsValid() bool {
	return s.Line > 0
}

// Zero is the SourceRef used for synthesized nodes that have no direct
// source origin (e.g. an auto-inserted float constant declaration).
var Zero = SourceRef{}
