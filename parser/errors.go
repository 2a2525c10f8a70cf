package parser

import (
	"fmt"

	"github.com/sixtyfive/il65/srcref"
)

// ParseError is a syntax or structural error keyed by source reference,
// with a short dump of the enclosing rule stack for debugging (§4.2:
// "a short dump of the parser-state stack accompanies the error").
type ParseError struct {
	Ref   srcref.SourceRef
	Msg   string
	Rules []string
}

func (e *ParseError) Error() string {
	if len(e.Rules) == 0 {
		return fmt.Sprintf("%s: %s", e.Ref, e.Msg)
	}
	return fmt.Sprintf("%s: %s (in %s)", e.Ref, e.Msg, joinRules(e.Rules))
}

func joinRules(rules []string) string {
	out := rules[0]
	for _, r := range rules[1:] {
		out += " > " + r
	}
	return out
}

// ErrorList is the accumulated set of ParseErrors from one Parse call.
type ErrorList []*ParseError

func (errs ErrorList) Error() string {
	if len(errs) == 0 {
		return "no errors"
	}
	out := errs[0].Error()
	for _, e := range errs[1:] {
		out += "\n" + e.Error()
	}
	return out
}
