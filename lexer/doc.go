// Package lexer turns il65 source text into the token stream the parser
// consumes (§6). This is the "external collaborator" spec.md treats as out
// of scope for the front-end's engineering value, implemented here so the
// parser has a real producer to run against.
package lexer
