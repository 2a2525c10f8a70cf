// Package parser builds the ast tree from the token stream produced by
// lexer: module directives, blocks, subroutines, variable declarations,
// statements and the full expression grammar, with operator precedence
// climbing (§4.2). Errors accumulate up to a fixed limit rather than
// aborting on the first one, so a single source file can report more than
// one mistake per run.
package parser
