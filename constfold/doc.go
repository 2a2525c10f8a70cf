// Package constfold implements the three constant-folding operations the
// parser and a later linking pass need over the ast tree: classifying an
// expression as a compile-time constant, evaluating it, and coercing a
// constant value to a destination datatype (§4.3).
package constfold
