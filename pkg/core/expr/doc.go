// Package expr provides affine symbolic expressions and single-variable
// inequalities used by the relative layout engine.
//
// # Expressions
//
// A [Linear] is a constant plus a linear combination of named symbols. The
// layout engine describes every coordinate of a child box as a Linear over
// the container's unknown origin and size (x, y, w, h):
//
//	w := expr.Var("w")
//	right := expr.Var("x").Add(w).SubConst(50) // x + w - 50
//	v, err := right.Eval(expr.Bindings{"x": 0, "w": 200})
//
// Expressions are immutable values and safe to share.
//
// # Ordering
//
// [Linear.Less] is not a total order. It answers "is l certainly smaller
// than o if every symbol is non-negative", which is enough to pick extrema
// among constant coordinates or coordinates sharing one free variable.
//
// # Inequalities
//
// An [Inequality] represents expr >= 0. Only inequalities with exactly one
// free variable can be solved; [Inequality.Solve] turns them into a [Bound].
package expr
