package expr

import "fmt"

// Inequality represents the constraint expr >= 0.
type Inequality struct {
	expr Linear
}

// Bound is the solution of a single-variable inequality: Var >= Value when
// Lower is true, Var <= Value otherwise.
type Bound struct {
	Var   string
	Lower bool
	Value float64
}

// String formats the bound as "w >= 400".
func (b Bound) String() string {
	op := "<="
	if b.Lower {
		op = ">="
	}
	return fmt.Sprintf("%s %s %s", b.Var, op, formatFloat(b.Value))
}

// Of wraps an expression as the inequality e >= 0.
func Of(e Linear) Inequality { return Inequality{expr: e} }

// Greater returns the inequality lhs >= rhs.
func Greater(lhs, rhs Linear) Inequality { return Of(lhs.Sub(rhs)) }

// Less returns the inequality lhs <= rhs.
func Less(lhs, rhs Linear) Inequality { return Greater(rhs, lhs) }

// Expr returns the left-hand side of expr >= 0.
func (q Inequality) Expr() Linear { return q.expr }

// Solvable reports whether exactly one free variable remains.
// Systems of several variables would need a linear programming solver, which
// is deliberately out of scope.
func (q Inequality) Solvable() bool { return len(q.expr.coef) == 1 }

// Var returns the free variable of a solvable inequality, or "" otherwise.
func (q Inequality) Var() string {
	if !q.Solvable() {
		return ""
	}
	return q.expr.Symbols()[0]
}

// Satisfied evaluates the inequality with the given bindings.
func (q Inequality) Satisfied(bindings Bindings) (bool, error) {
	v, err := q.expr.Eval(bindings)
	if err != nil {
		return false, err
	}
	return v >= 0, nil
}

// Solve rewrites c + k*v >= 0 as a bound on v.
// It returns ErrNotSolvable unless exactly one variable remains.
func (q Inequality) Solve() (Bound, error) {
	if !q.Solvable() {
		return Bound{}, fmt.Errorf("%w: %s", ErrNotSolvable, q)
	}
	v := q.Var()
	k := q.expr.coef[v]
	return Bound{Var: v, Lower: k > 0, Value: -q.expr.c / k}, nil
}

// String formats the inequality as "w - 400 >= 0".
func (q Inequality) String() string { return q.expr.String() + " >= 0" }
