package expr

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrMissingVariable is returned by [Linear.Eval] when the expression
	// references a symbol that has no binding.
	ErrMissingVariable = errors.New("missing variable binding")

	// ErrNotSolvable is returned by [Inequality.Solve] when the inequality
	// does not have exactly one free variable.
	ErrNotSolvable = errors.New("inequality not solvable")
)

// Bindings maps symbol names to numeric values for evaluation.
type Bindings map[string]float64

// Linear is an affine expression: a constant plus a linear combination of
// named symbols. Linear values are immutable; every operation returns a new
// expression. Symbols whose coefficient becomes zero are dropped, so two
// expressions with the same meaning always compare equal.
//
// The zero value is the constant 0.
type Linear struct {
	c    float64
	coef map[string]float64
}

// New creates an expression from a constant and symbol coefficients.
// Zero coefficients are discarded. The coef map is copied.
func New(c float64, coef map[string]float64) Linear {
	l := Linear{c: c}
	for k, v := range coef {
		if v == 0 {
			continue
		}
		if l.coef == nil {
			l.coef = make(map[string]float64, len(coef))
		}
		l.coef[k] = v
	}
	return l
}

// Const creates a constant expression.
func Const(c float64) Linear { return Linear{c: c} }

// Var creates the expression consisting of a single symbol with coefficient 1.
func Var(name string) Linear { return Linear{coef: map[string]float64{name: 1}} }

// Constant returns the constant term.
func (l Linear) Constant() float64 { return l.c }

// Coef returns the coefficient of symbol, or 0 if the symbol is absent.
func (l Linear) Coef(symbol string) float64 { return l.coef[symbol] }

// Symbols returns the names of all symbols in sorted order.
func (l Linear) Symbols() []string { return slices.Sorted(maps.Keys(l.coef)) }

// Add returns l + o. Coefficients of shared symbols are summed.
func (l Linear) Add(o Linear) Linear {
	coef := make(map[string]float64, len(l.coef)+len(o.coef))
	for k, v := range l.coef {
		coef[k] = v
	}
	for k, v := range o.coef {
		coef[k] += v
	}
	return New(l.c+o.c, coef)
}

// AddConst returns l + c.
func (l Linear) AddConst(c float64) Linear { return Linear{c: l.c + c, coef: l.coef} }

// Sub returns l - o.
func (l Linear) Sub(o Linear) Linear { return l.Add(o.Neg()) }

// SubConst returns l - c.
func (l Linear) SubConst(c float64) Linear { return l.AddConst(-c) }

// Neg returns -l.
func (l Linear) Neg() Linear { return l.Mul(-1) }

// Mul returns l scaled by k.
func (l Linear) Mul(k float64) Linear {
	coef := make(map[string]float64, len(l.coef))
	for s, v := range l.coef {
		coef[s] = v * k
	}
	return New(l.c*k, coef)
}

// Div returns l divided by k. Division by zero yields infinities, as with
// plain float64 arithmetic.
func (l Linear) Div(k float64) Linear {
	coef := make(map[string]float64, len(l.coef))
	for s, v := range l.coef {
		coef[s] = v / k
	}
	return New(l.c/k, coef)
}

// Equal reports whether l and o have the same constant and coefficients.
func (l Linear) Equal(o Linear) bool {
	return l.c == o.c && maps.Equal(l.coef, o.coef)
}

// EqualConst reports whether l is the constant c.
func (l Linear) EqualConst(c float64) bool { return l.IsConst() && l.c == c }

// IsConst reports whether l contains no symbols.
func (l Linear) IsConst() bool { return len(l.coef) == 0 }

// IsVariable reports whether l is exactly one symbol with coefficient 1 and
// a zero constant.
func (l Linear) IsVariable() bool {
	if len(l.coef) != 1 || l.c != 0 {
		return false
	}
	for _, v := range l.coef {
		return v == 1
	}
	return false
}

// Var returns the symbol name of a variable expression.
// The second result is false if l is not a variable (see [Linear.IsVariable]).
func (l Linear) Var() (string, bool) {
	if !l.IsVariable() {
		return "", false
	}
	for k := range l.coef {
		return k, true
	}
	return "", false
}

// ContainsSymbol reports whether symbol appears in l.
func (l Linear) ContainsSymbol(symbol string) bool {
	_, ok := l.coef[symbol]
	return ok
}

// ContainsAll reports whether every symbol of o appears in l.
func (l Linear) ContainsAll(o Linear) bool {
	for k := range o.coef {
		if !l.ContainsSymbol(k) {
			return false
		}
	}
	return true
}

// Eval substitutes every symbol using bindings and returns the value.
// It fails with ErrMissingVariable as soon as a referenced symbol is unbound.
func (l Linear) Eval(bindings Bindings) (float64, error) {
	sum := l.c
	for _, k := range l.Symbols() {
		v, ok := bindings[k]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingVariable, k)
		}
		sum += l.coef[k] * v
	}
	return sum, nil
}

// Less is a best-effort ordering used to pick extrema among boxes.
//
// It reports whether l is definitely less than o when every symbol is
// non-negative: the constant of l-o must be negative and none of its
// coefficients positive. The relation is not total. Two expressions that
// depend on different symbols, or on the same symbol with opposite signs,
// may be incomparable in both directions; the result is only meaningful when
// both sides are constant or share the same single free variable.
func (l Linear) Less(o Linear) bool {
	d := l.Sub(o)
	if d.c >= 0 {
		return false
	}
	for _, v := range d.coef {
		if v > 0 {
			return false
		}
	}
	return true
}

// String formats l as e.g. "10 + w - 0.5h". Symbols are sorted by name.
func (l Linear) String() string {
	if l.IsConst() {
		return formatFloat(l.c)
	}
	var b strings.Builder
	if l.c != 0 {
		b.WriteString(formatFloat(l.c))
	}
	for _, k := range l.Symbols() {
		v := l.coef[k]
		switch {
		case b.Len() == 0 && v < 0:
			b.WriteString("-")
		case b.Len() == 0:
		case v < 0:
			b.WriteString(" - ")
		default:
			b.WriteString(" + ")
		}
		if a := abs(v); a != 1 {
			b.WriteString(formatFloat(a))
		}
		b.WriteString(k)
	}
	return b.String()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
