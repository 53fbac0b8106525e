package mathprog

import (
	"fmt"
	"math"

	"github.com/san-kum/optlab/internal/symbolic"
)

// Formula is a relational statement over an expression, ready to be added
// to a program as a constraint.
type Formula struct {
	expr   symbolic.Expr
	lb, ub float64
}

// Eq constrains e == rhs.
func Eq(e symbolic.Expr, rhs float64) Formula {
	return Formula{expr: e, lb: rhs, ub: rhs}
}

// Le constrains e <= rhs.
func Le(e symbolic.Expr, rhs float64) Formula {
	return Formula{expr: e, lb: math.Inf(-1), ub: rhs}
}

// Ge constrains e >= rhs.
func Ge(e symbolic.Expr, rhs float64) Formula {
	return Formula{expr: e, lb: rhs, ub: math.Inf(1)}
}

// Between constrains lb <= e <= ub.
func Between(lb float64, e symbolic.Expr, ub float64) Formula {
	return Formula{expr: e, lb: lb, ub: ub}
}

type bindingKind int

const (
	kindConstraint bindingKind = iota
	kindCost
)

// Binding ties an expression to its role in a program. Constraint
// bindings carry bounds; cost bindings do not.
type Binding struct {
	expr   symbolic.Expr
	lb, ub float64
	kind   bindingKind
}

func (b *Binding) Expr() symbolic.Expr    { return b.expr }
func (b *Binding) Bounds() (lb, ub float64) { return b.lb, b.ub }

// IsEquality reports whether the binding is an equality constraint.
func (b *Binding) IsEquality() bool {
	return b.kind == kindConstraint && b.lb == b.ub
}

// Violation measures how far env is from satisfying the constraint.
func (b *Binding) Violation(env symbolic.Env) float64 {
	if b.kind != kindConstraint {
		return 0
	}
	v := b.expr.Eval(env)
	if v < b.lb {
		return b.lb - v
	}
	if v > b.ub {
		return v - b.ub
	}
	return 0
}

func (b *Binding) String() string {
	if b.kind == kindCost {
		return fmt.Sprintf("Cost %s", b.expr)
	}
	switch {
	case b.lb == b.ub:
		return fmt.Sprintf("%s == %s", b.expr, formatBound(b.lb))
	case math.IsInf(b.lb, -1):
		return fmt.Sprintf("%s <= %s", b.expr, formatBound(b.ub))
	case math.IsInf(b.ub, 1):
		return fmt.Sprintf("%s >= %s", b.expr, formatBound(b.lb))
	default:
		return fmt.Sprintf("%s <= %s <= %s", formatBound(b.lb), b.expr, formatBound(b.ub))
	}
}

func formatBound(v float64) string {
	return fmt.Sprintf("%g", v)
}
