package symbolic

import (
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
)

// Env assigns values to variables. Variables absent from the environment
// evaluate to zero.
type Env map[Variable]float64

// Expr is a scalar symbolic expression over variables.
type Expr interface {
	String() string
	Eval(env Env) float64
	Diff(v Variable) Expr
	vars(seen map[int]Variable)
	// key is the canonical form used for term and factor collection.
	// Unlike String, it identifies variables by id, so two variables
	// that share a display name never merge.
	key() string
}

var nextVarID atomic.Int64

// Variable is a named scalar decision variable. Identity is by id, not
// name; two variables with the same display name are still distinct.
type Variable struct {
	id   int64
	name string
}

func NewVariable(name string) Variable {
	return Variable{id: nextVarID.Add(1), name: name}
}

func (v Variable) Name() string   { return v.name }
func (v Variable) String() string { return v.name }
func (v Variable) key() string    { return "v" + strconv.FormatInt(v.id, 10) }

func (v Variable) Eval(env Env) float64 { return env[v] }

func (v Variable) Diff(other Variable) Expr {
	if v.id == other.id {
		return number(1)
	}
	return number(0)
}

func (v Variable) vars(seen map[int]Variable) {
	seen[int(v.id)] = v
}

// Vars returns the distinct variables appearing in e, in creation order.
func Vars(e Expr) []Variable {
	seen := make(map[int]Variable)
	e.vars(seen)
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Variable, len(ids))
	for i, id := range ids {
		out[i] = seen[id]
	}
	return out
}

type number float64

// Const wraps a numeric constant as an expression.
func Const(v float64) Expr { return number(v) }

func (n number) String() string        { return formatFloat(float64(n)) }
func (n number) Eval(Env) float64      { return float64(n) }
func (n number) Diff(Variable) Expr    { return number(0) }
func (n number) vars(map[int]Variable) {}
func (n number) key() string           { return formatFloat(float64(n)) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// term is a coefficient times a non-constant expression.
type term struct {
	coeff float64
	e     Expr
}

// add is a collected linear combination: constant + sum of coeff*expr.
// Like terms are merged at construction, so 3*x + 4*x prints as 7*x.
type add struct {
	c     float64
	terms []term
}

func (a add) String() string {
	var b strings.Builder
	b.WriteString("(")
	wrote := false
	if a.c != 0 || len(a.terms) == 0 {
		b.WriteString(formatFloat(a.c))
		wrote = true
	}
	for _, t := range a.terms {
		if wrote {
			if t.coeff < 0 {
				b.WriteString(" - ")
			} else {
				b.WriteString(" + ")
			}
		} else if t.coeff < 0 {
			b.WriteString("-")
		}
		c := t.coeff
		if c < 0 {
			c = -c
		}
		if c != 1 {
			b.WriteString(formatFloat(c))
			b.WriteString(" * ")
		}
		b.WriteString(t.e.String())
		wrote = true
	}
	b.WriteString(")")
	return b.String()
}

func (a add) Eval(env Env) float64 {
	v := a.c
	for _, t := range a.terms {
		v += t.coeff * t.e.Eval(env)
	}
	return v
}

func (a add) Diff(v Variable) Expr {
	parts := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		parts = append(parts, Mul(Const(t.coeff), t.e.Diff(v)))
	}
	return Add(parts...)
}

func (a add) vars(seen map[int]Variable) {
	for _, t := range a.terms {
		t.e.vars(seen)
	}
}

func (a add) key() string {
	var b strings.Builder
	b.WriteString("+(")
	b.WriteString(formatFloat(a.c))
	for _, t := range a.terms {
		b.WriteString(" ")
		b.WriteString(formatFloat(t.coeff))
		b.WriteString("*")
		b.WriteString(t.e.key())
	}
	b.WriteString(")")
	return b.String()
}

// factor is a base expression raised to a positive integer power.
type factor struct {
	base Expr
	n    int
}

// mul is a collected product: coefficient times powers of distinct bases.
type mul struct {
	c       float64
	factors []factor
}

func (m mul) String() string {
	var b strings.Builder
	wrote := false
	if m.c != 1 || len(m.factors) == 0 {
		b.WriteString(formatFloat(m.c))
		wrote = true
	}
	for _, f := range m.factors {
		if wrote {
			b.WriteString(" * ")
		}
		if f.n == 1 {
			b.WriteString(f.base.String())
		} else {
			b.WriteString("pow(")
			b.WriteString(f.base.String())
			b.WriteString(", ")
			b.WriteString(strconv.Itoa(f.n))
			b.WriteString(")")
		}
		wrote = true
	}
	return b.String()
}

func (m mul) Eval(env Env) float64 {
	v := m.c
	for _, f := range m.factors {
		base := f.base.Eval(env)
		p := 1.0
		for i := 0; i < f.n; i++ {
			p *= base
		}
		v *= p
	}
	return v
}

func (m mul) Diff(v Variable) Expr {
	// Product rule over the collected factors.
	parts := make([]Expr, 0, len(m.factors))
	for i, f := range m.factors {
		dbase := f.base.Diff(v)
		piece := []Expr{Const(m.c * float64(f.n)), dbase}
		if f.n > 1 {
			piece = append(piece, Pow(f.base, f.n-1))
		}
		for j, g := range m.factors {
			if j == i {
				continue
			}
			piece = append(piece, Pow(g.base, g.n))
		}
		parts = append(parts, Mul(piece...))
	}
	return Add(parts...)
}

func (m mul) vars(seen map[int]Variable) {
	for _, f := range m.factors {
		f.base.vars(seen)
	}
}

func (m mul) key() string {
	var b strings.Builder
	b.WriteString("*(")
	b.WriteString(formatFloat(m.c))
	for _, f := range m.factors {
		b.WriteString(" ")
		b.WriteString(f.base.key())
		b.WriteString("^")
		b.WriteString(strconv.Itoa(f.n))
	}
	b.WriteString(")")
	return b.String()
}

// unary covers the trig functions the lab needs.
type unary struct {
	op  string
	arg Expr
}

func (u unary) String() string {
	return u.op + "(" + u.arg.String() + ")"
}

func (u unary) key() string {
	return u.op + "(" + u.arg.key() + ")"
}
