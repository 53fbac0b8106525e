package symbolic

import "math"

// Add sums expressions, folding constants and merging like terms.
func Add(exprs ...Expr) Expr {
	c := 0.0
	order := make([]string, 0, len(exprs))
	byKey := make(map[string]*term)

	var absorb func(coeff float64, e Expr)
	absorb = func(coeff float64, e Expr) {
		if coeff == 0 {
			return
		}
		switch t := e.(type) {
		case number:
			c += coeff * float64(t)
		case add:
			c += coeff * t.c
			for _, sub := range t.terms {
				absorb(coeff*sub.coeff, sub.e)
			}
		case mul:
			unit := t
			unit.c = 1
			var body Expr = unit
			if len(unit.factors) == 1 && unit.factors[0].n == 1 {
				body = unit.factors[0].base
			}
			key := body.key()
			if existing, ok := byKey[key]; ok {
				existing.coeff += coeff * t.c
			} else {
				byKey[key] = &term{coeff: coeff * t.c, e: body}
				order = append(order, key)
			}
		default:
			key := e.key()
			if existing, ok := byKey[key]; ok {
				existing.coeff += coeff
			} else {
				byKey[key] = &term{coeff: coeff, e: e}
				order = append(order, key)
			}
		}
	}

	for _, e := range exprs {
		absorb(1, e)
	}

	terms := make([]term, 0, len(order))
	for _, key := range order {
		t := byKey[key]
		if t.coeff == 0 {
			continue
		}
		terms = append(terms, *t)
	}

	if len(terms) == 0 {
		return number(c)
	}
	if c == 0 && len(terms) == 1 && terms[0].coeff == 1 {
		return terms[0].e
	}
	return add{c: c, terms: terms}
}

// Sub returns a - b.
func Sub(a, b Expr) Expr {
	return Add(a, Mul(Const(-1), b))
}

// Mul multiplies expressions, folding constants and collecting repeated
// bases into powers, so x*x*x prints as pow(x, 3).
func Mul(exprs ...Expr) Expr {
	c := 1.0
	order := make([]string, 0, len(exprs))
	byKey := make(map[string]*factor)

	var absorb func(e Expr, n int)
	absorb = func(e Expr, n int) {
		switch t := e.(type) {
		case number:
			p := 1.0
			for i := 0; i < n; i++ {
				p *= float64(t)
			}
			c *= p
		case mul:
			p := 1.0
			for i := 0; i < n; i++ {
				p *= t.c
			}
			c *= p
			for _, f := range t.factors {
				absorb(f.base, f.n*n)
			}
		default:
			key := e.key()
			if existing, ok := byKey[key]; ok {
				existing.n += n
			} else {
				byKey[key] = &factor{base: e, n: n}
				order = append(order, key)
			}
		}
	}

	for _, e := range exprs {
		absorb(e, 1)
	}

	if c == 0 {
		return number(0)
	}

	factors := make([]factor, 0, len(order))
	for _, key := range order {
		factors = append(factors, *byKey[key])
	}

	if len(factors) == 0 {
		return number(c)
	}
	if c == 1 && len(factors) == 1 && factors[0].n == 1 {
		return factors[0].base
	}
	return mul{c: c, factors: factors}
}

// Pow raises e to a non-negative integer power.
func Pow(e Expr, n int) Expr {
	if n == 0 {
		return number(1)
	}
	if n == 1 {
		return e
	}
	if t, ok := e.(number); ok {
		p := 1.0
		for i := 0; i < n; i++ {
			p *= float64(t)
		}
		return number(p)
	}
	parts := make([]Expr, n)
	for i := range parts {
		parts[i] = e
	}
	return Mul(parts...)
}

// Neg returns -e.
func Neg(e Expr) Expr { return Mul(Const(-1), e) }

func Sin(e Expr) Expr {
	if t, ok := e.(number); ok {
		return number(math.Sin(float64(t)))
	}
	return unary{op: "sin", arg: e}
}

func Cos(e Expr) Expr {
	if t, ok := e.(number); ok {
		return number(math.Cos(float64(t)))
	}
	return unary{op: "cos", arg: e}
}

func (u unary) Eval(env Env) float64 {
	v := u.arg.Eval(env)
	switch u.op {
	case "sin":
		return math.Sin(v)
	case "cos":
		return math.Cos(v)
	}
	return math.NaN()
}

func (u unary) Diff(v Variable) Expr {
	inner := u.arg.Diff(v)
	switch u.op {
	case "sin":
		return Mul(Cos(u.arg), inner)
	case "cos":
		return Mul(Const(-1), Sin(u.arg), inner)
	}
	return number(math.NaN())
}

func (u unary) vars(seen map[int]Variable) {
	u.arg.vars(seen)
}

// Gradient differentiates e with respect to each variable in vs.
func Gradient(e Expr, vs []Variable) []Expr {
	out := make([]Expr, len(vs))
	for i, v := range vs {
		out[i] = e.Diff(v)
	}
	return out
}
