package mathprog

import (
	"math"
	"testing"

	"github.com/san-kum/optlab/internal/symbolic"
)

func TestVariableNaming(t *testing.T) {
	p := New()

	x := p.NewContinuousVariables(2)
	if x[0].Name() != "x(0)" || x[1].Name() != "x(1)" {
		t.Errorf("unexpected default names: %s, %s", x[0].Name(), x[1].Name())
	}

	dog := p.NewNamedContinuousVariables(2, "dog")
	if dog[1].Name() != "dog(1)" {
		t.Errorf("expected dog(1), got %s", dog[1].Name())
	}

	m := p.NewVariableMatrix(3, 2, "A")
	if m[2][1].Name() != "A(2,1)" {
		t.Errorf("expected A(2,1), got %s", m[2][1].Name())
	}

	if len(p.Variables()) != 2+2+6 {
		t.Errorf("expected 10 variables, got %d", len(p.Variables()))
	}
}

func TestConstraintPrinting(t *testing.T) {
	p := New()
	x := p.NewContinuousVariables(2)

	tests := []struct {
		b    *Binding
		want string
	}{
		{p.AddConstraint(Eq(symbolic.Add(x[0], x[1]), 1)), "(x(0) + x(1)) == 1"},
		{p.AddConstraint(Ge(x[1], 0)), "x(1) >= 0"},
		{p.AddConstraint(Le(x[1], 1)), "x(1) <= 1"},
		{p.AddConstraint(Between(0, x[0], 2)), "0 <= x(0) <= 2"},
		{p.AddCost(x[0]), "Cost x(0)"},
	}

	for _, tc := range tests {
		if tc.b.String() != tc.want {
			t.Errorf("expected %q, got %q", tc.want, tc.b.String())
		}
	}
}

func TestViolation(t *testing.T) {
	p := New()
	x := p.NewContinuousVariables(2)
	p.AddConstraint(Eq(symbolic.Add(x[0], x[1]), 1))
	p.AddConstraint(Ge(x[0], 0))

	env := p.Env([]float64{-2, 1})
	// equality off by 2, inequality off by 2
	if v := p.MaxViolation(env); math.Abs(v-2) > 1e-12 {
		t.Errorf("expected max violation 2, got %f", v)
	}

	env = p.Env([]float64{0.25, 0.75})
	if v := p.MaxViolation(env); v != 0 {
		t.Errorf("expected feasible point, got violation %f", v)
	}
}

func TestInitialGuess(t *testing.T) {
	p := New()
	x := p.NewContinuousVariables(3)

	if err := p.SetInitialGuessVector(x[:2], []float64{4, 5}); err != nil {
		t.Fatalf("set guess: %v", err)
	}

	x0 := p.InitialGuess()
	if x0[0] != 4 || x0[1] != 5 || x0[2] != 0 {
		t.Errorf("unexpected guess: %v", x0)
	}

	if err := p.SetInitialGuessVector(x, []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestCallbacks(t *testing.T) {
	p := New()
	x := p.NewContinuousVariables(2)

	var got []float64
	p.AddVisualizationCallback(func(v []float64) {
		got = append([]float64(nil), v...)
	}, x)

	p.CallCallbacks(p.Env([]float64{3, 9}))
	if len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Errorf("callback saw %v", got)
	}
}

func TestHasInequalities(t *testing.T) {
	p := New()
	x := p.NewContinuousVariables(2)
	p.AddConstraint(Eq(x[0], 1))
	if p.HasInequalities() {
		t.Error("equality-only program reported inequalities")
	}
	p.AddConstraint(Le(x[1], 1))
	if !p.HasInequalities() {
		t.Error("inequality not detected")
	}
}
