package integrators

import "github.com/san-kum/optlab/internal/systems"

type RK4 struct {
	k1, k2, k3, k4 systems.State
	scratch        systems.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(systems.State, n)
		r.k2 = make(systems.State, n)
		r.k3 = make(systems.State, n)
		r.k4 = make(systems.State, n)
		r.scratch = make(systems.State, n)
	}
}

func (r *RK4) Step(f systems.ODE, x systems.State, t, dt float64) systems.State {
	n := len(x)
	r.ensureScratch(n)

	k1 := f.Derive(t, x)
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2 := f.Derive(t+dt*0.5, r.scratch)
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3 := f.Derive(t+dt*0.5, r.scratch)
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4 := f.Derive(t+dt, r.scratch)
	copy(r.k4, k4)

	result := make(systems.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
