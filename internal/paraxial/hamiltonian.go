// Package paraxial evaluates the exact-to-third-order paraxial
// Hamiltonian of a combined-function segment. The evaluator is the
// physics reference for the numerical steppers: the symplectic splitting
// and the closed-form maps are algebraic specializations of it.
package paraxial

import (
	"math"

	"github.com/san-kum/beamsim/internal/beam"
)

// Hamiltonian is the paraxial Hamiltonian H2+H3 of a segment with
// curvature h, quadrupole strength k1 and sextupole strength k2, for a
// beam with normalized velocity Beta and inverse Lorentz factor GammaInv.
//
//	H2 = (px^2 + py^2)/2 + (h^2 + k1)*x^2/2 - k1*y^2/2 - h*delta*x/beta
//	H3 = (h*x - delta/beta)*(px^2 + py^2)/2
//	     + (2*h*k1 + k2)*x^3/6 - (h*k1 + k2)*x*y^2/2
type Hamiltonian struct {
	Seg      beam.Segment
	Beta     float64
	GammaInv float64
}

// New returns the evaluator for a segment and beam energy in GeV
// (zero energy means the ultrarelativistic limit).
func New(seg beam.Segment, energy float64) *Hamiltonian {
	beta, gi := beam.Relativistic(energy)
	return &Hamiltonian{Seg: seg, Beta: beta, GammaInv: gi}
}

// Derive returns the six phase-space derivatives with respect to the
// longitudinal coordinate: the right-hand side for a generic ODE
// integrator, or the generator of the symplectic stepper.
func (hm *Hamiltonian) Derive(v beam.State) beam.State {
	h := hm.Seg.H
	k1 := hm.Seg.K1
	k2 := hm.Seg.K2
	beta := hm.Beta
	gi := hm.GammaInv

	x := v[beam.X]
	px := v[beam.Px]
	y := v[beam.Y]
	py := v[beam.Py]
	ps := v[beam.Delta]

	px2 := px * px
	py2 := py * py
	psBeta := ps / beta
	k := 1 + h*x - psBeta

	var d beam.State
	d[beam.X] = px * k
	d[beam.Px] = -(h*h+k1)*x + h*psBeta +
		(-h*(px2+py2)-(2*h*k1+k2)*x*x+(h*k1+k2)*y*y)/2
	d[beam.Y] = py * k
	d[beam.Py] = k1*y + (h*k1+k2)*x*y
	d[beam.Sigma] = -h*x/beta - (px2+py2)/(2*beta) - gi*gi/(beta*(1+beta))
	d[beam.Delta] = 0
	return d
}

// Energy evaluates H2+H3 at a state. For an on-momentum beam the value
// is conserved along the exact flow; the symplectic stepper's drift of
// this quantity is bounded by its step size.
func (hm *Hamiltonian) Energy(v beam.State) float64 {
	h := hm.Seg.H
	k1 := hm.Seg.K1
	k2 := hm.Seg.K2
	beta := hm.Beta

	x := v[beam.X]
	px := v[beam.Px]
	y := v[beam.Y]
	py := v[beam.Py]
	ps := v[beam.Delta]

	p2 := px*px + py*py
	h2 := p2/2 + (h*h+k1)*x*x/2 - k1*y*y/2 - h*ps*x/beta
	h3 := (h*x-ps/beta)*p2/2 + (2*h*k1+k2)*x*x*x/6 - (h*k1+k2)*x*y*y/2
	return h2 + h3
}

// GradientCheck returns the largest deviation between Derive and the
// canonical central-difference gradient of Energy, probing the
// transverse block at the given state. Used by tests.
func (hm *Hamiltonian) GradientCheck(v beam.State, eps float64) float64 {
	d := hm.Derive(v)

	num := func(i int) float64 {
		vp, vm := v, v
		vp[i] += eps
		vm[i] -= eps
		return (hm.Energy(vp) - hm.Energy(vm)) / (2 * eps)
	}

	// x' = dH/dpx, px' = -dH/dx, same per plane.
	max := 0.0
	pairs := [4][2]int{
		{beam.X, beam.Px},
		{beam.Px, beam.X},
		{beam.Y, beam.Py},
		{beam.Py, beam.Y},
	}
	signs := [4]float64{1, -1, 1, -1}
	for i, p := range pairs {
		want := signs[i] * num(p[1])
		if diff := math.Abs(d[p[0]] - want); diff > max {
			max = diff
		}
	}
	return max
}
