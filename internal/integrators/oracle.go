package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/beamsim/internal/beam"
)

// Dormand-Prince coefficients (RK45)
var (
	dpA2 = 1.0 / 5.0
	dpA3 = 3.0 / 10.0
	dpA4 = 4.0 / 5.0
	dpA5 = 8.0 / 9.0

	dpB21 = 1.0 / 5.0
	dpB31 = 3.0 / 40.0
	dpB32 = 9.0 / 40.0
	dpB41 = 44.0 / 45.0
	dpB42 = -56.0 / 15.0
	dpB43 = 32.0 / 9.0
	dpB51 = 19372.0 / 6561.0
	dpB52 = -25360.0 / 2187.0
	dpB53 = 64448.0 / 6561.0
	dpB54 = -212.0 / 729.0
	dpB61 = 9017.0 / 3168.0
	dpB62 = -355.0 / 33.0
	dpB63 = 46732.0 / 5247.0
	dpB64 = 49.0 / 176.0
	dpB65 = -5103.0 / 18656.0

	dpC1 = 35.0 / 384.0
	dpC3 = 500.0 / 1113.0
	dpC4 = 125.0 / 192.0
	dpC5 = -2187.0 / 6784.0
	dpC6 = 11.0 / 84.0

	dpD1 = dpC1 - 5179.0/57600.0
	dpD3 = dpC3 - 7571.0/16695.0
	dpD4 = dpC4 - 393.0/640.0
	dpD5 = dpC5 - -92097.0/339200.0
	dpD6 = dpC6 - 187.0/2100.0
	dpD7 = -1.0 / 40.0
)

// Oracle is a slow adaptive Dormand-Prince solver over the same moments
// physics as [Tracker]. It exists only to cross-validate the fixed-step
// tracker; it is never a production path.
type Oracle struct {
	Atol     float64
	Rtol     float64
	safety   float64
	minScale float64
	maxScale float64
}

func NewOracle() *Oracle {
	return &Oracle{
		Atol:     1e-10,
		Rtol:     1e-10,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// oracleState is the reduced per-particle ODE state (x, px, y, py) with
// z as the independent variable.
type oracleState [4]float64

// Track integrates every particle from z=0 to z=l and returns the
// final transverse phase space, with sigma and delta untouched. The
// initial step is l/(n-1), after which the controller adapts freely.
func (o *Oracle) Track(ctx context.Context, ens beam.Ensemble, l float64, n int, energy float64, field beam.FieldSampler) (beam.Ensemble, error) {
	if len(ens) == 0 {
		return nil, beam.ErrEmptyEnsemble
	}
	if energy <= 0 {
		return nil, fmt.Errorf("%w: tracking requires a positive beam energy, got %g GeV", beam.ErrInvalidParameter, energy)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", beam.ErrInvalidParameter, n)
	}

	gamma := energy / beam.MassElectronGeV
	k := beam.SpeedOfLight / (beam.MassElectronEV * gamma)

	rhs := func(z float64, y oracleState, particle int) (oracleState, error) {
		fbx, fby, fbz := field(y[0], y[2], z)
		if !finite3(fbx, fby, fbz) {
			return oracleState{}, &beam.TrackError{
				Particle: particle, Z: z,
				Err: beam.ErrNonFiniteField,
			}
		}
		mx, my := curvatures(y[1], y[3], fbx, fby, fbz, k)
		return oracleState{y[1], mx, y[3], my}, nil
	}

	out := ens.Clone()
	for i := range ens {
		y := oracleState{
			ens[i][beam.X], ens[i][beam.Px],
			ens[i][beam.Y], ens[i][beam.Py],
		}
		final, err := o.solve(ctx, y, l, l/float64(n-1), func(z float64, y oracleState) (oracleState, error) {
			return rhs(z, y, i)
		})
		if err != nil {
			return nil, err
		}
		out[i][beam.X] = final[0]
		out[i][beam.Px] = final[1]
		out[i][beam.Y] = final[2]
		out[i][beam.Py] = final[3]
	}
	return out, nil
}

func (o *Oracle) solve(ctx context.Context, y oracleState, l, dt float64, f func(float64, oracleState) (oracleState, error)) (oracleState, error) {
	z := 0.0
	for z < l {
		if err := ctx.Err(); err != nil {
			return oracleState{}, err
		}
		if z+dt > l {
			dt = l - z
		}
		next, dtNew, accepted, err := o.step(z, y, dt, f)
		if err != nil {
			return oracleState{}, err
		}
		if accepted {
			y = next
			z += dt
		}
		dt = dtNew
	}
	return y, nil
}

func (o *Oracle) step(z float64, y oracleState, dt float64, f func(float64, oracleState) (oracleState, error)) (oracleState, float64, bool, error) {
	var x2, x3, x4, x5, x6, yNew oracleState

	k1, err := f(z, y)
	if err != nil {
		return y, 0, false, err
	}
	for i := range y {
		x2[i] = y[i] + dt*dpB21*k1[i]
	}
	k2, err := f(z+dpA2*dt, x2)
	if err != nil {
		return y, 0, false, err
	}
	for i := range y {
		x3[i] = y[i] + dt*(dpB31*k1[i]+dpB32*k2[i])
	}
	k3, err := f(z+dpA3*dt, x3)
	if err != nil {
		return y, 0, false, err
	}
	for i := range y {
		x4[i] = y[i] + dt*(dpB41*k1[i]+dpB42*k2[i]+dpB43*k3[i])
	}
	k4, err := f(z+dpA4*dt, x4)
	if err != nil {
		return y, 0, false, err
	}
	for i := range y {
		x5[i] = y[i] + dt*(dpB51*k1[i]+dpB52*k2[i]+dpB53*k3[i]+dpB54*k4[i])
	}
	k5, err := f(z+dpA5*dt, x5)
	if err != nil {
		return y, 0, false, err
	}
	for i := range y {
		x6[i] = y[i] + dt*(dpB61*k1[i]+dpB62*k2[i]+dpB63*k3[i]+dpB64*k4[i]+dpB65*k5[i])
	}
	k6, err := f(z+dt, x6)
	if err != nil {
		return y, 0, false, err
	}
	for i := range y {
		yNew[i] = y[i] + dt*(dpC1*k1[i]+dpC3*k3[i]+dpC4*k4[i]+dpC5*k5[i]+dpC6*k6[i])
	}
	k7, err := f(z+dt, yNew)
	if err != nil {
		return y, 0, false, err
	}

	errMax := 0.0
	for i := range y {
		errEst := dt * (dpD1*k1[i] + dpD3*k3[i] + dpD4*k4[i] + dpD5*k5[i] + dpD6*k6[i] + dpD7*k7[i])
		scale := o.Atol + o.Rtol*(math.Abs(y[i])+math.Abs(dt*k1[i]))
		if e := math.Abs(errEst) / scale; e > errMax {
			errMax = e
		}
	}

	if errMax > 1 {
		scale := math.Max(o.minScale, o.safety*math.Pow(errMax, -0.25))
		return y, dt * scale, false, nil
	}
	var dtNew float64
	if errMax > 0 {
		dtNew = dt * math.Min(o.maxScale, o.safety*math.Pow(errMax, -0.2))
	} else {
		dtNew = dt * o.maxScale
	}
	return yNew, dtNew, true, nil
}
