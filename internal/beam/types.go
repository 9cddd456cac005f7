package beam

import (
	"context"
	"math"
)

// Dim is the phase-space dimension.
const Dim = 6

// Coordinate indices into a State.
const (
	X = iota
	Px
	Y
	Py
	Sigma
	Delta
)

// State is a single particle's phase-space coordinates:
// transverse position and slope in both planes, path-length lag
// and relative momentum deviation.
type State [Dim]float64

// IsFinite reports whether every coordinate is a finite number.
func (s State) IsFinite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sub returns s - other.
func (s State) Sub(other State) State {
	var r State
	for i := range s {
		r[i] = s[i] - other[i]
	}
	return r
}

// Norm returns the Euclidean norm of the state vector.
func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Ensemble is a set of independent particle states. Particles share
// segment parameters during tracking but never exchange coordinates.
type Ensemble []State

func (e Ensemble) Clone() Ensemble {
	c := make(Ensemble, len(e))
	copy(c, e)
	return c
}

// IsFinite reports whether every particle in the ensemble is finite.
func (e Ensemble) IsFinite() bool {
	for _, s := range e {
		if !s.IsFinite() {
			return false
		}
	}
	return true
}

// Segment holds the physical parameters of one beamline segment:
// length, reference-trajectory curvature, and normalized quadrupole
// and sextupole strengths. Value type, no identity.
type Segment struct {
	L  float64
	H  float64
	K1 float64
	K2 float64
}

// IsDrift reports whether the segment carries no bending or focusing.
func (s Segment) IsDrift() bool {
	return s.H == 0 && s.K1 == 0 && s.K2 == 0
}

// Edge holds magnet edge parameters: pole face rotation angle, pole
// face curvature, full gap height and the fringe field integral.
type Edge struct {
	E     float64
	HPole float64
	Gap   float64
	Fint  float64
}

// FieldSampler returns the magnetic field at a point. Implementations
// must be read-only and side-effect-free: samplers are invoked
// concurrently during tracking without locking.
type FieldSampler func(x, y, z float64) (bx, by, bz float64)

// Propagator maps an ensemble through one segment. Closed-form maps and
// numerical integrators implement the same interface so calling code is
// agnostic to which is used for a given segment.
type Propagator interface {
	Propagate(ctx context.Context, seg Segment, ens Ensemble) (Ensemble, error)
}
