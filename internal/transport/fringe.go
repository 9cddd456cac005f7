package transport

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/beamsim/internal/beam"
)

// minCosE rejects pole angles at +-90 degrees (mod 180), where the
// edge map is undefined. This is input validation, not a degeneracy
// branch: the caller chose an angle outside the model's domain.
const minCosE = 1e-12

// fringeAngle returns the effective angle correction from finite-gap
// defocusing: phi = fint*h*gap*sec(e)*(1 + sin^2 e).
func fringeAngle(h float64, edge beam.Edge) float64 {
	sinE := math.Sin(edge.E)
	return edge.Fint * h * edge.Gap / math.Cos(edge.E) * (1 + sinE*sinE)
}

func validateEdge(edge beam.Edge, phi float64) error {
	if math.Abs(math.Cos(edge.E)) < minCosE {
		return fmt.Errorf("%w: pole angle %.6f rad has cos(e)=0", beam.ErrInvalidParameter, edge.E)
	}
	if math.Abs(math.Cos(edge.E-phi)) < minCosE {
		return fmt.Errorf("%w: corrected pole angle %.6f rad has cos(e-phi)=0", beam.ErrInvalidParameter, edge.E-phi)
	}
	return nil
}

// fringeLinear builds the edge matrix shared by both faces: identity
// plus the horizontal focusing kick h*tan(e) and the gap-corrected
// vertical kick -h*tan(e - phi).
func fringeLinear(h float64, edge beam.Edge, phi float64) *mat.Dense {
	r := beam.Identity()
	r.Set(1, 0, h*math.Tan(edge.E))
	r.Set(3, 2, -h*math.Tan(edge.E-phi))
	return r
}

// FringeEntrance derives the linear matrix and sparse second-order
// tensor of a magnet entrance edge. Returns ErrInvalidParameter when
// the pole angle lands on cos(e) = 0.
func FringeEntrance(h, k1 float64, edge beam.Edge) (*mat.Dense, *beam.Tensor, error) {
	phi := fringeAngle(h, edge)
	if err := validateEdge(edge, phi); err != nil {
		return nil, nil, err
	}

	secE := 1 / math.Cos(edge.E)
	secE2 := secE * secE
	secE3 := secE2 * secE
	tanE := math.Tan(edge.E)
	tanE2 := tanE * tanE

	r := fringeLinear(h, edge, phi)

	t := beam.NewTensor()
	t.Set(0, 0, 0, -h/2*tanE2)
	t.Set(0, 2, 2, h/2*secE2)
	t.Set(1, 0, 0, h/2*edge.HPole*secE3+k1*tanE)
	t.Set(1, 0, 1, h*tanE2)
	t.Set(1, 0, 5, -h*tanE)
	t.Set(1, 2, 2, (-k1+h*h/2+h*h*tanE2)*tanE-h/2*edge.HPole*secE3)
	t.Set(1, 2, 3, -h*tanE2)
	t.Set(2, 0, 2, h*tanE2)
	t.Set(3, 0, 2, -h*edge.HPole*secE3-2*k1*tanE)
	t.Set(3, 0, 3, -h*tanE2)
	t.Set(3, 1, 2, -h*secE2)
	t.Set(3, 2, 5, h*tanE-h*phi/sq(math.Cos(edge.E-phi)))
	return r, t, nil
}

// FringeExit derives the edge maps of a magnet exit. The sign
// conventions differ from the entrance because the beam crosses the
// pole face in the opposite effective direction.
func FringeExit(h, k1 float64, edge beam.Edge) (*mat.Dense, *beam.Tensor, error) {
	phi := fringeAngle(h, edge)
	if err := validateEdge(edge, phi); err != nil {
		return nil, nil, err
	}

	secE := 1 / math.Cos(edge.E)
	secE2 := secE * secE
	secE3 := secE2 * secE
	tanE := math.Tan(edge.E)
	tanE2 := tanE * tanE

	r := fringeLinear(h, edge, phi)

	t := beam.NewTensor()
	t.Set(0, 0, 0, h/2*tanE2)
	t.Set(0, 2, 2, -h/2*secE2)
	t.Set(1, 0, 0, h/2*edge.HPole*secE3-(-k1+h*h/2*tanE2)*tanE)
	t.Set(1, 0, 1, -h*tanE2)
	t.Set(1, 0, 5, -h*tanE)
	t.Set(1, 2, 2, (-k1-h*h/2*tanE2)*tanE-h/2*edge.HPole*secE3)
	t.Set(1, 2, 3, h*tanE2)
	t.Set(2, 0, 2, -h*tanE2)
	t.Set(3, 0, 2, -h*edge.HPole*secE3+(-k1+h*h*secE2)*tanE)
	t.Set(3, 0, 3, h*tanE2)
	t.Set(3, 1, 2, h*secE2)
	t.Set(3, 2, 5, h*tanE-h*phi/sq(math.Cos(edge.E-phi)))
	return r, t, nil
}

func sq(v float64) float64 { return v * v }
