package transport

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/beamsim/internal/beam"
)

// FirstOrder derives the companion 6x6 linear transport matrix from the
// same basis functions as [SecondOrder], for a beam energy in GeV (zero
// means the ultrarelativistic limit).
//
// The longitudinal row uses the canonical pairing of path-length lag
// with momentum deviation, so the matrix satisfies R^T*S*R = S for any
// valid parameter set.
func FirstOrder(L, h, k1, energy float64) *mat.Dense {
	b := newBasis(L, h, k1)
	beta, gammaInv := beam.Relativistic(energy)
	igamma2 := gammaInv * gammaInv

	var r56 float64
	if b.kx2 != 0 {
		r56 = -b.h2 * (L - b.sx) / (b.kx2 * beta * beta)
	} else {
		r56 = -b.h2 * L * L * L / (6 * beta * beta)
	}
	r56 -= L * igamma2 / (beta * beta)

	r := beam.Identity()
	r.Set(0, 0, b.cx)
	r.Set(0, 1, b.sx)
	r.Set(0, 5, b.dx/beta)
	r.Set(1, 0, -b.kx2*b.sx)
	r.Set(1, 1, b.cx)
	r.Set(1, 5, h*b.sx/beta)
	r.Set(2, 2, b.cy)
	r.Set(2, 3, b.sy)
	r.Set(3, 2, -b.ky2*b.sy)
	r.Set(3, 3, b.cy)
	r.Set(4, 0, -h*b.sx/beta)
	r.Set(4, 1, -b.dx/beta)
	r.Set(4, 5, r56)
	return r
}

// Maps returns both the linear matrix and the second-order tensor of a
// segment; they are always built together from the same basis.
func Maps(seg beam.Segment, energy float64) (*mat.Dense, *beam.Tensor) {
	return FirstOrder(seg.L, seg.H, seg.K1, energy),
		SecondOrder(seg.L, seg.H, seg.K1, seg.K2)
}
