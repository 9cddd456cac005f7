package beam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identity returns a 6x6 identity matrix.
func Identity() *mat.Dense {
	m := mat.NewDense(Dim, Dim, nil)
	for i := 0; i < Dim; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// SymplecticForm returns S, block-diagonal [[0,1],[-1,0]] per plane,
// for the coordinate ordering (x, px, y, py, sigma, delta).
func SymplecticForm() *mat.Dense {
	s := mat.NewDense(Dim, Dim, nil)
	for p := 0; p < Dim; p += 2 {
		s.Set(p, p+1, 1)
		s.Set(p+1, p, -1)
	}
	return s
}

// SymplecticDefect returns the largest entrywise deviation of R^T*S*R
// from S. A transport matrix is symplectic when the defect is at
// floating tolerance.
func SymplecticDefect(r *mat.Dense) float64 {
	s := SymplecticForm()
	var tmp, lhs mat.Dense
	tmp.Mul(s, r)
	lhs.Mul(r.T(), &tmp)

	max := 0.0
	for i := 0; i < Dim; i++ {
		for j := 0; j < Dim; j++ {
			d := math.Abs(lhs.At(i, j) - s.At(i, j))
			if d > max {
				max = d
			}
		}
	}
	return max
}

// ApplyMatrix returns R*u for a single state.
func ApplyMatrix(r *mat.Dense, u State) State {
	var out State
	for i := 0; i < Dim; i++ {
		acc := 0.0
		for j := 0; j < Dim; j++ {
			acc += r.At(i, j) * u[j]
		}
		out[i] = acc
	}
	return out
}
