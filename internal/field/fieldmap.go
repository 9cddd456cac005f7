package field

import (
	"fmt"
	"math"

	"github.com/san-kum/beamsim/internal/beam"
)

// Map3D is a measured or precomputed field table on a regular grid,
// sampled with trilinear interpolation. Queries outside the grid clamp
// to the boundary.
type Map3D struct {
	x0, y0, z0 float64
	dx, dy, dz float64
	nx, ny, nz int
	bx, by, bz []float64
}

// NewMap3D allocates an empty table with origin (x0,y0,z0), spacings
// (dx,dy,dz) and node counts (nx,ny,nz).
func NewMap3D(x0, y0, z0, dx, dy, dz float64, nx, ny, nz int) (*Map3D, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, fmt.Errorf("%w: field map needs at least 2 nodes per axis, got (%d,%d,%d)",
			beam.ErrInvalidParameter, nx, ny, nz)
	}
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return nil, fmt.Errorf("%w: field map spacings must be positive, got (%g,%g,%g)",
			beam.ErrInvalidParameter, dx, dy, dz)
	}
	n := nx * ny * nz
	return &Map3D{
		x0: x0, y0: y0, z0: z0,
		dx: dx, dy: dy, dz: dz,
		nx: nx, ny: ny, nz: nz,
		bx: make([]float64, n),
		by: make([]float64, n),
		bz: make([]float64, n),
	}, nil
}

// FromSampler builds a table by sampling an analytic field on the grid.
func FromSampler(m *Map3D, f beam.FieldSampler) *Map3D {
	for k := 0; k < m.nz; k++ {
		for j := 0; j < m.ny; j++ {
			for i := 0; i < m.nx; i++ {
				x := m.x0 + float64(i)*m.dx
				y := m.y0 + float64(j)*m.dy
				z := m.z0 + float64(k)*m.dz
				bx, by, bz := f(x, y, z)
				idx := m.index(i, j, k)
				m.bx[idx] = bx
				m.by[idx] = by
				m.bz[idx] = bz
			}
		}
	}
	return m
}

// SetNode assigns the field at grid node (i,j,k).
func (m *Map3D) SetNode(i, j, k int, bx, by, bz float64) {
	idx := m.index(i, j, k)
	m.bx[idx] = bx
	m.by[idx] = by
	m.bz[idx] = bz
}

func (m *Map3D) index(i, j, k int) int {
	return (k*m.ny+j)*m.nx + i
}

// cell locates a coordinate on one axis: lower node index and the
// fractional offset, clamped to the grid.
func cell(v, v0, dv float64, n int) (int, float64) {
	t := (v - v0) / dv
	if t <= 0 {
		return 0, 0
	}
	if t >= float64(n-1) {
		return n - 2, 1
	}
	i := int(math.Floor(t))
	return i, t - float64(i)
}

// Sampler returns the trilinear interpolating field function. The
// table is read-only through the sampler, so it is safe for concurrent
// use.
func (m *Map3D) Sampler() beam.FieldSampler {
	return func(x, y, z float64) (float64, float64, float64) {
		i, fx := cell(x, m.x0, m.dx, m.nx)
		j, fy := cell(y, m.y0, m.dy, m.ny)
		k, fz := cell(z, m.z0, m.dz, m.nz)

		interp := func(v []float64) float64 {
			c000 := v[m.index(i, j, k)]
			c100 := v[m.index(i+1, j, k)]
			c010 := v[m.index(i, j+1, k)]
			c110 := v[m.index(i+1, j+1, k)]
			c001 := v[m.index(i, j, k+1)]
			c101 := v[m.index(i+1, j, k+1)]
			c011 := v[m.index(i, j+1, k+1)]
			c111 := v[m.index(i+1, j+1, k+1)]

			c00 := c000*(1-fx) + c100*fx
			c10 := c010*(1-fx) + c110*fx
			c01 := c001*(1-fx) + c101*fx
			c11 := c011*(1-fx) + c111*fx

			c0 := c00*(1-fy) + c10*fy
			c1 := c01*(1-fy) + c11*fy
			return c0*(1-fz) + c1*fz
		}
		return interp(m.bx), interp(m.by), interp(m.bz)
	}
}
