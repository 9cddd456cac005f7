package field

import (
	"math"

	"github.com/san-kum/beamsim/internal/beam"
)

// Undulator is an analytic planar undulator field with peak field B0,
// transverse roll-off wave number Kx and longitudinal wave number Kz.
// The vertical wave number ky = sqrt(kx^2 + kz^2) makes the field
// Maxwell-consistent (divergence- and curl-free in the gap).
type Undulator struct {
	B0 float64
	Kx float64
	Kz float64
}

// Ky returns the vertical wave number implied by Maxwell consistency.
func (u Undulator) Ky() float64 {
	return math.Sqrt(u.Kx*u.Kx + u.Kz*u.Kz)
}

// Period returns the undulator period length.
func (u Undulator) Period() float64 {
	return 2 * math.Pi / u.Kz
}

// Sampler returns the read-only field function. Safe for concurrent
// use.
func (u Undulator) Sampler() beam.FieldSampler {
	b0, kx, kz := u.B0, u.Kx, u.Kz
	ky := u.Ky()
	return func(x, y, z float64) (float64, float64, float64) {
		cosX := math.Cos(kx * x)
		cosZ := math.Cos(kz * z)
		sinZ := math.Sin(kz * z)
		if ky == 0 {
			// kx = kz = 0 limit: sinh(ky*y)/ky -> y.
			bx := -b0 * kx * math.Sin(kx*x) * y * cosZ
			by := b0 * cosX * cosZ
			bz := -b0 * kz * cosX * y * sinZ
			return bx, by, bz
		}
		sinhY := math.Sinh(ky * y)
		coshY := math.Cosh(ky * y)
		bx := -b0 * kx / ky * math.Sin(kx*x) * sinhY * cosZ
		by := b0 * cosX * coshY * cosZ
		bz := -b0 * kz / ky * cosX * sinhY * sinZ
		return bx, by, bz
	}
}
