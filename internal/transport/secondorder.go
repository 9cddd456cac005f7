package transport

import (
	"math/cmplx"

	"github.com/san-kum/beamsim/internal/beam"
)

// degeneracy tags which closed-form family applies for a segment's
// focusing strengths. The four cases are mutually exclusive and each is
// continuous with its neighbors as kx^2 or ky^2 approaches zero.
type degeneracy int

const (
	focusBoth  degeneracy = iota // kx^2 != 0, ky^2 != 0
	focusXOnly                   // kx^2 != 0, ky^2 == 0
	focusYOnly                   // kx^2 == 0, ky^2 != 0
	driftLike                    // kx^2 == 0, ky^2 == 0
)

func classify(kx2, ky2 float64) degeneracy {
	switch {
	case kx2 != 0 && ky2 != 0:
		return focusBoth
	case kx2 != 0:
		return focusXOnly
	case ky2 != 0:
		return focusYOnly
	default:
		return driftLike
	}
}

// basis holds the homogeneous solutions of one segment and their
// curvature-normalized dispersion. sx and sy carry the 1/k factor so
// they stay finite through k -> 0.
type basis struct {
	L                  float64
	h, h2, h3          float64
	kx2, ky2, kx4, ky4 float64
	cx, sx, cy, sy     float64
	dx, dxH            float64
	tag                degeneracy
}

func newBasis(L, h, k1 float64) basis {
	b := basis{L: L, h: h, h2: h * h, h3: h * h * h}
	b.kx2 = k1 + h*h
	b.ky2 = -k1
	b.kx4 = b.kx2 * b.kx2
	b.ky4 = b.ky2 * b.ky2
	b.tag = classify(b.kx2, b.ky2)

	// Complex square roots: a negative kx^2 gives an imaginary kx, and
	// the real parts of cos/sin below become cosh/sinh automatically.
	kx := cmplx.Sqrt(complex(b.kx2, 0))
	ky := cmplx.Sqrt(complex(b.ky2, 0))
	zL := complex(L, 0)

	b.cx = real(cmplx.Cos(kx * zL))
	b.cy = real(cmplx.Cos(ky * zL))
	if b.kx2 != 0 {
		b.sx = real(cmplx.Sin(kx*zL) / kx)
		b.dxH = (1 - b.cx) / b.kx2
	} else {
		b.sx = L
		b.dxH = L * L / 2
	}
	if b.ky2 != 0 {
		b.sy = real(cmplx.Sin(ky*zL) / ky)
	} else {
		b.sy = L
	}
	b.dx = b.h * b.dxH
	return b
}

// moments holds the Green's-function moment integrals: closed-form
// antiderivatives of basis-function products against the homogeneous
// solution of each plane. Gx(t,tau) = sin(kx(t-tau))/kx drives the
// I1xx/I5xx family, its derivative the I2xx family; Gy drives I3xx/I4xx.
type moments struct {
	i111, i122, i112, i11, i10, i33, i34            float64
	i211, i222, i212, i21, i22, i20, i43, i44       float64
	i116, i12, i126, i16, i166, i216, i226          float64
	i26, i266                                       float64
	i144, i133, i134, i313, i324, i314, i323        float64
	i244, i233, i234, i413, i424, i414, i423        float64
	i336, i346, i436, i446                          float64
	i511, i512, i522, i51, i516, i52, i526, i50     float64
	i566, i56, i533, i534, i544                     float64
}

// momentIntegrals evaluates the full integral table for one segment.
// Each branch below is the exact closed form for its degeneracy case;
// the integrals are entire functions of kx^2 and ky^2, so adjacent
// branches agree in the limit at the case boundary.
func momentIntegrals(b basis) moments {
	var m moments

	h, L := b.h, b.L
	h2 := b.h2
	kx2, ky2 := b.kx2, b.ky2
	kx4, ky4 := b.kx4, b.ky4
	cx, sx, cy, sy := b.cx, b.sx, b.cy, b.sy
	dx, dxH := b.dx, b.dxH
	sx2 := sx * sx
	sy2 := sy * sy
	L2 := L * L
	L3 := L2 * L
	L4 := L3 * L
	L5 := L4 * L
	denom := kx2 - 4*ky2

	// Branch-free forms: finite through both degeneracies.
	m.i111 = (sx2 + dxH) / 3
	m.i122 = dxH * dxH / 3
	m.i112 = sx * dxH / 3
	m.i11 = L * sx / 2
	m.i10 = dxH
	m.i33 = L * sy / 2
	m.i211 = sx / 3 * (1 + 2*cx)
	m.i222 = 2 * dxH * sx / 3
	m.i212 = (2*sx2 - dxH) / 3
	m.i21 = (L*cx + sx) / 2
	m.i22 = m.i11
	m.i20 = sx
	m.i43 = (L*cy + sy) / 2
	m.i44 = m.i33
	m.i512 = h * dxH * dxH / 6

	if ky2 != 0 {
		m.i34 = (sy - L*cy) / (2 * ky2)
	} else {
		m.i34 = L3 / 6
	}

	// x-plane moments against Gx: split on kx^2 only.
	if kx2 != 0 {
		m.i116 = h / kx2 * (m.i11 - m.i111)
		m.i12 = (sx - L*cx) / (2 * kx2)
		m.i126 = h / kx2 * (m.i12 - m.i112)
		m.i16 = h / kx2 * (dxH - L*sx/2)
		m.i166 = h2 / kx4 * (m.i10 - 2*m.i11 + m.i111)
		m.i216 = h / kx2 * (m.i21 - m.i211)
		m.i226 = h / kx2 * (m.i22 - m.i212)
		m.i26 = h / (2 * kx2) * (sx - L*cx)
		m.i266 = h2 / kx4 * (m.i20 - 2*m.i21 + m.i211)

		m.i511 = h * (3*L - 2*sx - sx*cx) / (6 * kx2)
		m.i522 = h * (3*L - 4*sx + sx*cx) / (6 * kx4)
		m.i51 = h * m.i12
		m.i516 = h / kx2 * (m.i51 - m.i511)
		m.i52 = (2*dx - h*L*sx) / (2 * kx2)
		m.i526 = h / kx2 * (m.i52 - m.i512)
		m.i50 = h * (L - sx) / kx2
		m.i566 = h2 / kx4 * (m.i50 - 2*m.i51 + m.i511)
		m.i56 = h2 * (2*L - 3*sx + L*cx) / (2 * kx4)
	} else {
		m.i116 = h * L4 / 24
		m.i12 = L3 / 6
		m.i126 = h * L5 / 40
		m.i16 = h * L4 / 24
		m.i166 = h2 * L5 * L / 120
		m.i216 = h * L3 / 6
		m.i226 = h * L4 / 8
		m.i26 = h * L3 / 6
		m.i266 = h2 * L5 / 20

		m.i511 = h * L3 / 6
		m.i522 = h * L5 / 60
		m.i51 = h * L3 / 6
		m.i516 = h2 * L5 / 120
		m.i52 = h * L4 / 24
		m.i526 = h2 * L5 * L / 240
		m.i50 = h * L3 / 6
		m.i566 = h2 * h * L5 * L2 / 840
		m.i56 = h2 * L5 / 120
	}

	// Cross-plane moments: four closed forms per integral.
	switch b.tag {
	case focusBoth:
		m.i144 = (sy2 - 2*dxH) / denom
		m.i133 = dxH - ky2*(sy2-2*dxH)/denom
		m.i134 = (sy*cy - sx) / denom
		m.i313 = (kx2*cy*dxH - 2*ky2*sx*sy) / denom
		m.i324 = (2*cy*dxH - sx*sy) / denom
		m.i314 = (2*cy*sx - (1+cx)*sy) / denom
		m.i323 = (sy - cy*sx - 2*ky2*sy*dxH) / denom
		m.i244 = 2 * (cy*sy - sx) / denom
		m.i233 = sx - 2*ky2*(cy*sy-sx)/denom
		m.i234 = (kx2*dxH - 2*ky2*sy2) / denom
		m.i413 = ((kx2-2*ky2)*cy*sx - ky2*sy*(1+cx)) / denom
		m.i424 = (cy*sx - cx*sy - 2*ky2*sy*dxH) / denom
		m.i414 = ((kx2-2*ky2)*sx*sy - (1-cx)*cy) / denom
		m.i423 = (cy*dxH*(kx2-2*ky2) - ky2*sx*sy) / denom

	case focusXOnly:
		m.i323 = (L - sx) / kx2
		m.i324 = 2*(1-cx)/kx4 - L*sx/kx2
		m.i314 = (2*sx - L*(1+cx)) / kx2
		m.i313 = (1 - cx) / kx2
		m.i144 = (-2 + kx2*L2 + 2*cx) / kx4
		m.i133 = (1 - cx) / kx2
		m.i134 = (L - sx) / kx2
		m.i423 = (1 - cx) / kx2
		m.i424 = (sx - L*cx) / kx2
		m.i414 = (cx-1)/kx2 + L*sx
		m.i413 = sx
		m.i244 = 2 * (L - sx) / kx2
		m.i233 = sx
		m.i234 = (1 - cx) / kx2

	case focusYOnly:
		// kx^2 -> 0 limits of the focusBoth forms (cx=1, sx=L,
		// dxH=L^2/2, denom=-4ky^2); exact at the boundary.
		m.i144 = (L2 - sy2) / (4 * ky2)
		m.i133 = L2/2 + (sy2-L2)/4
		m.i134 = (L - sy*cy) / (4 * ky2)
		m.i313 = L * sy / 2
		m.i324 = (L*sy - cy*L2) / (4 * ky2)
		m.i314 = (sy - L*cy) / (2 * ky2)
		m.i323 = (L*cy + ky2*sy*L2 - sy) / (4 * ky2)
		m.i244 = (L - cy*sy) / (2 * ky2)
		m.i233 = (L + cy*sy) / 2
		m.i234 = sy2 / 2
		m.i413 = (L*cy + sy) / 2
		m.i424 = (sy + ky2*sy*L2 - L*cy) / (4 * ky2)
		m.i414 = L * sy / 2
		m.i423 = (cy*L2 + L*sy) / 4

	case driftLike:
		m.i144 = L4 / 12
		m.i133 = L2 / 2
		m.i134 = L3 / 6
		m.i313 = L2 / 2
		m.i324 = L4 / 12
		m.i314 = L3 / 6
		m.i323 = L3 / 6
		m.i244 = L3 / 3
		m.i233 = L
		m.i234 = L2 / 2
		m.i413 = L
		m.i424 = L3 / 3
		m.i414 = L2 / 2
		m.i423 = L2 / 2
	}

	// Dispersion-weighted y-plane and path-length moments.
	switch b.tag {
	case focusYOnly:
		m.i336 = h * L * (3*L*cy + (2*ky2*L2-3)*sy) / (24 * ky2)
		m.i346 = h * ((3-2*ky2*L2)*L*cy + 3*(ky2*L2-1)*sy) / (24 * ky4)
		m.i436 = h * ((L*cy-sy)/(8*ky2) + cy*L3/12 + sy*L2/8)
		m.i446 = h * L * (-3*L*cy + (3+2*ky2*L2)*sy) / (24 * ky2)

		m.i533 = h * (3*L + 2*ky2*L3 - 3*sy*cy) / (24 * ky2)
		m.i534 = h * (L2 - sy2) / (8 * ky2)
		m.i544 = h * (-3*L + 2*ky2*L3 + 3*sy*cy) / (24 * ky4)

	case driftLike:
		m.i336 = h * L4 / 24
		m.i346 = h * L5 / 40
		m.i436 = h * L3 / 6
		m.i446 = h * L4 / 8

		m.i533 = h * L3 / 6
		m.i534 = h * L4 / 24
		m.i544 = h * L5 / 60

	default: // kx^2 != 0, either ky case
		m.i336 = h / kx2 * (m.i33 - m.i313)
		m.i346 = h / kx2 * (m.i34 - m.i314)
		m.i436 = h / kx2 * (m.i43 - m.i413)
		m.i446 = h / kx2 * (m.i44 - m.i414)

		m.i533 = h * (denom*L - 2*(denom+2*ky2)*sx + kx2*cy*sy) / (2 * denom * kx2)
		m.i534 = (h*sy2 - 2*dx) / (2 * denom)
		iSy2 := L3 / 3
		if ky2 != 0 {
			iSy2 = (L - sy*cy) / (2 * ky2)
		}
		m.i544 = (h*iSy2 - 2*m.i50) / denom
	}

	return m
}

// SecondOrder derives the second-order transport tensor of a combined
// dipole+quadrupole+sextupole segment of length L, curvature h and
// normalized strengths k1 and k2 (the sextupole enters as K2 = k2/2).
//
// The tensor maps initial coordinates (x, px, y, py, sigma, delta) to
// the second-order contribution at the segment exit; its fifth row
// encodes the path-length lag accumulated from transverse motion. At
// h = k1 = k2 = 0 every entry vanishes except that row's drift terms.
func SecondOrder(L, h, k1, k2 float64) *beam.Tensor {
	b := newBasis(L, h, k1)
	m := momentIntegrals(b)

	h2, h3 := b.h2, b.h3
	kx2, ky2 := b.kx2, b.ky2
	kx4 := b.kx4
	cx, sx, cy, sy := b.cx, b.sx, b.cy, b.sy
	dx := b.dx
	sx2 := sx * sx
	sy2 := sy * sy

	half := k2 / 2
	coef1 := 2*ky2*h - h3 - half
	coef3 := 2*h2 - ky2
	coef2 := 2 * (half - ky2*h)

	t111 := coef1*m.i111 + h*kx4*m.i122/2
	t112 := 2*coef1*m.i112 - h*kx2*m.i112
	t116 := 2*coef1*m.i116 + coef3*m.i11 - h2*kx2*m.i122
	t122 := coef1*m.i122 + h*m.i111/2
	t126 := 2*coef1*m.i126 + coef3*m.i12 + h2*m.i112
	t166 := coef1*m.i166 + coef3*m.i16 + h3*m.i122/2 - h*m.i10
	t133 := half*m.i133 - ky2*h*m.i10/2
	t134 := 2 * half * m.i134
	t144 := half*m.i144 - h*m.i10/2

	t211 := coef1*m.i211 + h*kx4*m.i222/2
	t212 := 2*coef1*m.i212 - h*kx2*m.i212
	t216 := 2*coef1*m.i216 + coef3*m.i21 - h2*kx2*m.i222
	t222 := coef1*m.i222 + h*m.i211/2
	t226 := 2*coef1*m.i226 + coef3*m.i22 + h2*m.i212
	t266 := coef1*m.i266 + coef3*m.i26 + h3*m.i222/2 - h*m.i20
	t233 := half*m.i233 - ky2*h*m.i20/2
	t234 := 2 * half * m.i234
	t244 := half*m.i244 - h*m.i20/2

	t313 := coef2*m.i313 + h*kx2*ky2*m.i324
	t314 := coef2*m.i314 - h*kx2*m.i323
	t323 := coef2*m.i323 - h*ky2*m.i314
	t324 := coef2*m.i324 + h*m.i313
	t336 := coef2*m.i336 + ky2*m.i33 - h2*ky2*m.i324
	t346 := coef2*m.i346 + h2*m.i323 + ky2*m.i34

	t413 := coef2*m.i413 + h*kx2*ky2*m.i424
	t414 := coef2*m.i414 - h*kx2*m.i423
	t423 := coef2*m.i423 - h*ky2*m.i414
	t424 := coef2*m.i424 + h*m.i413
	t436 := coef2*m.i436 - h2*ky2*m.i424 + ky2*m.i43
	t446 := coef2*m.i446 + h2*m.i423 + ky2*m.i44

	// Frame change from curvilinear to Cartesian coordinates: the
	// extra terms carry the derivatives of the basis functions.
	cx1 := -kx2 * sx
	sx1 := cx
	cy1 := -ky2 * sy
	sy1 := cy
	dx1 := h * sx

	t := beam.NewTensor()
	t.Set(0, 0, 0, t111)
	t.Set(0, 0, 1, t112+h*sx)
	t.Set(0, 0, 5, t116)
	t.Set(0, 1, 1, t122)
	t.Set(0, 1, 5, t126)
	t.Set(0, 5, 5, t166)
	t.Set(0, 2, 2, t133)
	t.Set(0, 2, 3, t134)
	t.Set(0, 3, 3, t144)

	t.Set(1, 0, 0, t211-h*cx*cx1)
	t.Set(1, 0, 1, t212+h*sx1-h*(sx*cx1+cx*sx1))
	t.Set(1, 0, 5, t216-h*(dx*cx1+cx*dx1))
	t.Set(1, 1, 1, t222-h*sx*sx1)
	t.Set(1, 1, 5, t226-h*(sx*dx1+dx*sx1))
	t.Set(1, 5, 5, t266-dx*h*dx1)
	t.Set(1, 2, 2, t233)
	t.Set(1, 2, 3, t234)
	t.Set(1, 3, 3, t244)

	t.Set(2, 0, 2, t313)
	t.Set(2, 0, 3, t314+h*sy)
	t.Set(2, 1, 2, t323)
	t.Set(2, 1, 3, t324)
	t.Set(2, 2, 5, t336)
	t.Set(2, 3, 5, t346)

	t.Set(3, 0, 2, t413-h*cx*cy1)
	t.Set(3, 0, 3, t414+(1-cx)*h*sy1)
	t.Set(3, 1, 2, t423-h*sx*cy1)
	t.Set(3, 1, 3, t424-h*sx*sy1)
	t.Set(3, 2, 5, t436-h*dx*cy1)
	t.Set(3, 3, 5, t446-h*dx*sy1)

	// Path-length row. The t5xx terms integrate the curvature coupling
	// h*x; the additional terms are the quadratic slope contributions
	// (derivatives of the basis). The row carries the canonical lag
	// sign: sigma decreases as the trajectory lengthens, matching the
	// Hamiltonian flow and the symplectic stepper.
	t511 := coef1*m.i511 + h*kx4*m.i522/2
	t512 := 2*coef1*m.i512 - h*kx2*m.i512
	t516 := 2*coef1*m.i516 + coef3*m.i51 - h2*kx2*m.i522
	t522 := coef1*m.i522 + h*m.i511/2
	t526 := 2*coef1*m.i526 + coef3*m.i52 + h2*m.i512
	t566 := coef1*m.i566 + coef3*m.i56 + h3*m.i522/2 - h*m.i50
	t533 := half*m.i533 - ky2*h*m.i50/2
	t534 := 2 * half * m.i534
	t544 := half*m.i544 - h*m.i50/2

	var i566 float64
	if kx2 != 0 {
		i566 = h2 * (L - sx*cx) / (4 * kx2)
	} else {
		i566 = h2 * L * L * L / 6
	}

	t.Set(4, 0, 0, -(t511 + kx2*(L-cx*sx)/4))
	t.Set(4, 0, 1, -(t512 - kx2*sx2/2 + 2*h*dx))
	t.Set(4, 0, 5, -(t516 + h*(sx*cx-L)/2))
	t.Set(4, 1, 1, -(t522 + (L+sx*cx)/4))
	t.Set(4, 1, 5, -(t526 + h*sx2/2))
	t.Set(4, 5, 5, -(t566 + i566))
	t.Set(4, 2, 2, -(t533 + ky2*(L-sy*cy)/4))
	t.Set(4, 2, 3, -(t534 - ky2*sy2/2))
	t.Set(4, 3, 3, -(t544 + (L+sy*cy)/4))

	return t
}
