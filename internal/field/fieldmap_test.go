package field_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/field"
)

var _ = Describe("Map3D", func() {
	Describe("construction", func() {
		It("rejects grids with fewer than two nodes on an axis", func() {
			_, err := field.NewMap3D(0, 0, 0, 1, 1, 1, 1, 2, 2)
			Expect(err).To(MatchError(beam.ErrInvalidParameter))
		})

		It("rejects non-positive spacings", func() {
			_, err := field.NewMap3D(0, 0, 0, 1, 0, 1, 2, 2, 2)
			Expect(err).To(MatchError(beam.ErrInvalidParameter))
		})
	})

	Describe("sampling", func() {
		var m *field.Map3D

		// a field linear in all three coordinates: trilinear
		// interpolation reproduces it exactly inside the grid
		linear := func(x, y, z float64) (float64, float64, float64) {
			return 2*x - y, x + 3*z, -z + 0.5*y
		}

		BeforeEach(func() {
			var err error
			m, err = field.NewMap3D(-1, -1, 0, 0.5, 0.5, 0.25, 5, 5, 9)
			Expect(err).NotTo(HaveOccurred())
			field.FromSampler(m, linear)
		})

		It("returns the stored values at grid nodes", func() {
			sampler := m.Sampler()
			bx, by, bz := sampler(-1+2*0.5, -1+0.5, 3*0.25)
			wx, wy, wz := linear(0, -0.5, 0.75)
			Expect(bx).To(BeNumerically("~", wx, 1e-12))
			Expect(by).To(BeNumerically("~", wy, 1e-12))
			Expect(bz).To(BeNumerically("~", wz, 1e-12))
		})

		It("interpolates linear fields exactly between nodes", func() {
			sampler := m.Sampler()
			for _, p := range [][3]float64{
				{0.13, -0.42, 0.61},
				{-0.9, 0.77, 1.99},
				{0.5, 0.5, 1.0},
			} {
				bx, by, bz := sampler(p[0], p[1], p[2])
				wx, wy, wz := linear(p[0], p[1], p[2])
				Expect(bx).To(BeNumerically("~", wx, 1e-12))
				Expect(by).To(BeNumerically("~", wy, 1e-12))
				Expect(bz).To(BeNumerically("~", wz, 1e-12))
			}
		})

		It("clamps queries outside the grid to the boundary", func() {
			sampler := m.Sampler()
			bx, by, bz := sampler(-100, 0, 1)
			wx, wy, wz := sampler(-1, 0, 1)
			Expect([3]float64{bx, by, bz}).To(Equal([3]float64{wx, wy, wz}))

			bx, by, bz = sampler(0, 0, 1000)
			wx, wy, wz = sampler(0, 0, 2)
			Expect([3]float64{bx, by, bz}).To(Equal([3]float64{wx, wy, wz}))
		})

		It("overwrites single nodes through SetNode", func() {
			m.SetNode(0, 0, 0, 9, -9, 0.5)
			bx, by, bz := m.Sampler()(-1, -1, 0)
			Expect([3]float64{bx, by, bz}).To(Equal([3]float64{9, -9, 0.5}))
		})
	})

	It("tabulates an analytic undulator faithfully enough to track through", func() {
		u := field.Undulator{B0: 1.0, Kx: 0, Kz: 2 * math.Pi / 0.05}
		m, err := field.NewMap3D(-1e-3, -1e-3, 0, 1e-4, 1e-4, 0.05/400, 21, 21, 401)
		Expect(err).NotTo(HaveOccurred())
		field.FromSampler(m, u.Sampler())

		exact := u.Sampler()
		table := m.Sampler()
		for _, p := range [][3]float64{
			{3e-4, -5e-4, 0.011},
			{-7e-4, 2e-4, 0.043},
		} {
			ex, ey, ez := exact(p[0], p[1], p[2])
			tx, ty, tz := table(p[0], p[1], p[2])
			Expect(tx).To(BeNumerically("~", ex, 1e-4))
			Expect(ty).To(BeNumerically("~", ey, 1e-4))
			Expect(tz).To(BeNumerically("~", ez, 1e-4))
		}
	})
})
