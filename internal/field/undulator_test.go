package field_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/beamsim/internal/field"
)

var _ = Describe("Undulator", func() {
	var u field.Undulator

	BeforeEach(func() {
		u = field.Undulator{B0: 1.0, Kx: 50.0, Kz: 2 * math.Pi / 0.05}
	})

	It("derives the vertical wave number from the other two", func() {
		ky := u.Ky()
		Expect(ky*ky).To(BeNumerically("~", u.Kx*u.Kx+u.Kz*u.Kz, 1e-9))
	})

	It("reports the period", func() {
		Expect(u.Period()).To(BeNumerically("~", 0.05, 1e-15))
	})

	It("matches the peak field on the midplane", func() {
		sampler := u.Sampler()
		for _, z := range []float64{0, 0.0123, 0.031} {
			x := 7e-4
			bx, by, bz := sampler(x, 0, z)
			Expect(bx).To(BeZero())
			Expect(bz).To(BeZero())
			Expect(by).To(BeNumerically("~", u.B0*math.Cos(u.Kx*x)*math.Cos(u.Kz*z), 1e-15))
		}
	})

	It("is divergence and curl free", func() {
		sampler := u.Sampler()
		h := 1e-6
		points := [][3]float64{
			{0, 0, 0},
			{1e-3, 5e-4, 0.01},
			{-2e-3, 1e-3, 0.037},
			{5e-4, -8e-4, 0.002},
		}
		diff := func(f func(p [3]float64) float64, p [3]float64, axis int) float64 {
			lo, hi := p, p
			lo[axis] -= h
			hi[axis] += h
			return (f(hi) - f(lo)) / (2 * h)
		}
		comp := func(i int) func(p [3]float64) float64 {
			return func(p [3]float64) float64 {
				bx, by, bz := sampler(p[0], p[1], p[2])
				return [3]float64{bx, by, bz}[i]
			}
		}
		for _, p := range points {
			div := diff(comp(0), p, 0) + diff(comp(1), p, 1) + diff(comp(2), p, 2)
			Expect(div).To(BeNumerically("~", 0, 1e-5), "divergence at %v", p)

			Expect(diff(comp(2), p, 1) - diff(comp(1), p, 2)).To(BeNumerically("~", 0, 1e-5))
			Expect(diff(comp(0), p, 2) - diff(comp(2), p, 0)).To(BeNumerically("~", 0, 1e-5))
			Expect(diff(comp(1), p, 0) - diff(comp(0), p, 1)).To(BeNumerically("~", 0, 1e-5))
		}
	})

	It("degrades to a uniform field when all wave numbers vanish", func() {
		flat := field.Undulator{B0: 0.7}
		Expect(flat.Ky()).To(BeZero())

		bx, by, bz := flat.Sampler()(1e-3, 2e-3, 0.5)
		Expect(bx).To(BeZero())
		Expect(by).To(Equal(0.7))
		Expect(bz).To(BeZero())
	})
})
