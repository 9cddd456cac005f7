package transport

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/integrators"
)

func TestClosedFormDrift(t *testing.T) {
	p := NewClosedForm(0)
	L := 2.0
	ens := beam.Ensemble{{1e-3, 2e-4, -5e-4, 1e-4, 0, 0}}

	out, err := p.Propagate(context.Background(), beam.Segment{L: L}, ens)
	if err != nil {
		t.Fatal(err)
	}

	u := ens[0]
	wantX := u[beam.X] + L*u[beam.Px]
	wantY := u[beam.Y] + L*u[beam.Py]
	wantSigma := -L / 2 * (u[beam.Px]*u[beam.Px] + u[beam.Py]*u[beam.Py])

	if math.Abs(out[0][beam.X]-wantX) > 1e-18 {
		t.Errorf("x = %v, want %v", out[0][beam.X], wantX)
	}
	if math.Abs(out[0][beam.Y]-wantY) > 1e-18 {
		t.Errorf("y = %v, want %v", out[0][beam.Y], wantY)
	}
	if math.Abs(out[0][beam.Sigma]-wantSigma) > 1e-18 {
		t.Errorf("sigma = %v, want %v", out[0][beam.Sigma], wantSigma)
	}
	if out[0][beam.Px] != u[beam.Px] || out[0][beam.Delta] != u[beam.Delta] {
		t.Error("drift must not change momenta")
	}
}

func TestClosedFormMatchesSymplectic(t *testing.T) {
	// The analytic maps and the numerical stepper are interchangeable
	// propagators; at small amplitude they must agree to the stepper's
	// step-size accuracy.
	cases := []struct {
		seg    beam.Segment
		energy float64
	}{
		{beam.Segment{L: 1, K1: 1.5}, 0},
		{beam.Segment{L: 1, H: 0.1, K1: 1.2, K2: 2}, 2.5},
		{beam.Segment{L: 0.5, H: 0.05, K1: -0.8, K2: 1}, 0},
	}
	ens := beam.Ensemble{{1e-3, 2e-4, -5e-4, 3e-4, 0, 1e-3}}

	for _, c := range cases {
		cf := NewClosedForm(c.energy)
		sy := integrators.NewSymplectic(integrators.DefaultConfig(), c.energy)

		a, err := cf.Propagate(context.Background(), c.seg, ens)
		if err != nil {
			t.Fatal(err)
		}
		b, err := sy.Propagate(context.Background(), c.seg, ens)
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < beam.Dim; i++ {
			if d := math.Abs(a[0][i] - b[0][i]); d > 1e-5 {
				t.Errorf("%+v coordinate %d: closed form %v vs stepper %v (diff %v)",
					c.seg, i, a[0][i], b[0][i], d)
			}
		}
	}
}

func TestClosedFormEmptyEnsemble(t *testing.T) {
	p := NewClosedForm(0)
	_, err := p.Propagate(context.Background(), beam.Segment{L: 1}, nil)
	if !errors.Is(err, beam.ErrEmptyEnsemble) {
		t.Errorf("expected ErrEmptyEnsemble, got %v", err)
	}
}

func TestClosedFormNonFiniteInput(t *testing.T) {
	p := NewClosedForm(0)
	ens := beam.Ensemble{{math.NaN(), 0, 0, 0, 0, 0}}
	_, err := p.Propagate(context.Background(), beam.Segment{L: 1}, ens)
	if !errors.Is(err, beam.ErrNonFiniteState) {
		t.Errorf("expected ErrNonFiniteState, got %v", err)
	}
}

func TestClosedFormCancelledContext(t *testing.T) {
	p := NewClosedForm(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Propagate(ctx, beam.Segment{L: 1}, beam.Ensemble{{}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClosedFormPure(t *testing.T) {
	p := NewClosedForm(0)
	ens := beam.Ensemble{{1e-3, 1e-4, 0, 0, 0, 0}}
	before := ens.Clone()

	if _, err := p.Propagate(context.Background(), beam.Segment{L: 1, K1: 2}, ens); err != nil {
		t.Fatal(err)
	}
	if ens[0] != before[0] {
		t.Error("input ensemble must not be modified")
	}
}
