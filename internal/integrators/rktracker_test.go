package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/field"
)

func testUndulator() (beam.FieldSampler, float64) {
	u := field.Undulator{B0: 1.0, Kx: 0, Kz: 2 * math.Pi / 0.05}
	return u.Sampler(), u.Period()
}

func TestTrackerMatchesOracle(t *testing.T) {
	sampler, period := testUndulator()
	ens := beam.Ensemble{
		{1e-4, 0, 1e-4, 0, 0, 0},
		{0, 5e-5, -1e-4, 0, 0, 0},
	}

	got, err := NewTracker().Track(context.Background(), ens, period, 1001, 2.5, sampler)
	if err != nil {
		t.Fatal(err)
	}
	want, err := NewOracle().Track(context.Background(), ens, period, 1001, 2.5, sampler)
	if err != nil {
		t.Fatal(err)
	}

	for i := range ens {
		for c := beam.X; c <= beam.Py; c++ {
			if d := math.Abs(got[i][c] - want[i][c]); d > 1e-6 {
				t.Errorf("particle %d coordinate %d: tracker %v vs oracle %v (diff %v)",
					i, c, got[i][c], want[i][c], d)
			}
		}
	}
}

func TestTrackerDenseTrajectory(t *testing.T) {
	sampler, period := testUndulator()
	ens := beam.Ensemble{{1e-4, 0, 1e-4, 0, 0, 0}}
	n := 101

	traj, err := NewTracker().TrackInField(context.Background(), ens, period, n, 2.5, sampler)
	if err != nil {
		t.Fatal(err)
	}

	if len(traj.Z) != n || len(traj.Particles[0]) != n {
		t.Fatalf("expected %d samples, got %d/%d", n, len(traj.Z), len(traj.Particles[0]))
	}
	for i := 1; i < n; i++ {
		if traj.Z[i] <= traj.Z[i-1] {
			t.Fatalf("Z not monotonic at %d", i)
		}
	}

	// the field sample stored with each point is the field at that point
	p0 := traj.Particles[0][0]
	bx, by, bz := sampler(p0.X, p0.Y, p0.Z)
	if p0.Bx != bx || p0.By != by || p0.Bz != bz {
		t.Error("first point must carry the field sampled at the start")
	}
	last := traj.Particles[0][n-1]
	bx, by, bz = sampler(last.X, last.Y, last.Z)
	if last.Bx != bx || last.By != by || last.Bz != bz {
		t.Error("final point must carry the field sampled at the end")
	}
}

func TestTrackEndpointMatchesDense(t *testing.T) {
	sampler, period := testUndulator()
	ens := beam.Ensemble{{1e-4, 2e-5, -1e-4, 0, 3e-4, 1e-3}}

	traj, err := NewTracker().TrackInField(context.Background(), ens, period, 201, 2.5, sampler)
	if err != nil {
		t.Fatal(err)
	}
	end, err := NewTracker().Track(context.Background(), ens, period, 201, 2.5, sampler)
	if err != nil {
		t.Fatal(err)
	}

	final := traj.Final(ens)
	if end[0] != final[0] {
		t.Errorf("endpoint variant %v differs from dense endpoint %v", end[0], final[0])
	}
	if end[0][beam.Sigma] != ens[0][beam.Sigma] || end[0][beam.Delta] != ens[0][beam.Delta] {
		t.Error("tracking must leave sigma and delta untouched")
	}
}

func TestTrackerNonFiniteFieldAborts(t *testing.T) {
	bad := func(x, y, z float64) (float64, float64, float64) {
		if z > 0.02 {
			return math.NaN(), 0, 0
		}
		return 0, 1.0, 0
	}
	ens := beam.Ensemble{{0, 0, 0, 0, 0, 0}}

	_, err := NewTracker().TrackInField(context.Background(), ens, 0.05, 101, 2.5, bad)
	if !errors.Is(err, beam.ErrNonFiniteField) {
		t.Fatalf("expected ErrNonFiniteField, got %v", err)
	}

	var te *beam.TrackError
	if !errors.As(err, &te) {
		t.Fatal("expected a TrackError")
	}
	if te.Particle != 0 {
		t.Errorf("expected particle 0, got %d", te.Particle)
	}
	if te.Z <= 0.02 {
		t.Errorf("failure recorded at z=%v, before the field went bad", te.Z)
	}
}

func TestTrackerInvalidArguments(t *testing.T) {
	sampler, _ := testUndulator()
	ens := beam.Ensemble{{}}

	if _, err := NewTracker().TrackInField(context.Background(), ens, 1, 1, 2.5, sampler); !errors.Is(err, beam.ErrInvalidParameter) {
		t.Errorf("n=1: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := NewTracker().TrackInField(context.Background(), ens, 1, 100, 0, sampler); !errors.Is(err, beam.ErrInvalidParameter) {
		t.Errorf("zero energy: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := NewTracker().TrackInField(context.Background(), nil, 1, 100, 2.5, sampler); !errors.Is(err, beam.ErrEmptyEnsemble) {
		t.Errorf("empty ensemble: expected ErrEmptyEnsemble, got %v", err)
	}
}

func TestOracleRejectsNonFiniteField(t *testing.T) {
	bad := func(x, y, z float64) (float64, float64, float64) {
		return math.Inf(1), 0, 0
	}
	ens := beam.Ensemble{{}}

	_, err := NewOracle().Track(context.Background(), ens, 0.05, 101, 2.5, bad)
	if !errors.Is(err, beam.ErrNonFiniteField) {
		t.Errorf("expected ErrNonFiniteField, got %v", err)
	}
}

func TestTrackerCancelledContext(t *testing.T) {
	sampler, period := testUndulator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTracker().TrackInField(ctx, beam.Ensemble{{}}, period, 101, 2.5, sampler)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
