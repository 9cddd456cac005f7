package integrators

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/beamsim/internal/beam"
)

// TrajectoryPoint is one dense sample along a tracked particle's path:
// transverse position and slope, longitudinal position, normalized
// longitudinal momentum, and the field sampled at that point.
type TrajectoryPoint struct {
	X, Px, Y, Py float64
	Z, Pz        float64
	Bx, By, Bz   float64
}

// Trajectory is the dense per-step output of the tracker: downstream
// consumers need the field history along the path, not just the
// endpoint.
type Trajectory struct {
	Z         []float64
	Particles [][]TrajectoryPoint
}

// Final extracts the endpoint phase space of every particle, keeping
// the untouched sigma and delta from the initial ensemble.
func (t *Trajectory) Final(initial beam.Ensemble) beam.Ensemble {
	out := initial.Clone()
	last := len(t.Z) - 1
	for i := range out {
		p := t.Particles[i][last]
		out[i][beam.X] = p.X
		out[i][beam.Px] = p.Px
		out[i][beam.Y] = p.Y
		out[i][beam.Py] = p.Py
	}
	return out
}

// Tracker advances an ensemble through an arbitrary externally supplied
// 3-D field with the classical 4-stage Runge-Kutta scheme, using the
// longitudinal coordinate as the independent variable. Particles are
// tracked concurrently; the field sampler must be side-effect-free.
type Tracker struct {
	Log *zap.Logger
}

func NewTracker() *Tracker {
	return &Tracker{Log: zap.NewNop()}
}

// curvatures converts a field sample and the current slopes into the
// transverse curvature increments via the moments relation.
func curvatures(bx, by, fbx, fby, fbz, dzk float64) (mx, my float64) {
	bx2 := bx * bx
	by2 := by * by
	bxy := bx * by
	k := math.Sqrt(1+bx2+by2) * dzk
	mx = k * (by*fbz - fby*(1+bx2) + bxy*fbx)
	my = -k * (bx*fbz - fbx*(1+by2) + bxy*fby)
	return mx, my
}

func finite3(a, b, c float64) bool {
	return !(math.IsNaN(a) || math.IsInf(a, 0) ||
		math.IsNaN(b) || math.IsInf(b, 0) ||
		math.IsNaN(c) || math.IsInf(c, 0))
}

// TrackInField tracks every particle through length l with n field
// samples for a beam energy in GeV, returning the dense trajectory.
// A non-finite field sample aborts the affected particle's computation
// with a [beam.TrackError]; no partial trajectory is returned.
func (t *Tracker) TrackInField(ctx context.Context, ens beam.Ensemble, l float64, n int, energy float64, field beam.FieldSampler) (*Trajectory, error) {
	if len(ens) == 0 {
		return nil, beam.ErrEmptyEnsemble
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", beam.ErrInvalidParameter, n)
	}
	if energy <= 0 {
		return nil, fmt.Errorf("%w: tracking requires a positive beam energy, got %g GeV", beam.ErrInvalidParameter, energy)
	}
	if !ens.IsFinite() {
		return nil, beam.ErrNonFiniteState
	}

	dz := l / float64(n-1)
	gamma := energy / beam.MassElectronGeV
	dGamma2 := 1 - 0.5/(gamma*gamma)
	k := beam.SpeedOfLight / (beam.MassElectronEV * gamma)
	dzk := dz * k

	traj := &Trajectory{
		Z:         make([]float64, n),
		Particles: make([][]TrajectoryPoint, len(ens)),
	}
	for i := 0; i < n; i++ {
		traj.Z[i] = float64(i) * dz
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range ens {
		g.Go(func() error {
			pts, err := t.trackOne(gctx, ens[i], dz, n, dGamma2, dzk, field, i)
			if err != nil {
				return err
			}
			traj.Particles[i] = pts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.Log.Debug("rk track",
		zap.Int("particles", len(ens)),
		zap.Int("samples", n),
		zap.Float64("dz", dz))
	return traj, nil
}

func (t *Tracker) trackOne(ctx context.Context, s beam.State, dz float64, n int, dGamma2, dzk float64, field beam.FieldSampler, particle int) ([]TrajectoryPoint, error) {
	pts := make([]TrajectoryPoint, n)
	px := s[beam.Px]
	py := s[beam.Py]
	pts[0] = TrajectoryPoint{
		X: s[beam.X], Px: px,
		Y: s[beam.Y], Py: py,
		Z: 0, Pz: dGamma2 - (px*px+py*py)/2,
	}

	sample := func(x, y, z float64, step int) (float64, float64, float64, error) {
		fbx, fby, fbz := field(x, y, z)
		if !finite3(fbx, fby, fbz) {
			return 0, 0, 0, &beam.TrackError{
				Particle: particle, Step: step, Z: z,
				Err: beam.ErrNonFiniteField,
			}
		}
		return fbx, fby, fbz, nil
	}

	for i := 0; i < n-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur := &pts[i]
		x, y, z := cur.X, cur.Y, cur.Z
		bxc, byc := cur.Px, cur.Py

		// Stage 1: field at the step's start, stored with the point.
		fbx, fby, fbz, err := sample(x, y, z, i)
		if err != nil {
			return nil, err
		}
		cur.Bx, cur.By, cur.Bz = fbx, fby, fbz
		kx1 := bxc * dz
		ky1 := byc * dz
		mx1, my1 := curvatures(bxc, byc, fbx, fby, fbz, dzk)

		// Stage 2: midpoint, slopes advanced by half the first kick.
		bx := bxc + mx1/2
		by := byc + my1/2
		kx2 := bx * dz
		ky2 := by * dz
		fbx, fby, fbz, err = sample(x+kx1/2, y+ky1/2, z+dz/2, i)
		if err != nil {
			return nil, err
		}
		mx2, my2 := curvatures(bx, by, fbx, fby, fbz, dzk)

		// Stage 3: midpoint again with the second kick.
		bx = bxc + mx2/2
		by = byc + my2/2
		kx3 := bx * dz
		ky3 := by * dz
		fbx, fby, fbz, err = sample(x+kx2/2, y+ky2/2, z+dz/2, i)
		if err != nil {
			return nil, err
		}
		mx3, my3 := curvatures(bx, by, fbx, fby, fbz, dzk)

		// Stage 4: full step.
		bx = bxc + mx3
		by = byc + my3
		kx4 := bx * dz
		ky4 := by * dz
		fbx, fby, fbz, err = sample(x+kx3, y+ky3, z+dz, i)
		if err != nil {
			return nil, err
		}
		mx4, my4 := curvatures(bx, by, fbx, fby, fbz, dzk)

		next := &pts[i+1]
		next.X = x + (kx1+2*(kx2+kx3)+kx4)/6
		next.Px = bxc + (mx1+2*(mx2+mx3)+mx4)/6
		next.Y = y + (ky1+2*(ky2+ky3)+ky4)/6
		next.Py = byc + (my1+2*(my2+my3)+my4)/6
		next.Z = z + dz
		next.Pz = dGamma2 - (next.Px*next.Px+next.Py*next.Py)/2

		if !finite3(next.X, next.Y, next.Px) || !finite3(next.Py, next.Pz, 0) {
			return nil, &beam.TrackError{
				Particle: particle, Step: i, Z: next.Z,
				Err: beam.ErrNonFiniteState,
			}
		}
	}

	// Field at the final point, for consumers of the dense history.
	last := &pts[n-1]
	fbx, fby, fbz, err := sample(last.X, last.Y, last.Z, n-1)
	if err != nil {
		return nil, err
	}
	last.Bx, last.By, last.Bz = fbx, fby, fbz
	return pts, nil
}

// Track is the thin endpoint-only variant: it runs [TrackInField] and
// discards the intermediate samples, returning just the final
// transverse phase space.
func (t *Tracker) Track(ctx context.Context, ens beam.Ensemble, l float64, n int, energy float64, field beam.FieldSampler) (beam.Ensemble, error) {
	traj, err := t.TrackInField(ctx, ens, l, n, energy, field)
	if err != nil {
		return nil, err
	}
	return traj.Final(ens), nil
}
