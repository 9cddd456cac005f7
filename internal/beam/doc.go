// Package beam provides core phase-space primitives for beamline transport.
//
// The package defines the fundamental types shared by the map builders and
// the numerical trackers:
//
//   - [State]: six-coordinate phase-space vector (x, px, y, py, sigma, delta)
//   - [Ensemble]: N independent particle states
//   - [Segment]: beamline segment parameters (L, h, k1, k2)
//   - [Tensor]: second-order transport tensor with symmetric read access
//   - [FieldSampler]: externally supplied magnetic field (x,y,z) -> (Bx,By,Bz)
//   - [Propagator]: a segment map, closed-form or numerically integrated
//
// # Example
//
//	seg := beam.Segment{L: 1.0, H: 0.1}
//	prop := transport.NewClosedForm(0)
//	out, _ := prop.Propagate(ctx, seg, ens)
//
// # Thread Safety
//
// States and segments are plain values. A [FieldSampler] must be read-only
// and side-effect-free; it may be called concurrently without locking.
package beam
