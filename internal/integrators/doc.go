// Package integrators provides the numerical segment propagators: a
// fixed-step symplectic stepper for analytic segment parameters and a
// 4th-order Runge-Kutta tracker for arbitrary externally supplied
// magnetic fields.
//
//   - [Symplectic]: structure-preserving ensemble stepper, implements
//     [beam.Propagator]
//   - [SymplecticFirstOrder]: cheaper linear-kick variant, a distinct
//     algorithm exposed separately
//   - [Tracker]: RK4 through a [beam.FieldSampler], dense trajectory out
//   - [Oracle]: adaptive Dormand-Prince cross-validation solver, never a
//     production path
//
// Step sizes and sample counts are caller-visible through [Config].
// The longitudinal loop is sequential; the per-particle arithmetic of a
// step is parallelized, since particles never exchange state.
package integrators
