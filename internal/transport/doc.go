// Package transport builds closed-form transport maps for combined
// dipole+quadrupole+sextupole segments and their fringe-field edge
// corrections.
//
//   - [SecondOrder]: the 6x6x6 second-order transport tensor
//   - [FirstOrder]: the companion 6x6 linear matrix
//   - [FringeEntrance], [FringeExit]: edge-kick corrections
//   - [ClosedForm]: a [beam.Propagator] applying R and T to an ensemble
//
// The formulas integrate products of the homogeneous basis functions
// cx, sx, cy, sy, dx against the transverse Green's functions. Both
// planes are covered by one formula family: kx and ky are taken through
// a complex square root so imaginary wave numbers fold into the real
// hyperbolic branch of cos and sin.
//
// Degenerate strengths (kx^2 = 0 or ky^2 = 0) select separate closed
// forms per integral; each case is algebraically continuous with its
// neighbors at the boundary. Selection is by exact comparison, never by
// an epsilon threshold.
package transport
