package beam

import (
	"errors"
	"fmt"
)

// Domain errors for transport operations.
var (
	// ErrInvalidParameter indicates caller input on an undefined branch,
	// e.g. a pole face angle of +-90 degrees.
	ErrInvalidParameter = errors.New("beam: invalid parameter")

	// ErrNonFiniteField indicates a field sampler returned NaN or Inf.
	ErrNonFiniteField = errors.New("beam: non-finite field sample")

	// ErrNonFiniteState indicates a particle state contains NaN or Inf.
	ErrNonFiniteState = errors.New("beam: non-finite state (NaN or Inf detected)")

	// ErrEmptyEnsemble indicates an operation received no particles.
	ErrEmptyEnsemble = errors.New("beam: empty ensemble")
)

// TrackError identifies which particle's computation failed and where
// along the segment.
type TrackError struct {
	Particle int
	Step     int
	Z        float64
	Err      error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("particle %d, step %d (z=%.6f): %v", e.Particle, e.Step, e.Z, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}
