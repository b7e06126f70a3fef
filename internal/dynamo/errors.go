package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNoAtoms indicates an operation that needs at least one atom.
	ErrNoAtoms = errors.New("dynamo: configuration has no atoms")

	// ErrInvalidState indicates NaN or Inf in positions, velocities or energies.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates per-atom slices of different lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between per-atom arrays")

	// ErrNoCalculator indicates an energy or force request on atoms without a calculator.
	ErrNoCalculator = errors.New("dynamo: no calculator attached")
)

// SimulationError wraps an error with the phase and step it happened in.
type SimulationError struct {
	Phase   string
	Step    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%s step %d: %v", e.Phase, e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
