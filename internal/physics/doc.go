// Package physics provides interatomic potential evaluators.
//
// Each evaluator implements the [dynamo.Calculator] interface, returning the
// total energy, per-atom energies and forces of a configuration:
//
//   - [NewEMT]: Effective Medium Theory on a cell-binned neighbour list, with
//     kernels spread over all CPUs
//   - [NewReferenceEMT]: the same model on a brute-force neighbour search,
//     evaluated serially
//
// Both variants share the parameter table and kernels, so they agree up to
// floating-point summation order.
//
// # Energy Reference
//
// EMT energies are measured against the perfect FCC crystal of each element at
// its equilibrium Wigner-Seitz radius, so relaxed bulk metal sits slightly
// below zero and an isolated atom sits at -E0:
//
//	atoms.SetCalculator(physics.NewEMT())
//	epot, err := atoms.PotentialEnergy(ctx)
package physics
