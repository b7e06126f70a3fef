// Package dynamo provides the core types shared by every stage of a molecular
// dynamics run.
//
// The package defines:
//
//   - [Atoms]: an ordered atomic configuration with an orthorhombic cell
//   - [Calculator]: a potential evaluator attached to an [Atoms]
//   - [Evaluation]: energies and forces produced by a [Calculator]
//   - [Integrator]: advances an [Atoms] by one timestep in place
//   - [Observer]: reads an [Atoms] at fixed step intervals
//
// # Units
//
// Lengths are in Å, energies in eV, masses in amu and time in the derived unit
// Å·sqrt(amu/eV). [Fs] converts femtoseconds into that unit and [KB] is the
// Boltzmann constant in eV/K.
//
// # Example
//
//	atoms, _ := lattice.FCC(lattice.Spec{Symbol: "Cu", Size: [3]int{3, 3, 3}, PBC: [3]bool{true, true, true}})
//	atoms.SetCalculator(physics.NewReferenceEMT())
//	epot, _ := atoms.PotentialEnergy(ctx)
//
// # Thread Safety
//
// Atoms is NOT safe for concurrent mutation. Calculators may read it from
// several goroutines during one Calculate call.
package dynamo
