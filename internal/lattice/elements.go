package lattice

// Note that only the metals the EMT parameterization covers are present.
var symbolMass = map[string]float64{
	"Al": 26.9815385,
	"Ni": 58.6934,
	"Cu": 63.546,
	"Pd": 106.42,
	"Ag": 107.8682,
	"Pt": 195.084,
	"Au": 196.966569,
}

// FCC lattice constants in Å.
var fccLatticeConstant = map[string]float64{
	"Al": 4.05,
	"Ni": 3.52,
	"Cu": 3.61,
	"Pd": 3.89,
	"Ag": 4.09,
	"Pt": 3.92,
	"Au": 4.08,
}

// Mass returns the atomic mass of symbol in amu.
func Mass(symbol string) (float64, bool) {
	m, ok := symbolMass[symbol]
	return m, ok
}

// LatticeConstant returns the reference FCC lattice constant of symbol in Å.
func LatticeConstant(symbol string) (float64, bool) {
	a, ok := fccLatticeConstant[symbol]
	return a, ok
}
