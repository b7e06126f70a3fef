package dynamo

const (
	// KB is the Boltzmann constant in eV/K.
	KB = 8.617333262e-5

	// Fs is one femtosecond in Å·sqrt(amu/eV).
	Fs = 0.09822694788464063

	// Bohr is the Bohr radius in Å.
	Bohr = 0.5291772105638411
)
