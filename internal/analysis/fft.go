package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the amplitude of each non-negative frequency of data
// after removing its mean, and the frequencies in cycles per sample.
func PowerSpectrum(data []float64) (amp, freq []float64) {
	n := len(data)
	if n < 2 {
		return nil, nil
	}

	mean := stat.Mean(data, nil)
	centred := make([]float64, n)
	for i, v := range data {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centred)
	amp = make([]float64, len(coeff))
	freq = make([]float64, len(coeff))
	for i, c := range coeff {
		amp[i] = cmplx.Abs(c)
		freq[i] = fft.Freq(i)
	}
	return amp, freq
}

// DominantPeriod returns the period, in units of the sample spacing, of the
// strongest non-zero frequency, or 0 when the series is flat.
func DominantPeriod(data []float64) float64 {
	amp, freq := PowerSpectrum(data)
	best := 0
	for i := 1; i < len(amp); i++ {
		if amp[i] > amp[best] || best == 0 {
			best = i
		}
	}
	if best == 0 || amp[best] < 1e-12 {
		return 0
	}
	return 1 / freq[best]
}
