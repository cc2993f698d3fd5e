package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/ddsp-go/ddsp/pkg/dsp/window"
)

// MagnitudeSpectrum returns the single-sided magnitude spectrum of a signal
// after applying a Hann window. The result has len(signal)/2+1 bins.
func MagnitudeSpectrum(signal []float64) []float64 {
	n := len(signal)
	win := window.Make(window.Hann, n)
	buf := make([]float64, n)
	for i, v := range signal {
		buf[i] = v * win[i]
	}
	spectrum := fft.FFTReal(buf)
	mags := make([]float64, n/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	return mags
}

// PeakFrequency returns the frequency and magnitude of the strongest bin in
// the signal's spectrum.
func PeakFrequency(signal []float64, sampleRate float64) (hz, magnitude float64) {
	mags := MagnitudeSpectrum(signal)
	peak := 0
	for i, m := range mags {
		if m > mags[peak] {
			peak = i
		}
	}
	binWidth := sampleRate / float64(len(signal))
	return float64(peak) * binWidth, mags[peak]
}

// SpectralCentroid returns the magnitude-weighted mean frequency of the
// signal's spectrum, a rough brightness measure.
func SpectralCentroid(signal []float64, sampleRate float64) float64 {
	mags := MagnitudeSpectrum(signal)
	binWidth := sampleRate / float64(len(signal))
	num, den := 0.0, 0.0
	for i, m := range mags {
		num += float64(i) * binWidth * m
		den += m
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

// Energy returns the sum of squared magnitudes over a bin range, clamped to
// the spectrum bounds.
func Energy(mags []float64, lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(mags) {
		hi = len(mags)
	}
	sum := 0.0
	for i := lo; i < hi; i++ {
		sum += mags[i] * mags[i]
	}
	return sum
}
