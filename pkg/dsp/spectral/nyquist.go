// Package spectral provides Nyquist band-limiting, the time-varying
// frequency-domain FIR filter, and spectrum analysis helpers. All FFT work
// goes through github.com/mjibson/go-dsp/fft.
package spectral

import (
	"fmt"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// RemoveAboveNyquist zeroes every amplitude whose co-indexed frequency is at
// or above half the sample rate. It is a hard elementwise mask: components
// below Nyquist pass through untouched. Additive synthesis of components
// above Nyquist folds back as audible aliasing, so callers mask before
// synthesis whenever band-limiting is requested.
func RemoveAboveNyquist(frequencies, amplitudes *tensor.Tensor, sampleRate float64) *tensor.Tensor {
	if !frequencies.SameShape(amplitudes) {
		fb, ff, fc := frequencies.Shape()
		ab, af, ac := amplitudes.Shape()
		panic(fmt.Sprintf("spectral: frequency/amplitude shape mismatch [%d, %d, %d] vs [%d, %d, %d]",
			fb, ff, fc, ab, af, ac))
	}
	nyquist := sampleRate / 2.0
	out := amplitudes.Clone()
	fd := frequencies.Data()
	od := out.Data()
	for i, f := range fd {
		if f >= nyquist {
			od[i] = 0.0
		}
	}
	return out
}
