package spectral

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
	"github.com/ddsp-go/ddsp/pkg/dsp/window"
)

// FrequencyFilter applies a slowly time-varying FIR filter to a signal.
// magnitudes holds per-frame magnitude spectra [B, F, K] (K bins, linearly
// spaced from DC to Nyquist); each frame's spectrum becomes a linear-phase
// windowed impulse response of length windowSize, the signal is split into F
// equal blocks, each block is convolved with its frame's response, and the
// blocks are overlap-added. The group delay of the linear-phase responses is
// compensated so the output is time-aligned with the input and has the same
// length.
func FrequencyFilter(signal [][]float64, magnitudes *tensor.Tensor, windowSize int) ([][]float64, error) {
	batch, frames, bins := magnitudes.Shape()
	if len(signal) != batch {
		return nil, fmt.Errorf("spectral: signal batch %d does not match magnitudes batch %d",
			len(signal), batch)
	}
	if bins < 2 {
		return nil, fmt.Errorf("spectral: need at least 2 frequency bins, got %d", bins)
	}
	nSamples := len(signal[0])
	if nSamples%frames != 0 {
		return nil, fmt.Errorf("spectral: signal length %d not divisible into %d frames",
			nSamples, frames)
	}
	hop := nSamples / frames

	fftSize := 2 * (bins - 1)
	irSize := windowSize
	if irSize <= 0 || irSize > fftSize {
		irSize = fftSize
	}
	delay := (irSize - 1) / 2

	out := make([][]float64, batch)
	mags := make([]float64, bins)
	for b := 0; b < batch; b++ {
		if len(signal[b]) != nSamples {
			return nil, fmt.Errorf("spectral: ragged signal batch: %d vs %d samples",
				len(signal[b]), nSamples)
		}
		// Overlap-add buffer long enough for every block's convolution tail.
		acc := make([]float64, nSamples+irSize-1)
		for f := 0; f < frames; f++ {
			for k := 0; k < bins; k++ {
				mags[k] = magnitudes.At(b, f, k)
			}
			ir := impulseResponse(mags, irSize)
			block := signal[b][f*hop : (f+1)*hop]
			seg := convolve(block, ir)
			for i, v := range seg {
				acc[f*hop+i] += v
			}
		}
		out[b] = acc[delay : delay+nSamples]
	}
	return out, nil
}

// impulseResponse turns one frame's magnitude spectrum into a linear-phase
// FIR of length irSize. The zero-phase response from the inverse transform
// is rotated to center and shaped with a Hann window to suppress block-edge
// ringing.
func impulseResponse(magnitudes []float64, irSize int) []float64 {
	bins := len(magnitudes)
	fftSize := 2 * (bins - 1)

	// Hermitian-symmetric spectrum with zero phase.
	spectrum := make([]complex128, fftSize)
	for k := 0; k < bins; k++ {
		spectrum[k] = complex(magnitudes[k], 0)
	}
	for k := 1; k < bins-1; k++ {
		spectrum[fftSize-k] = complex(magnitudes[k], 0)
	}

	timeDomain := fft.IFFT(spectrum)

	// Rotate the circular zero-phase response so it is centered, then crop
	// irSize samples around the center and apply the window.
	centered := make([]float64, fftSize)
	half := fftSize / 2
	for i := 0; i < fftSize; i++ {
		centered[i] = real(timeDomain[(i+half)%fftSize])
	}

	win := window.Make(window.Hann, irSize)
	ir := make([]float64, irSize)
	start := half - irSize/2
	for i := 0; i < irSize; i++ {
		ir[i] = centered[start+i] * win[i]
	}
	return ir
}

// convolve returns the full linear convolution of x and h via the FFT.
func convolve(x, h []float64) []float64 {
	outLen := len(x) + len(h) - 1
	size := nextPow2(outLen)

	xPad := make([]float64, size)
	hPad := make([]float64, size)
	copy(xPad, x)
	copy(hPad, h)

	xf := fft.FFTReal(xPad)
	hf := fft.FFTReal(hPad)
	for i := range xf {
		xf[i] *= hf[i]
	}
	y := fft.IFFT(xf)

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(y[i])
	}
	return out
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// RMS returns the root-mean-square level of a signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range signal {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(signal)))
}
