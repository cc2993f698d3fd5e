// Package oscillator provides the additive-synthesis core: a bank of
// sinusoidal oscillators driven by per-sample frequency and amplitude
// envelopes.
package oscillator

import (
	"fmt"
	"math"

	"github.com/ddsp-go/ddsp/pkg/dsp/resample"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

const twoPi = 2.0 * math.Pi

// Bank sums a set of time-varying sinusoids into one signal per batch item.
// It keeps per-oscillator phase between calls so a signal rendered in chunks
// is identical to one rendered in a single pass. Use Synthesize for the
// stateless one-shot case.
type Bank struct {
	sampleRate float64
	phases     []float64
	batch      int
	channels   int
}

// NewBank creates an oscillator bank for the given sample rate.
func NewBank(sampleRate float64) *Bank {
	if sampleRate <= 0 {
		panic(fmt.Sprintf("oscillator: invalid sample rate %g", sampleRate))
	}
	return &Bank{sampleRate: sampleRate}
}

// Reset clears all accumulated phase.
func (k *Bank) Reset() {
	k.phases = nil
	k.batch = 0
	k.channels = 0
}

// Process renders the next chunk of audio. frequencies and amplitudes are
// per-sample envelopes of identical shape [B, N, C]; frequencies are in Hz.
// The output is the [B][N] sum over C of amplitude*sin(phase), where phase
// is the running integral of 2*pi*f/sampleRate, wrapped modulo 2*pi each
// step so it stays numerically stable over long renders. Components at or
// above the Nyquist frequency are silenced.
func (k *Bank) Process(frequencies, amplitudes *tensor.Tensor) [][]float64 {
	if !frequencies.SameShape(amplitudes) {
		bb, bf, bc := frequencies.Shape()
		ab, af, ac := amplitudes.Shape()
		panic(fmt.Sprintf("oscillator: envelope shape mismatch [%d, %d, %d] vs [%d, %d, %d]",
			bb, bf, bc, ab, af, ac))
	}
	batch, nSamples, channels := frequencies.Shape()
	if k.phases == nil || k.batch != batch || k.channels != channels {
		k.phases = make([]float64, batch*channels)
		k.batch = batch
		k.channels = channels
	}

	nyquist := k.sampleRate / 2.0
	out := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		row := make([]float64, nSamples)
		for c := 0; c < channels; c++ {
			phase := k.phases[b*channels+c]
			for n := 0; n < nSamples; n++ {
				f := frequencies.At(b, n, c)
				phase += twoPi * f / k.sampleRate
				if phase >= twoPi {
					phase = math.Mod(phase, twoPi)
				}
				if f < nyquist {
					row[n] += amplitudes.At(b, n, c) * math.Sin(phase)
				}
			}
			k.phases[b*channels+c] = phase
		}
		out[b] = row
	}
	return out
}

// Synthesize renders frequency/amplitude envelopes in one pass starting from
// zero phase.
func Synthesize(frequencies, amplitudes *tensor.Tensor, sampleRate float64) [][]float64 {
	return NewBank(sampleRate).Process(frequencies, amplitudes)
}

// HarmonicFrequencies expands fundamental frequencies [B, F, 1] into the
// harmonic grid [B, F, nHarmonics], where harmonic c is (c+1)*f0.
func HarmonicFrequencies(f0 *tensor.Tensor, nHarmonics int) *tensor.Tensor {
	batch, frames, channels := f0.Shape()
	if channels != 1 {
		panic(fmt.Sprintf("oscillator: f0 must have one channel, got %d", channels))
	}
	out := tensor.New(batch, frames, nHarmonics)
	for b := 0; b < batch; b++ {
		for f := 0; f < frames; f++ {
			base := f0.At(b, f, 0)
			for c := 0; c < nHarmonics; c++ {
				out.Set(b, f, c, base*float64(c+1))
			}
		}
	}
	return out
}

// HarmonicSynthesis renders audio from frame-rate harmonic controls:
// fundamental f0 [B, F, 1], overall amplitude [B, F, 1] and a per-harmonic
// distribution [B, F, K]. Frequencies are interpolated linearly to sample
// rate; amplitudes use Hann-window overlap-add so frame boundaries stay
// smooth.
func HarmonicSynthesis(f0, amplitudes, distribution *tensor.Tensor, nSamples int, sampleRate float64) ([][]float64, error) {
	_, _, nHarmonics := distribution.Shape()
	harmonicFreqs := HarmonicFrequencies(f0, nHarmonics)
	harmonicAmps := distribution.MulBroadcast(amplitudes)

	freqEnv, err := resample.Resample(harmonicFreqs, nSamples, resample.Linear)
	if err != nil {
		return nil, fmt.Errorf("harmonic synthesis: %w", err)
	}
	ampEnv, err := resample.Resample(harmonicAmps, nSamples, resample.Window)
	if err != nil {
		return nil, fmt.Errorf("harmonic synthesis: %w", err)
	}
	return Synthesize(freqEnv, ampEnv, sampleRate), nil
}
