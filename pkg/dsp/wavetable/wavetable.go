// Package wavetable provides single-cycle wavetable readout synthesis
// driven by a fundamental-frequency envelope.
package wavetable

import (
	"fmt"
	"math"

	"github.com/ddsp-go/ddsp/pkg/dsp/resample"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// Synthesize reads out time-varying wavetables at the pitch given by f0.
//
// f0 is [B, F, 1] in Hz, amplitudes is [B, F, 1], wavetables is [B, F, W]
// where the W channel values sample one cycle of the waveform. All three
// are stretched to nSamples; the table is read at a fractional position
// driven by the accumulated phase of f0, with linear interpolation and
// wraparound across the cycle boundary.
func Synthesize(f0, amplitudes, wavetables *tensor.Tensor, nSamples int, sampleRate float64) ([][]float64, error) {
	batch, _, channels := f0.Shape()
	if channels != 1 {
		return nil, fmt.Errorf("wavetable: f0 must have one channel, got %d", channels)
	}
	_, _, tableSize := wavetables.Shape()
	if tableSize < 2 {
		return nil, fmt.Errorf("wavetable: table needs at least 2 points, got %d", tableSize)
	}

	freqEnv, err := resample.Resample(f0, nSamples, resample.Linear)
	if err != nil {
		return nil, fmt.Errorf("wavetable: %w", err)
	}
	ampEnv, err := resample.Resample(amplitudes, nSamples, resample.Window)
	if err != nil {
		return nil, fmt.Errorf("wavetable: %w", err)
	}
	tableEnv, err := resample.Resample(wavetables, nSamples, resample.Linear)
	if err != nil {
		return nil, fmt.Errorf("wavetable: %w", err)
	}

	out := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		row := make([]float64, nSamples)
		phase := 0.0
		for n := 0; n < nSamples; n++ {
			phase += freqEnv.At(b, n, 0) / sampleRate
			phase -= math.Floor(phase)

			pos := phase * float64(tableSize)
			i0 := int(pos) % tableSize
			i1 := (i0 + 1) % tableSize
			frac := pos - math.Floor(pos)

			v := tableEnv.At(b, n, i0)*(1.0-frac) + tableEnv.At(b, n, i1)*frac
			row[n] = ampEnv.At(b, n, 0) * v
		}
		out[b] = row
	}
	return out, nil
}

// Sine returns a [1, 1, size] single-cycle sine table, useful as a default
// and in tests.
func Sine(size int) *tensor.Tensor {
	t := tensor.New(1, 1, size)
	for i := 0; i < size; i++ {
		t.Set(0, 0, i, math.Sin(2.0*math.Pi*float64(i)/float64(size)))
	}
	return t
}
