// Package envelope provides amplitude envelope construction for synthesis.
package envelope

import (
	"fmt"
	"math"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// Decay builds per-sample exponential decay envelopes
//
//	env[b, n, c] = gain[b, 0, c] * exp(-damping[b, 0, c] * n/sampleRate)
//
// from held (frame-zero) gains and dampings of shape [B, F, C]. Dampings are
// in nepers per second; a damping of zero holds the gain steady.
func Decay(gains, dampings *tensor.Tensor, nSamples int, sampleRate float64) *tensor.Tensor {
	if !gains.SameShape(dampings) {
		gb, gf, gc := gains.Shape()
		db, df, dc := dampings.Shape()
		panic(fmt.Sprintf("envelope: gain/damping shape mismatch [%d, %d, %d] vs [%d, %d, %d]",
			gb, gf, gc, db, df, dc))
	}
	batch, _, channels := gains.Shape()
	out := tensor.New(batch, nSamples, channels)
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			gain := gains.At(b, 0, c)
			damping := dampings.At(b, 0, c)
			// iterative multiply, exact for a constant rate
			step := math.Exp(-damping / sampleRate)
			v := gain
			for n := 0; n < nSamples; n++ {
				out.Set(b, n, c, v)
				v *= step
			}
		}
	}
	return out
}

// Hold fills [B, nSamples, C] with the frame-zero values of a control.
func Hold(controls *tensor.Tensor, nSamples int) *tensor.Tensor {
	batch, _, channels := controls.Shape()
	out := tensor.New(batch, nSamples, channels)
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			v := controls.At(b, 0, c)
			for n := 0; n < nSamples; n++ {
				out.Set(b, n, c, v)
			}
		}
	}
	return out
}
