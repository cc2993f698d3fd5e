// Package resample stretches frame-rate control tensors to per-sample
// resolution. Amplitude-like controls should use the Window method, which
// reconstructs the envelope by overlap-adding Hann windows and so avoids
// discontinuities at frame boundaries; frequency-like controls are usually
// fine with Linear or Cubic interpolation.
package resample

import (
	"fmt"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
	"github.com/ddsp-go/ddsp/pkg/dsp/window"
)

// Method selects the interpolation used to stretch a control tensor.
type Method string

const (
	// Nearest holds each frame value until the next frame.
	Nearest Method = "nearest"
	// Linear interpolates linearly between adjacent frames.
	Linear Method = "linear"
	// Cubic interpolates with a 4-point Catmull-Rom spline.
	Cubic Method = "cubic"
	// Window overlap-adds 50%-overlapping Hann windows scaled by the frame
	// values. Adjacent windows sum to one, so the reconstruction is
	// energy preserving. Requires the sample count to be a multiple of the
	// frame count.
	Window Method = "window"
)

// ParseMethod converts a configuration string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case Nearest, Linear, Cubic, Window:
		return Method(s), nil
	}
	return "", fmt.Errorf("resample: unknown method %q", s)
}

// Resample stretches a [B, F, C] control tensor to [B, nSamples, C].
// Endpoints are aligned: the first frame maps to the first sample and the
// last frame to the last sample, so a round trip at F == nSamples is the
// identity. Shrinking (F > nSamples) is not supported.
func Resample(t *tensor.Tensor, nSamples int, method Method) (*tensor.Tensor, error) {
	batch, frames, channels := t.Shape()
	if nSamples <= 0 {
		return nil, fmt.Errorf("resample: invalid sample count %d", nSamples)
	}
	if frames > nSamples {
		return nil, fmt.Errorf("resample: cannot shrink %d frames to %d samples", frames, nSamples)
	}
	if frames == nSamples {
		return t.Clone(), nil
	}

	switch method {
	case Nearest, Linear, Cubic:
		out := tensor.New(batch, nSamples, channels)
		interpolate(t, out, method)
		return out, nil
	case Window:
		if nSamples%frames != 0 {
			return nil, fmt.Errorf("resample: window method needs sample count %d divisible by frame count %d",
				nSamples, frames)
		}
		return overlapAdd(t, nSamples), nil
	}
	return nil, fmt.Errorf("resample: unknown method %q", method)
}

func interpolate(src, dst *tensor.Tensor, method Method) {
	batch, frames, channels := src.Shape()
	_, nSamples, _ := dst.Shape()

	for n := 0; n < nSamples; n++ {
		// Source position with aligned endpoints.
		var pos float64
		if frames > 1 {
			pos = float64(n) * float64(frames-1) / float64(nSamples-1)
		}
		i := int(pos)
		if i > frames-2 {
			i = frames - 2
		}
		if i < 0 {
			i = 0
		}
		frac := pos - float64(i)

		for b := 0; b < batch; b++ {
			for c := 0; c < channels; c++ {
				var v float64
				switch {
				case frames == 1:
					v = src.At(b, 0, c)
				case method == Nearest:
					v = src.At(b, nearestIndex(pos, frames), c)
				case method == Linear:
					v = lerp(src.At(b, i, c), src.At(b, i+1, c), frac)
				default: // Cubic
					v = catmullRom(
						src.At(b, clampFrame(i-1, frames), c),
						src.At(b, i, c),
						src.At(b, i+1, c),
						src.At(b, clampFrame(i+2, frames), c),
						frac)
				}
				dst.Set(b, n, c, v)
			}
		}
	}
}

func nearestIndex(pos float64, frames int) int {
	i := int(pos + 0.5)
	if i > frames-1 {
		i = frames - 1
	}
	return i
}

func clampFrame(i, frames int) int {
	if i < 0 {
		return 0
	}
	if i > frames-1 {
		return frames - 1
	}
	return i
}

// lerp performs linear interpolation between two frame values.
func lerp(y0, y1, frac float64) float64 {
	return y0 + (y1-y0)*frac
}

// catmullRom performs 4-point Catmull-Rom cubic spline interpolation.
// frac is the fractional position between y1 and y2 (0.0 to 1.0).
func catmullRom(y0, y1, y2, y3, frac float64) float64 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5 * (y3 - y0 + 3*(y1-y2))
	return ((c3*frac+c2)*frac+c1)*frac + c0
}

// overlapAdd expands each frame value into a Hann window of twice the hop
// size and sums the 50%-overlapping windows. The frame sequence is padded by
// replicating the first and last frames so edge samples see a full window
// pair and the weights still sum to one everywhere.
func overlapAdd(src *tensor.Tensor, nSamples int) *tensor.Tensor {
	batch, frames, channels := src.Shape()
	hop := nSamples / frames
	win := window.HannPeriodic(2 * hop)

	dst := tensor.New(batch, nSamples, channels)
	// Padded frame p covers samples [(p-1)*hop, (p+1)*hop); p ranges over
	// [0, frames+1] with edge-replicated values.
	for p := 0; p <= frames+1; p++ {
		frame := clampFrame(p-1, frames)
		start := (p - 1) * hop
		for k := 0; k < 2*hop; k++ {
			n := start + k
			if n < 0 || n >= nSamples {
				continue
			}
			for b := 0; b < batch; b++ {
				for c := 0; c < channels; c++ {
					dst.Set(b, n, c, dst.At(b, n, c)+src.At(b, frame, c)*win[k])
				}
			}
		}
	}
	return dst
}
