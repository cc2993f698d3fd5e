// Package scale provides the nonlinearities that map raw network logits to
// physically meaningful synthesizer controls: strictly positive amplitudes,
// Hz-ranged frequencies and normalized distributions.
package scale

import (
	"math"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// Epsilon guards divisions against zero denominators throughout the
// synthesis packages.
const Epsilon = 1e-7

// Defaults for the exponentiated-sigmoid family.
const (
	DefaultMaxValue  = 2.0
	DefaultExponent  = 2.302585092994046 // ln(10)
	DefaultThreshold = 1e-7
)

// Fn is an elementwise scaling nonlinearity applied to a logit.
type Fn func(x float64) float64

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// ExpSigmoid maps a logit to a strictly positive value with more grading
// across its output range than a plain sigmoid:
//
//	maxValue * sigmoid(x)^exponent + threshold
func ExpSigmoid(x float64) float64 {
	return ExpSigmoidFull(x, DefaultMaxValue, DefaultExponent, DefaultThreshold)
}

// ExpSigmoidFull is ExpSigmoid with explicit range parameters.
func ExpSigmoidFull(x, maxValue, exponent, threshold float64) float64 {
	return maxValue*math.Pow(Sigmoid(x), exponent) + threshold
}

// HzSigmoid returns a Fn mapping logits into [hzMin, hzMax] via a sigmoid.
// Used for frequency controls that must stay strictly positive and bounded.
func HzSigmoid(hzMin, hzMax float64) Fn {
	return func(x float64) float64 {
		return hzMin + (hzMax-hzMin)*Sigmoid(x)
	}
}

// FrequenciesSigmoid maps a logit tensor to Hz with an independent sigmoid
// per element, scaled into [hzMin, hzMax].
func FrequenciesSigmoid(t *tensor.Tensor, hzMin, hzMax float64) *tensor.Tensor {
	return t.Apply(HzSigmoid(hzMin, hzMax))
}

// FrequenciesSoftmax maps logits over nBins frequency bins per component to
// Hz. The channel axis of t must factor as components*nBins; the softmax
// weights a linear grid of bin frequencies spanning [hzMin, hzMax], so each
// component lands at the expected value of its bin distribution.
func FrequenciesSoftmax(t *tensor.Tensor, nBins int, hzMin, hzMax float64) *tensor.Tensor {
	batch, frames, channels := t.Shape()
	if nBins <= 0 || channels%nBins != 0 {
		panic("scale: FrequenciesSoftmax channel axis does not factor into bins")
	}
	components := channels / nBins

	// Linear Hz grid, one frequency per bin.
	grid := make([]float64, nBins)
	for i := range grid {
		if nBins == 1 {
			grid[i] = hzMax
			continue
		}
		grid[i] = hzMin + (hzMax-hzMin)*float64(i)/float64(nBins-1)
	}

	out := tensor.New(batch, frames, components)
	logits := make([]float64, nBins)
	for b := 0; b < batch; b++ {
		for f := 0; f < frames; f++ {
			for k := 0; k < components; k++ {
				for i := 0; i < nBins; i++ {
					logits[i] = t.At(b, f, k*nBins+i)
				}
				out.Set(b, f, k, dot(softmax(logits), grid))
			}
		}
	}
	return out
}

// softmax computes a numerically stable softmax in place and returns its
// argument.
func softmax(x []float64) []float64 {
	maxv := x[0]
	for _, v := range x[1:] {
		if v > maxv {
			maxv = v
		}
	}
	sum := 0.0
	for i, v := range x {
		x[i] = math.Exp(v - maxv)
		sum += x[i]
	}
	inv := 1.0 / (sum + Epsilon)
	for i := range x {
		x[i] *= inv
	}
	return x
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SafeDivide divides a by b with an epsilon guard on the denominator.
func SafeDivide(a, b float64) float64 {
	return a / (b + Epsilon)
}
