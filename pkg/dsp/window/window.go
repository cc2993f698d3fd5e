// Package window provides window functions shared by the spectral and
// resampling packages.
package window

import "math"

// Func identifies a window shape.
type Func int

const (
	Rectangular Func = iota
	Hann
	Hamming
	Blackman
)

// Make returns a symmetric window of the given size.
func Make(fn Func, size int) []float64 {
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1.0
		return w
	}
	n := float64(size - 1)
	for i := 0; i < size; i++ {
		x := float64(i)
		switch fn {
		case Rectangular:
			w[i] = 1.0
		case Hann:
			w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*x/n))
		case Hamming:
			w[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*x/n)
		case Blackman:
			v := 0.42 - 0.5*math.Cos(2.0*math.Pi*x/n) + 0.08*math.Cos(4.0*math.Pi*x/n)
			if v < 0 {
				v = 0
			}
			w[i] = v
		}
	}
	return w
}

// HannPeriodic returns a periodic Hann window of the given size. With 50%
// overlap consecutive periodic Hann windows sum to exactly one, which makes
// it the right shape for energy-preserving overlap-add reconstruction.
func HannPeriodic(size int) []float64 {
	w := make([]float64, size)
	n := float64(size)
	for i := 0; i < size; i++ {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/n))
	}
	return w
}
