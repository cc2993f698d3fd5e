package synth

import (
	"math"
	"math/rand"

	"github.com/ddsp-go/ddsp/pkg/dsp/resample"
	"github.com/ddsp-go/ddsp/pkg/dsp/scale"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// ImpactConfig configures an Impact synthesizer.
type ImpactConfig struct {
	NSamples   int // output length, default 64000
	SampleRate int // default 16000

	MagScaleFn scale.Fn // magnitude nonlinearity, default scale.ExpSigmoid

	// ResampleMethod stretches magnitude/tau controls to sample rate.
	// Defaults to resample.Window.
	ResampleMethod resample.Method

	// MaxTau bounds the contact time constant in seconds. Default 1ms.
	MaxTau float64

	// MaxImpactFrequency is the highest impact rate in Hz; the peak picker
	// admits at most one impact per window of sampleRate/maxImpactFrequency
	// samples. Default 30.
	MaxImpactFrequency float64

	// Noise perturbs the raw magnitudes with stdev-weighted Gaussian noise
	// before scaling, as used during training. Nil leaves the magnitudes
	// deterministic.
	Noise *rand.Rand
}

// Impact synthesizes a force-impulse profile with a Gaussian contact model:
// one Gaussian pulse per detected magnitude peak, with width derived from
// the contact time constant tau.
type Impact struct {
	cfg ImpactConfig
}

// NewImpact creates an impact-profile synthesizer.
func NewImpact(cfg ImpactConfig) *Impact {
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.MagScaleFn == nil {
		cfg.MagScaleFn = scale.ExpSigmoid
	}
	if cfg.ResampleMethod == "" {
		cfg.ResampleMethod = resample.Window
	}
	if cfg.MaxTau == 0 {
		cfg.MaxTau = 0.001
	}
	if cfg.MaxImpactFrequency == 0 {
		cfg.MaxImpactFrequency = 30.0
	}
	return &Impact{cfg: cfg}
}

// Name implements Synthesizer.
func (im *Impact) Name() string { return "impact" }

// Inputs implements Synthesizer.
func (im *Impact) Inputs() []ControlSpec {
	return []ControlSpec{
		{Key: "magnitudes", Channels: 1},
		{Key: "stdevs", Channels: 1},
		{Key: "taus", Channels: 1},
		{Key: "tau_multiplier", Channels: 1},
	}
}

// GetControls scales magnitudes (optionally perturbed by stdev-weighted
// noise) and derives the attack time constant:
//
//	tau = maxTau * scale(2*tauMultiplier) * scale(0.5*tau) + 1/sampleRate
//
// The additive 1/sampleRate keeps tau strictly positive at sample scale.
func (im *Impact) GetControls(raw Controls) (Controls, error) {
	magnitudes, err := get(raw, "magnitudes")
	if err != nil {
		return nil, err
	}
	stdevs, err := get(raw, "stdevs")
	if err != nil {
		return nil, err
	}
	taus, err := get(raw, "taus")
	if err != nil {
		return nil, err
	}
	tauMultiplier, err := get(raw, "tau_multiplier")
	if err != nil {
		return nil, err
	}

	perturbed := magnitudes.Clone()
	if im.cfg.Noise != nil {
		pd := perturbed.Data()
		sd := stdevs.Data()
		for i := range pd {
			pd[i] += math.Abs(sd[i]) * im.cfg.Noise.NormFloat64()
		}
	}
	perturbed.ApplyInPlace(im.cfg.MagScaleFn)

	batch, frames, _ := taus.Shape()
	minTau := 1.0 / float64(im.cfg.SampleRate)
	scaledTaus := tensor.New(batch, frames, 1)
	for b := 0; b < batch; b++ {
		mult := im.cfg.MagScaleFn(2.0 * tauMultiplier.At(b, 0, 0))
		for f := 0; f < frames; f++ {
			tau := im.cfg.MaxTau*mult*im.cfg.MagScaleFn(0.5*taus.At(b, f, 0)) + minTau
			scaledTaus.Set(b, f, 0, tau)
		}
	}

	return Controls{
		"magnitudes": perturbed,
		"stdevs":     stdevs,
		"taus":       scaledTaus,
	}, nil
}

// GetSignal stretches the magnitude and tau controls to sample resolution,
// picks one peak per fixed-size window (windowed max, first index on ties),
// and sums a Gaussian pulse per peak:
//
//	pulse(t) = peak * exp(-6/tau^2 * (t - tPeak - tau/2)^2)
func (im *Impact) GetSignal(controls Controls) ([][]float64, error) {
	magnitudes, err := get(controls, "magnitudes")
	if err != nil {
		return nil, err
	}
	taus, err := get(controls, "taus")
	if err != nil {
		return nil, err
	}

	magEnv, err := resample.Resample(magnitudes, im.cfg.NSamples, im.cfg.ResampleMethod)
	if err != nil {
		return nil, err
	}
	tauEnv, err := resample.Resample(taus, im.cfg.NSamples, im.cfg.ResampleMethod)
	if err != nil {
		return nil, err
	}

	sr := float64(im.cfg.SampleRate)
	windowSize := int(sr / im.cfg.MaxImpactFrequency)
	if windowSize < 1 {
		windowSize = 1
	}

	batch, _, _ := magEnv.Shape()
	out := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		peakTimes, peakHeights := findPeaks(magEnv, b, im.cfg.NSamples, windowSize, sr)
		row := make([]float64, im.cfg.NSamples)
		for n := 0; n < im.cfg.NSamples; n++ {
			t := float64(n) / sr
			tau := tauEnv.At(b, n, 0)
			coef := -6.0 / (tau * tau)
			sum := 0.0
			for p := range peakTimes {
				d := t - peakTimes[p] - tau/2.0
				sum += peakHeights[p] * math.Exp(coef*d*d)
			}
			row[n] = sum
		}
		out[b] = row
	}
	return out, nil
}

// findPeaks runs a max pool with stride equal to the window size over one
// batch row of the magnitude envelope, keeping the first index on ties. The
// final window may be shorter than windowSize.
func findPeaks(magEnv *tensor.Tensor, b, nSamples, windowSize int, sampleRate float64) (times, heights []float64) {
	for start := 0; start < nSamples; start += windowSize {
		end := start + windowSize
		if end > nSamples {
			end = nSamples
		}
		maxIdx := start
		maxVal := magEnv.At(b, start, 0)
		for n := start + 1; n < end; n++ {
			if v := magEnv.At(b, n, 0); v > maxVal {
				maxVal = v
				maxIdx = n
			}
		}
		times = append(times, float64(maxIdx)/sampleRate)
		heights = append(heights, maxVal)
	}
	return times, heights
}

var _ Synthesizer = (*Impact)(nil)
