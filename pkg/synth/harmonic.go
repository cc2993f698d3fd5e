package synth

import (
	"github.com/ddsp-go/ddsp/pkg/dsp/oscillator"
	"github.com/ddsp-go/ddsp/pkg/dsp/scale"
	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
)

// HarmonicConfig configures a Harmonic synthesizer. Zero values take the
// defaults noted per field.
type HarmonicConfig struct {
	NSamples   int      // output length, default 64000
	SampleRate int      // default 16000
	ScaleFn    scale.Fn // amplitude nonlinearity, default scale.ExpSigmoid

	// DisableBandLimiting skips the Nyquist masking of the harmonic
	// distribution. Masking is on by default; harmonics above Nyquist
	// alias back into the audible band.
	DisableBandLimiting bool
}

// Harmonic synthesizes audio with a bank of harmonic sinusoidal
// oscillators: a fundamental frequency, an overall amplitude, and a
// normalized per-harmonic amplitude distribution.
type Harmonic struct {
	cfg HarmonicConfig
}

// NewHarmonic creates a harmonic additive synthesizer.
func NewHarmonic(cfg HarmonicConfig) *Harmonic {
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.ScaleFn == nil {
		cfg.ScaleFn = scale.ExpSigmoid
	}
	return &Harmonic{cfg: cfg}
}

// Name implements Synthesizer.
func (h *Harmonic) Name() string { return "harmonic" }

// Inputs implements Synthesizer.
func (h *Harmonic) Inputs() []ControlSpec {
	return []ControlSpec{
		{Key: "amplitudes", Channels: 1},
		{Key: "harmonic_distribution"},
		{Key: "f0_hz", Channels: 1},
	}
}

// GetControls scales the raw amplitude and distribution logits, masks
// harmonics above Nyquist, and renormalizes the distribution so it sums to
// one across harmonics.
func (h *Harmonic) GetControls(raw Controls) (Controls, error) {
	amplitudes, err := get(raw, "amplitudes")
	if err != nil {
		return nil, err
	}
	distribution, err := get(raw, "harmonic_distribution")
	if err != nil {
		return nil, err
	}
	f0, err := get(raw, "f0_hz")
	if err != nil {
		return nil, err
	}

	amplitudes = amplitudes.Apply(h.cfg.ScaleFn)
	distribution = distribution.Apply(h.cfg.ScaleFn)

	if !h.cfg.DisableBandLimiting {
		_, _, nHarmonics := distribution.Shape()
		harmonicFreqs := oscillator.HarmonicFrequencies(f0, nHarmonics)
		distribution = spectral.RemoveAboveNyquist(harmonicFreqs, distribution,
			float64(h.cfg.SampleRate))
	}
	distribution = distribution.NormalizeChannels(scale.Epsilon)

	return Controls{
		"amplitudes":            amplitudes,
		"harmonic_distribution": distribution,
		"f0_hz":                 f0,
	}, nil
}

// GetSignal renders the harmonic oscillator bank on the f0-multiplied
// frequency grid with per-harmonic amplitudes amplitude*distribution.
func (h *Harmonic) GetSignal(controls Controls) ([][]float64, error) {
	amplitudes, err := get(controls, "amplitudes")
	if err != nil {
		return nil, err
	}
	distribution, err := get(controls, "harmonic_distribution")
	if err != nil {
		return nil, err
	}
	f0, err := get(controls, "f0_hz")
	if err != nil {
		return nil, err
	}
	return oscillator.HarmonicSynthesis(f0, amplitudes, distribution,
		h.cfg.NSamples, float64(h.cfg.SampleRate))
}

var _ Synthesizer = (*Harmonic)(nil)
