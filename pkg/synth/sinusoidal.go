package synth

import (
	"github.com/ddsp-go/ddsp/pkg/dsp/oscillator"
	"github.com/ddsp-go/ddsp/pkg/dsp/resample"
	"github.com/ddsp-go/ddsp/pkg/dsp/scale"
	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// FreqScaleFn maps a tensor of raw frequency logits to strictly positive
// frequencies in Hz.
type FreqScaleFn func(*tensor.Tensor) *tensor.Tensor

// SigmoidFreqScale returns a FreqScaleFn applying an elementwise sigmoid
// mapped into [hzMin, hzMax].
func SigmoidFreqScale(hzMin, hzMax float64) FreqScaleFn {
	return func(t *tensor.Tensor) *tensor.Tensor {
		return scale.FrequenciesSigmoid(t, hzMin, hzMax)
	}
}

// SoftmaxFreqScale returns a FreqScaleFn that treats each component's
// channel block as nBins frequency-bin logits and maps the softmax over
// them onto a linear Hz grid spanning [hzMin, hzMax].
func SoftmaxFreqScale(nBins int, hzMin, hzMax float64) FreqScaleFn {
	return func(t *tensor.Tensor) *tensor.Tensor {
		return scale.FrequenciesSoftmax(t, nBins, hzMin, hzMax)
	}
}

// SinusoidalConfig configures a Sinusoidal synthesizer.
type SinusoidalConfig struct {
	NSamples   int // output length, default 64000
	SampleRate int // default 16000

	AmpScaleFn scale.Fn // amplitude nonlinearity, default scale.ExpSigmoid

	// AmpResampleMethod stretches frame-rate amplitudes to sample rate.
	// Defaults to resample.Window, which avoids frame-boundary clicks.
	AmpResampleMethod resample.Method

	// FreqScaleFn maps frequency logits to Hz. Defaults to a sigmoid into
	// [0, 8000] Hz. The scaled frequencies also band-limit the amplitudes.
	FreqScaleFn FreqScaleFn
}

// Sinusoidal synthesizes audio with a bank of arbitrary sinusoidal
// oscillators, one frequency and amplitude track per sinusoid.
type Sinusoidal struct {
	cfg SinusoidalConfig
}

// NewSinusoidal creates a sinusoidal-bank synthesizer.
func NewSinusoidal(cfg SinusoidalConfig) *Sinusoidal {
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.AmpScaleFn == nil {
		cfg.AmpScaleFn = scale.ExpSigmoid
	}
	if cfg.AmpResampleMethod == "" {
		cfg.AmpResampleMethod = resample.Window
	}
	if cfg.FreqScaleFn == nil {
		cfg.FreqScaleFn = SigmoidFreqScale(0.0, 8000.0)
	}
	return &Sinusoidal{cfg: cfg}
}

// Name implements Synthesizer.
func (s *Sinusoidal) Name() string { return "sinusoidal" }

// Inputs implements Synthesizer.
func (s *Sinusoidal) Inputs() []ControlSpec {
	return []ControlSpec{
		{Key: "amplitudes"},
		{Key: "frequencies"},
	}
}

// GetControls scales amplitudes and frequencies, then silences any sinusoid
// whose scaled frequency lies at or above Nyquist.
func (s *Sinusoidal) GetControls(raw Controls) (Controls, error) {
	amplitudes, err := get(raw, "amplitudes")
	if err != nil {
		return nil, err
	}
	frequencies, err := get(raw, "frequencies")
	if err != nil {
		return nil, err
	}

	amplitudes = amplitudes.Apply(s.cfg.AmpScaleFn)
	frequencies = s.cfg.FreqScaleFn(frequencies)
	amplitudes = spectral.RemoveAboveNyquist(frequencies, amplitudes,
		float64(s.cfg.SampleRate))

	return Controls{
		"amplitudes":  amplitudes,
		"frequencies": frequencies,
	}, nil
}

// GetSignal stretches the controls to per-sample envelopes and drives the
// oscillator bank.
func (s *Sinusoidal) GetSignal(controls Controls) ([][]float64, error) {
	amplitudes, err := get(controls, "amplitudes")
	if err != nil {
		return nil, err
	}
	frequencies, err := get(controls, "frequencies")
	if err != nil {
		return nil, err
	}

	ampEnv, err := resample.Resample(amplitudes, s.cfg.NSamples, s.cfg.AmpResampleMethod)
	if err != nil {
		return nil, err
	}
	freqEnv, err := resample.Resample(frequencies, s.cfg.NSamples, resample.Linear)
	if err != nil {
		return nil, err
	}
	return oscillator.Synthesize(freqEnv, ampEnv, float64(s.cfg.SampleRate)), nil
}

var _ Synthesizer = (*Sinusoidal)(nil)
