package synth

import (
	"github.com/ddsp-go/ddsp/pkg/dsp/scale"
	"github.com/ddsp-go/ddsp/pkg/dsp/wavetable"
)

// WavetableConfig configures a Wavetable synthesizer.
type WavetableConfig struct {
	NSamples   int      // output length, default 64000
	SampleRate int      // default 16000
	ScaleFn    scale.Fn // amplitude/table nonlinearity, default scale.ExpSigmoid
}

// Wavetable synthesizes audio by reading a time-varying single-cycle
// wavetable at the pitch of the fundamental frequency.
type Wavetable struct {
	cfg WavetableConfig
}

// NewWavetable creates a wavetable synthesizer.
func NewWavetable(cfg WavetableConfig) *Wavetable {
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.ScaleFn == nil {
		cfg.ScaleFn = scale.ExpSigmoid
	}
	return &Wavetable{cfg: cfg}
}

// Name implements Synthesizer.
func (w *Wavetable) Name() string { return "wavetable" }

// Inputs implements Synthesizer.
func (w *Wavetable) Inputs() []ControlSpec {
	return []ControlSpec{
		{Key: "amplitudes", Channels: 1},
		{Key: "wavetables"},
		{Key: "f0_hz", Channels: 1},
	}
}

// GetControls scales the raw amplitude and wavetable logits.
func (w *Wavetable) GetControls(raw Controls) (Controls, error) {
	amplitudes, err := get(raw, "amplitudes")
	if err != nil {
		return nil, err
	}
	wavetables, err := get(raw, "wavetables")
	if err != nil {
		return nil, err
	}
	f0, err := get(raw, "f0_hz")
	if err != nil {
		return nil, err
	}
	return Controls{
		"amplitudes": amplitudes.Apply(w.cfg.ScaleFn),
		"wavetables": wavetables.Apply(w.cfg.ScaleFn),
		"f0_hz":      f0,
	}, nil
}

// GetSignal stretches the wavetable to sample resolution and reads it out
// at the f0-driven phase.
func (w *Wavetable) GetSignal(controls Controls) ([][]float64, error) {
	amplitudes, err := get(controls, "amplitudes")
	if err != nil {
		return nil, err
	}
	wavetables, err := get(controls, "wavetables")
	if err != nil {
		return nil, err
	}
	f0, err := get(controls, "f0_hz")
	if err != nil {
		return nil, err
	}
	return wavetable.Synthesize(f0, amplitudes, wavetables,
		w.cfg.NSamples, float64(w.cfg.SampleRate))
}

var _ Synthesizer = (*Wavetable)(nil)
