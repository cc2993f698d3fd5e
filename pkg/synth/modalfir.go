package synth

import (
	"github.com/ddsp-go/ddsp/pkg/dsp/envelope"
	"github.com/ddsp-go/ddsp/pkg/dsp/oscillator"
	"github.com/ddsp-go/ddsp/pkg/dsp/scale"
	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
)

// ModalFIRConfig configures a ModalFIR synthesizer.
type ModalFIRConfig struct {
	NSamples   int // output length, default 64000
	SampleRate int // default 16000

	AmpScaleFn scale.Fn // gain nonlinearity, default scale.ExpSigmoid

	// FreqScaleFn maps frequency logits to Hz; the same family also scales
	// the damping controls. Defaults to a sigmoid scaler.
	FreqScaleFn FreqScaleFn

	// HzMax bounds the modal frequencies. Default 8000.
	HzMax float64

	// InitialBias offsets raw gains before scaling. Default -1.5; set a
	// non-zero value explicitly to override.
	InitialBias float64
}

// Modal damping/gain scaling constants from the reference contact-model
// parameterization.
const (
	modalGainScale    = 0.01
	modalGainLogitMul = 4.0
	modalDampingScale = 0.05
	modalDampingHzMax = 100000.0
)

// ModalFIR synthesizes the impulse response of a modal resonator: a bank of
// exponentially decaying sinusoids with held frequencies, zero-padded in
// front so it can be used as a (non-causal aligned) FIR kernel.
type ModalFIR struct {
	cfg ModalFIRConfig
}

// NewModalFIR creates a modal-resonator FIR synthesizer.
func NewModalFIR(cfg ModalFIRConfig) *ModalFIR {
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.AmpScaleFn == nil {
		cfg.AmpScaleFn = scale.ExpSigmoid
	}
	if cfg.HzMax == 0 {
		cfg.HzMax = 8000.0
	}
	if cfg.InitialBias == 0 {
		cfg.InitialBias = -1.5
	}
	if cfg.FreqScaleFn == nil {
		cfg.FreqScaleFn = SigmoidFreqScale(0.0, cfg.HzMax)
	}
	return &ModalFIR{cfg: cfg}
}

// Name implements Synthesizer.
func (m *ModalFIR) Name() string { return "modal_fir" }

// Inputs implements Synthesizer.
func (m *ModalFIR) Inputs() []ControlSpec {
	return []ControlSpec{
		{Key: "gains"},
		{Key: "frequencies"},
		{Key: "dampings"},
	}
}

// GetControls maps raw logits to per-mode gains, frequencies in Hz and
// dampings in nepers per second, then silences modes at or above Nyquist.
func (m *ModalFIR) GetControls(raw Controls) (Controls, error) {
	gains, err := get(raw, "gains")
	if err != nil {
		return nil, err
	}
	frequencies, err := get(raw, "frequencies")
	if err != nil {
		return nil, err
	}
	dampings, err := get(raw, "dampings")
	if err != nil {
		return nil, err
	}

	bias := m.cfg.InitialBias
	gains = gains.Apply(func(x float64) float64 {
		return modalGainScale * m.cfg.AmpScaleFn(modalGainLogitMul*x+bias)
	})
	dampings = scale.FrequenciesSigmoid(dampings, 0.0, modalDampingHzMax).
		ApplyInPlace(func(x float64) float64 { return modalDampingScale * x })
	frequencies = m.cfg.FreqScaleFn(frequencies)
	gains = spectral.RemoveAboveNyquist(frequencies, gains, float64(m.cfg.SampleRate))

	return Controls{
		"gains":       gains,
		"frequencies": frequencies,
		"dampings":    dampings,
	}, nil
}

// GetSignal renders gain*exp(-damping*t) decay envelopes into the
// oscillator bank at held per-mode frequencies and prepends half a buffer
// of silence. The output length is exactly NSamples: the decaying tail
// occupies the second half.
func (m *ModalFIR) GetSignal(controls Controls) ([][]float64, error) {
	gains, err := get(controls, "gains")
	if err != nil {
		return nil, err
	}
	frequencies, err := get(controls, "frequencies")
	if err != nil {
		return nil, err
	}
	dampings, err := get(controls, "dampings")
	if err != nil {
		return nil, err
	}

	pad := m.cfg.NSamples / 2
	tail := m.cfg.NSamples - pad
	sr := float64(m.cfg.SampleRate)

	ampEnv := envelope.Decay(gains, dampings, tail, sr)
	freqEnv := envelope.Hold(frequencies, tail)
	ir := oscillator.Synthesize(freqEnv, ampEnv, sr)

	out := make([][]float64, len(ir))
	for b := range ir {
		row := make([]float64, m.cfg.NSamples)
		copy(row[pad:], ir[b])
		out[b] = row
	}
	return out, nil
}

var _ Synthesizer = (*ModalFIR)(nil)
