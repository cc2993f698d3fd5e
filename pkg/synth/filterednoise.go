package synth

import (
	"math/rand"

	"github.com/ddsp-go/ddsp/pkg/dsp/scale"
	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
)

// FilteredNoiseConfig configures a FilteredNoise synthesizer.
type FilteredNoiseConfig struct {
	NSamples   int      // output length, default 64000
	WindowSize int      // FIR window length in samples, default 257
	ScaleFn    scale.Fn // magnitude nonlinearity, default scale.ExpSigmoid

	// InitialBias is added to the raw magnitudes before scaling so an
	// untrained network starts near silence. Default -5; set a non-zero
	// value explicitly to override, there is no way to express exactly 0.
	InitialBias float64

	// Noise supplies the white-noise source. Defaults to a fixed-seed
	// rand.Rand so renders are reproducible; pass a caller-owned source
	// for decorrelated renders.
	Noise *rand.Rand
}

// FilteredNoise synthesizes audio by shaping uniform white noise with a
// time-varying frequency-domain FIR filter.
type FilteredNoise struct {
	cfg FilteredNoiseConfig
}

// NewFilteredNoise creates a filtered-noise synthesizer.
func NewFilteredNoise(cfg FilteredNoiseConfig) *FilteredNoise {
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 257
	}
	if cfg.ScaleFn == nil {
		cfg.ScaleFn = scale.ExpSigmoid
	}
	if cfg.InitialBias == 0 {
		cfg.InitialBias = -5.0
	}
	if cfg.Noise == nil {
		cfg.Noise = rand.New(rand.NewSource(1))
	}
	return &FilteredNoise{cfg: cfg}
}

// Name implements Synthesizer.
func (fn *FilteredNoise) Name() string { return "filtered_noise" }

// Inputs implements Synthesizer.
func (fn *FilteredNoise) Inputs() []ControlSpec {
	return []ControlSpec{{Key: "magnitudes"}}
}

// GetControls scales the raw filter magnitudes, offset by the initial bias.
func (fn *FilteredNoise) GetControls(raw Controls) (Controls, error) {
	magnitudes, err := get(raw, "magnitudes")
	if err != nil {
		return nil, err
	}
	bias := fn.cfg.InitialBias
	scaled := magnitudes.Apply(func(x float64) float64 {
		return fn.cfg.ScaleFn(x + bias)
	})
	return Controls{"magnitudes": scaled}, nil
}

// GetSignal draws uniform white noise in [-1, 1] and filters it with the
// per-frame magnitude spectra.
func (fn *FilteredNoise) GetSignal(controls Controls) ([][]float64, error) {
	magnitudes, err := get(controls, "magnitudes")
	if err != nil {
		return nil, err
	}
	batch, _, _ := magnitudes.Shape()
	noise := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		row := make([]float64, fn.cfg.NSamples)
		for n := range row {
			row[n] = fn.cfg.Noise.Float64()*2.0 - 1.0
		}
		noise[b] = row
	}
	return spectral.FrequencyFilter(noise, magnitudes, fn.cfg.WindowSize)
}

var _ Synthesizer = (*FilteredNoise)(nil)
