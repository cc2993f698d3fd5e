package synth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// Zero-logit magnitudes land at exp-sigmoid(initial bias), which is close
// enough to zero that the output must be near silence.
func TestFilteredNoiseNearSilentByDefault(t *testing.T) {
	fn := NewFilteredNoise(FilteredNoiseConfig{NSamples: 8000})
	raw := Controls{"magnitudes": tensor.New(1, 50, 33)}

	_, signal, err := Run(fn, raw)
	if err != nil {
		t.Fatal(err)
	}
	peak := 0.0
	for _, v := range signal[0] {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 1e-3 {
		t.Errorf("peak = %g, want near silence", peak)
	}
}

func TestFilteredNoiseOutputLevelTracksMagnitudes(t *testing.T) {
	quiet := NewFilteredNoise(FilteredNoiseConfig{
		NSamples: 4000,
		Noise:    rand.New(rand.NewSource(11)),
	})
	loud := NewFilteredNoise(FilteredNoiseConfig{
		NSamples: 4000,
		Noise:    rand.New(rand.NewSource(11)),
	})

	_, quietSig, err := Run(quiet, Controls{"magnitudes": tensor.Full(1, 10, 33, -2.0)})
	if err != nil {
		t.Fatal(err)
	}
	_, loudSig, err := Run(loud, Controls{"magnitudes": tensor.Full(1, 10, 33, 6.0)})
	if err != nil {
		t.Fatal(err)
	}
	if spectral.RMS(loudSig[0]) <= spectral.RMS(quietSig[0]) {
		t.Error("higher magnitudes did not raise the output level")
	}
}

func TestFilteredNoiseReproducible(t *testing.T) {
	// The default noise source is seeded, so two fresh instances render
	// identical audio for identical controls.
	raw := Controls{"magnitudes": tensor.Full(1, 10, 17, 3.0)}

	_, a, err := Run(NewFilteredNoise(FilteredNoiseConfig{NSamples: 2000}), raw)
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := Run(NewFilteredNoise(FilteredNoiseConfig{NSamples: 2000}), raw)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("renders diverge at sample %d", i)
		}
	}
}
