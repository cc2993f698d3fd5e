package synth

import (
	"math/rand"
	"testing"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

func TestImpactTauStrictlyPositiveAndBounded(t *testing.T) {
	im := NewImpact(ImpactConfig{NSamples: 1000, SampleRate: 16000})
	raw := Controls{
		"magnitudes":     tensor.Full(1, 10, 1, -3.0),
		"stdevs":         tensor.New(1, 10, 1),
		"taus":           tensor.Full(1, 10, 1, 100.0), // saturate high
		"tau_multiplier": tensor.Full(1, 1, 1, 100.0),
	}
	controls, err := im.GetControls(raw)
	if err != nil {
		t.Fatal(err)
	}
	taus := controls["taus"]
	minTau := 1.0 / 16000.0
	// MaxTau * scale(hi)^2 + 1/sr with the exp-sigmoid ceiling of 2 per factor.
	maxTau := 0.001*2.0*2.0 + minTau + 1e-9
	for f := 0; f < 10; f++ {
		tau := taus.At(0, f, 0)
		if tau < minTau {
			t.Errorf("tau[%d] = %g below 1/sr", f, tau)
		}
		if tau > maxTau {
			t.Errorf("tau[%d] = %g above ceiling %g", f, tau, maxTau)
		}
	}
}

func TestImpactDeterministicWithoutNoise(t *testing.T) {
	raw := Controls{
		"magnitudes":     tensor.Full(1, 10, 1, 1.0),
		"stdevs":         tensor.Full(1, 10, 1, 5.0),
		"taus":           tensor.New(1, 10, 1),
		"tau_multiplier": tensor.New(1, 1, 1),
	}
	a, _, err := Run(NewImpact(ImpactConfig{NSamples: 1000, SampleRate: 8000}), raw)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := Run(NewImpact(ImpactConfig{NSamples: 1000, SampleRate: 8000}), raw)
	if err != nil {
		t.Fatal(err)
	}
	am := a["magnitudes"].Data()
	bm := b["magnitudes"].Data()
	for i := range am {
		if am[i] != bm[i] {
			t.Fatal("magnitudes differ without a noise source")
		}
	}
}

func TestImpactNoisePerturbsMagnitudes(t *testing.T) {
	raw := Controls{
		"magnitudes":     tensor.Full(1, 10, 1, 1.0),
		"stdevs":         tensor.Full(1, 10, 1, 5.0),
		"taus":           tensor.New(1, 10, 1),
		"tau_multiplier": tensor.New(1, 1, 1),
	}
	plain, _, err := Run(NewImpact(ImpactConfig{NSamples: 1000, SampleRate: 8000}), raw)
	if err != nil {
		t.Fatal(err)
	}
	noisy, _, err := Run(NewImpact(ImpactConfig{
		NSamples:   1000,
		SampleRate: 8000,
		Noise:      rand.New(rand.NewSource(3)),
	}), raw)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	pm := plain["magnitudes"].Data()
	nm := noisy["magnitudes"].Data()
	for i := range pm {
		if pm[i] != nm[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("stdev-weighted noise left magnitudes unchanged")
	}
}

func TestImpactPulseCenteredOnPeak(t *testing.T) {
	const (
		n  = 2000
		sr = 8000
	)
	// One loud frame among quiet ones: the render must concentrate its
	// energy around that frame's sample position.
	frames := 20
	mags := tensor.Full(1, frames, 1, -10.0)
	mags.Set(0, 10, 0, 4.0)
	raw := Controls{
		"magnitudes":     mags,
		"stdevs":         tensor.New(1, frames, 1),
		"taus":           tensor.New(1, frames, 1),
		"tau_multiplier": tensor.New(1, 1, 1),
	}
	_, signal, err := Run(NewImpact(ImpactConfig{NSamples: n, SampleRate: sr}), raw)
	if err != nil {
		t.Fatal(err)
	}

	peakIdx := 0
	for i, v := range signal[0] {
		if v > signal[0][peakIdx] {
			peakIdx = i
		}
	}
	// Frame 10 of 20 maps near sample 1000.
	if peakIdx < 900 || peakIdx > 1100 {
		t.Errorf("pulse peak at sample %d, want near 1000", peakIdx)
	}
	// Far away from the impact the profile decays to (near) nothing
	// relative to the peak.
	if signal[0][100] > signal[0][peakIdx]*0.5 {
		t.Errorf("profile not concentrated: far value %g vs peak %g",
			signal[0][100], signal[0][peakIdx])
	}
}

func TestFindPeaksFirstIndexOnTie(t *testing.T) {
	env := tensor.New(1, 8, 1)
	// Two equal maxima inside one window: the earlier index wins.
	env.Set(0, 2, 0, 1.0)
	env.Set(0, 5, 0, 1.0)
	times, heights := findPeaks(env, 0, 8, 8, 8.0)
	if len(times) != 1 {
		t.Fatalf("got %d peaks, want 1", len(times))
	}
	if heights[0] != 1.0 {
		t.Errorf("peak height = %f, want 1", heights[0])
	}
	if want := 2.0 / 8.0; times[0] != want {
		t.Errorf("peak time = %f, want %f (first index on tie)", times[0], want)
	}
}

func TestFindPeaksWindowing(t *testing.T) {
	env := tensor.New(1, 10, 1)
	for i := 0; i < 10; i++ {
		env.Set(0, i, 0, float64(i))
	}
	// Window of 4 over 10 samples: windows [0,4), [4,8), [8,10).
	times, heights := findPeaks(env, 0, 10, 4, 1.0)
	if len(times) != 3 {
		t.Fatalf("got %d peaks, want 3", len(times))
	}
	wantTimes := []float64{3, 7, 9}
	wantHeights := []float64{3, 7, 9}
	for i := range wantTimes {
		if times[i] != wantTimes[i] || heights[i] != wantHeights[i] {
			t.Errorf("peak %d = (%f, %f), want (%f, %f)",
				i, times[i], heights[i], wantTimes[i], wantHeights[i])
		}
	}
}
