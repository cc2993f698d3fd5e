package synth

import (
	"math"
	"testing"

	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// logitOf inverts the sigmoid so tests can aim a scaled control at an
// exact target.
func logitOf(p float64) float64 {
	return math.Log(p / (1.0 - p))
}

func TestSinusoidalFrequencyScaling(t *testing.T) {
	s := NewSinusoidal(SinusoidalConfig{NSamples: 1000, SampleRate: 16000})
	raw := Controls{
		"amplitudes":  tensor.New(1, 4, 2),
		"frequencies": tensor.Full(1, 4, 2, logitOf(0.25)),
	}
	controls, err := s.GetControls(raw)
	if err != nil {
		t.Fatal(err)
	}
	// Default scaling maps into [0, 8000]: a 0.25 logit target is 2000 Hz.
	if v := controls["frequencies"].At(0, 0, 0); math.Abs(v-2000.0) > 1e-6 {
		t.Errorf("scaled frequency = %f, want 2000", v)
	}
}

func TestSinusoidalMasksAboveNyquist(t *testing.T) {
	// At 8 kHz output rate the Nyquist limit is 4 kHz; a sinusoid aimed at
	// ~7.9 kHz must be silenced entirely.
	s := NewSinusoidal(SinusoidalConfig{NSamples: 2000, SampleRate: 8000})
	raw := Controls{
		"amplitudes":  tensor.Full(1, 10, 1, 5.0),
		"frequencies": tensor.Full(1, 10, 1, logitOf(0.99)),
	}
	_, signal, err := Run(s, raw)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range signal[0] {
		if v != 0 {
			t.Fatalf("sample %d = %g, want 0 for masked sinusoid", i, v)
		}
	}
}

func TestSinusoidalRendersTargetFrequencies(t *testing.T) {
	const (
		n  = 16000
		sr = 16000
	)
	s := NewSinusoidal(SinusoidalConfig{NSamples: n, SampleRate: sr})
	raw := Controls{
		"amplitudes":  tensor.Full(1, 10, 1, 5.0),
		"frequencies": tensor.Full(1, 10, 1, logitOf(1000.0/8000.0)),
	}
	_, signal, err := Run(s, raw)
	if err != nil {
		t.Fatal(err)
	}
	hz, _ := spectral.PeakFrequency(signal[0], sr)
	if math.Abs(hz-1000.0) > float64(sr)/float64(n)+1e-9 {
		t.Errorf("peak frequency = %f, want 1000", hz)
	}
}

func TestSinusoidalSoftmaxFreqScale(t *testing.T) {
	// 4 bins per sinusoid over [0, 3000]: strongly one-hot logits on bin 2
	// put the partial at 2000 Hz.
	s := NewSinusoidal(SinusoidalConfig{
		NSamples:    1000,
		SampleRate:  16000,
		FreqScaleFn: SoftmaxFreqScale(4, 0, 3000),
	})
	freqs := tensor.Full(1, 2, 4, -50.0)
	freqs.Set(0, 0, 2, 50.0)
	freqs.Set(0, 1, 2, 50.0)
	raw := Controls{
		"amplitudes":  tensor.New(1, 2, 1),
		"frequencies": freqs,
	}
	controls, err := s.GetControls(raw)
	if err != nil {
		t.Fatal(err)
	}
	got := controls["frequencies"]
	if _, _, c := got.Shape(); c != 1 {
		t.Fatalf("softmax-scaled channels = %d, want 1", c)
	}
	if v := got.At(0, 0, 0); math.Abs(v-2000.0) > 1.0 {
		t.Errorf("softmax frequency = %f, want 2000", v)
	}
}
