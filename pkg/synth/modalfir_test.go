package synth

import (
	"math"
	"testing"

	"github.com/ddsp-go/ddsp/pkg/dsp/spectral"
	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// One undamped mode at 1000 Hz: the front half of the impulse response is
// exactly zero and the tail is a steady sinusoid at the target frequency.
func TestModalFIRSingleUndampedMode(t *testing.T) {
	const (
		n  = 16000
		sr = 16000
	)
	m := NewModalFIR(ModalFIRConfig{NSamples: n, SampleRate: sr})
	raw := Controls{
		"gains":       tensor.Full(1, 1, 1, 10.0),          // saturated gain
		"frequencies": tensor.Full(1, 1, 1, logitOf(0.125)), // 1000 of 8000 Hz
		"dampings":    tensor.Full(1, 1, 1, -50.0),          // ~zero damping
	}
	_, signal, err := Run(m, raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(signal) != 1 || len(signal[0]) != n {
		t.Fatalf("signal shape [%d][%d], want [1][%d]", len(signal), len(signal[0]), n)
	}

	pad := n / 2
	for i := 0; i < pad; i++ {
		if signal[0][i] != 0 {
			t.Fatalf("sample %d = %g, want exact zero in the front pad", i, signal[0][i])
		}
	}

	tail := signal[0][pad:]
	hz, _ := spectral.PeakFrequency(tail, sr)
	binWidth := float64(sr) / float64(len(tail))
	if math.Abs(hz-1000.0) > binWidth+1e-9 {
		t.Errorf("tail peak frequency = %f, want 1000", hz)
	}

	// Undamped: the envelope holds, so the last cycle is as loud as the
	// first.
	head := spectral.RMS(tail[:1000])
	end := spectral.RMS(tail[len(tail)-1000:])
	if math.Abs(head-end) > head*0.01 {
		t.Errorf("undamped tail decays: head RMS %g vs end RMS %g", head, end)
	}
}

func TestModalFIRDampingDecaysEnvelope(t *testing.T) {
	const (
		n  = 8000
		sr = 16000
	)
	m := NewModalFIR(ModalFIRConfig{NSamples: n, SampleRate: sr})
	raw := Controls{
		"gains":       tensor.Full(1, 1, 1, 10.0),
		"frequencies": tensor.Full(1, 1, 1, logitOf(0.125)),
		"dampings":    tensor.Full(1, 1, 1, logitOf(0.01)), // 1000 nepers * 0.05 = 50/s
	}
	_, signal, err := Run(m, raw)
	if err != nil {
		t.Fatal(err)
	}
	tail := signal[0][n/2:]
	head := spectral.RMS(tail[:500])
	end := spectral.RMS(tail[len(tail)-500:])
	if end >= head*0.5 {
		t.Errorf("damped tail did not decay: head RMS %g vs end RMS %g", head, end)
	}
}

func TestModalFIRGainScaling(t *testing.T) {
	m := NewModalFIR(ModalFIRConfig{NSamples: 1000, SampleRate: 16000})
	raw := Controls{
		"gains":       tensor.Full(1, 1, 2, 100.0),
		"frequencies": tensor.Full(1, 1, 2, logitOf(0.05)),
		"dampings":    tensor.New(1, 1, 2),
	}
	controls, err := m.GetControls(raw)
	if err != nil {
		t.Fatal(err)
	}
	// Gains saturate at 0.01 * 2 regardless of logit magnitude.
	for c := 0; c < 2; c++ {
		g := controls["gains"].At(0, 0, c)
		if g <= 0 || g > 0.02+1e-9 {
			t.Errorf("gain[%d] = %g, want in (0, 0.02]", c, g)
		}
	}
}

func TestModalFIRMasksModesAboveNyquist(t *testing.T) {
	// At 8 kHz output rate, a mode aimed near 7.2 kHz sits above the 4 kHz
	// Nyquist limit and its gain must be zeroed.
	m := NewModalFIR(ModalFIRConfig{NSamples: 1000, SampleRate: 8000})
	raw := Controls{
		"gains":       tensor.Full(1, 1, 2, 10.0),
		"frequencies": tensor.Full(1, 1, 2, logitOf(0.9)),
		"dampings":    tensor.New(1, 1, 2),
	}
	controls, err := m.GetControls(raw)
	if err != nil {
		t.Fatal(err)
	}
	for c := 0; c < 2; c++ {
		if g := controls["gains"].At(0, 0, c); g != 0 {
			t.Errorf("gain[%d] = %g, want 0 above Nyquist", c, g)
		}
	}
}
