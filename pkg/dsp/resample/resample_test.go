package resample

import (
	"math"
	"testing"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

var allMethods = []Method{Nearest, Linear, Cubic, Window}

func TestConstantStaysConstant(t *testing.T) {
	src := tensor.Full(2, 8, 3, 0.75)
	for _, method := range allMethods {
		out, err := Resample(src, 64, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		b, n, c := out.Shape()
		if b != 2 || n != 64 || c != 3 {
			t.Fatalf("%s: shape [%d, %d, %d], want [2, 64, 3]", method, b, n, c)
		}
		for i, v := range out.Data() {
			if math.Abs(v-0.75) > 1e-9 {
				t.Fatalf("%s: element %d = %f, want 0.75", method, i, v)
			}
		}
	}
}

func TestIdentityWhenFramesEqualSamples(t *testing.T) {
	src := tensor.New(1, 16, 2)
	for i := range src.Data() {
		src.Data()[i] = float64(i) * 0.1
	}
	for _, method := range allMethods {
		out, err := Resample(src, 16, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		for i := range src.Data() {
			if out.Data()[i] != src.Data()[i] {
				t.Fatalf("%s: element %d changed", method, i)
			}
		}
	}
}

func TestLinearEndpointsAligned(t *testing.T) {
	src := tensor.New(1, 4, 1)
	src.Set(0, 0, 0, 1.0)
	src.Set(0, 3, 0, 7.0)
	out, err := Resample(src, 100, Linear)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.At(0, 0, 0); math.Abs(v-1.0) > 1e-9 {
		t.Errorf("first sample = %f, want 1", v)
	}
	if v := out.At(0, 99, 0); math.Abs(v-7.0) > 1e-9 {
		t.Errorf("last sample = %f, want 7", v)
	}
}

func TestLinearMidpoint(t *testing.T) {
	src := tensor.New(1, 2, 1)
	src.Set(0, 1, 0, 10.0)
	out, err := Resample(src, 11, Linear)
	if err != nil {
		t.Fatal(err)
	}
	// Aligned endpoints: sample n sits at n/10 of the ramp.
	for n := 0; n < 11; n++ {
		want := float64(n)
		if v := out.At(0, n, 0); math.Abs(v-want) > 1e-9 {
			t.Errorf("sample %d = %f, want %f", n, v, want)
		}
	}
}

func TestCubicStaysNearLinearOnRamp(t *testing.T) {
	// Catmull-Rom interpolates a straight line exactly.
	src := tensor.New(1, 8, 1)
	for f := 0; f < 8; f++ {
		src.Set(0, f, 0, float64(f))
	}
	out, err := Resample(src, 71, Cubic)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 71; n++ {
		want := float64(n) * 7.0 / 70.0
		if v := out.At(0, n, 0); math.Abs(v-want) > 1e-9 {
			t.Fatalf("sample %d = %f, want %f", n, v, want)
		}
	}
}

func TestWindowPreservesTotalLevel(t *testing.T) {
	// Overlap-added Hann windows sum to one, so a non-constant envelope
	// still interpolates within the per-frame value range.
	src := tensor.New(1, 4, 1)
	vals := []float64{0.1, 0.9, 0.4, 0.6}
	for f, v := range vals {
		src.Set(0, f, 0, v)
	}
	out, err := Resample(src, 64, Window)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 64; n++ {
		v := out.At(0, n, 0)
		if v < 0.1-1e-9 || v > 0.9+1e-9 {
			t.Fatalf("sample %d = %f outside envelope range [0.1, 0.9]", n, v)
		}
	}
}

func TestWindowNeedsDivisibleSampleCount(t *testing.T) {
	src := tensor.New(1, 3, 1)
	if _, err := Resample(src, 64, Window); err == nil {
		t.Error("expected error for 64 samples over 3 frames with window method")
	}
}

func TestShrinkingRejected(t *testing.T) {
	src := tensor.New(1, 100, 1)
	for _, method := range allMethods {
		if _, err := Resample(src, 10, method); err == nil {
			t.Errorf("%s: expected error when shrinking 100 frames to 10 samples", method)
		}
	}
}

func TestSingleFrameBroadcasts(t *testing.T) {
	src := tensor.Full(1, 1, 2, 5.0)
	for _, method := range allMethods {
		out, err := Resample(src, 40, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		for n := 0; n < 40; n++ {
			if v := out.At(0, n, 1); math.Abs(v-5.0) > 1e-9 {
				t.Fatalf("%s: sample %d = %f, want 5", method, n, v)
			}
		}
	}
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"nearest", "linear", "cubic", "window"} {
		m, err := ParseMethod(name)
		if err != nil {
			t.Errorf("ParseMethod(%q): %v", name, err)
		}
		if string(m) != name {
			t.Errorf("ParseMethod(%q) = %q", name, m)
		}
	}
	if _, err := ParseMethod("sinc"); err == nil {
		t.Error("ParseMethod accepted an unknown method")
	}
}
