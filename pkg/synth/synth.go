// Package synth provides the synthesizer modules that turn named control
// tensors into audio. Every module follows the same two-stage contract:
// GetControls validates and rescales raw network outputs into physically
// meaningful controls, and GetSignal deterministically renders audio from
// those controls. Modules are configured once at construction and hold no
// state between calls, so a single instance can render any number of
// independent batches.
package synth

import (
	"fmt"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// SignalKey is the key under which Chain stages publish rendered audio.
const SignalKey = "signal"

// Default construction parameters shared by the modules.
const (
	DefaultNSamples   = 64000
	DefaultSampleRate = 16000
)

// Controls is a bank of named control tensors flowing between stages.
type Controls map[string]*tensor.Tensor

// Clone returns a shallow copy of the bank (tensors are shared).
func (c Controls) Clone() Controls {
	out := make(Controls, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ControlSpec declares one control a module consumes: its key and the
// channel count it requires (0 means any).
type ControlSpec struct {
	Key      string
	Channels int
}

// Synthesizer converts named control tensors into an audio signal.
type Synthesizer interface {
	// Name identifies the module instance, e.g. for Chain key prefixes.
	Name() string

	// Inputs declares the raw control tensors GetControls consumes.
	Inputs() []ControlSpec

	// GetControls rescales raw network outputs into synthesizer controls.
	GetControls(raw Controls) (Controls, error)

	// GetSignal renders audio of shape [batch][nSamples] from the controls
	// produced by GetControls.
	GetSignal(controls Controls) ([][]float64, error)
}

// Run validates raw against the module's declared inputs, then composes
// GetControls and GetSignal. It returns the processed controls together
// with the rendered signal.
func Run(s Synthesizer, raw Controls) (Controls, [][]float64, error) {
	if err := Validate(raw, s.Inputs()); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	controls, err := s.GetControls(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: get controls: %w", s.Name(), err)
	}
	signal, err := s.GetSignal(controls)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: get signal: %w", s.Name(), err)
	}
	return controls, signal, nil
}

// Validate checks that every declared control is present, has the declared
// channel count, and agrees with the others on batch size. Frame counts may
// differ between controls (a control with a single frame is a held value)
// but must otherwise match.
func Validate(raw Controls, specs []ControlSpec) error {
	batch, frames := 0, 0
	for _, spec := range specs {
		t, ok := raw[spec.Key]
		if !ok {
			return fmt.Errorf("missing control %q", spec.Key)
		}
		b, f, c := t.Shape()
		if spec.Channels > 0 && c != spec.Channels {
			return fmt.Errorf("control %q has %d channels, want %d", spec.Key, c, spec.Channels)
		}
		if batch == 0 {
			batch = b
		} else if b != batch {
			return fmt.Errorf("control %q has batch %d, want %d", spec.Key, b, batch)
		}
		if f == 1 {
			continue
		}
		if frames == 0 {
			frames = f
		} else if f != frames {
			return fmt.Errorf("control %q has %d frames, want %d or 1", spec.Key, f, frames)
		}
	}
	return nil
}

// get fetches a control by key, failing loudly if a stage was wired to a
// bank missing it.
func get(controls Controls, key string) (*tensor.Tensor, error) {
	t, ok := controls[key]
	if !ok {
		return nil, fmt.Errorf("missing control %q", key)
	}
	return t, nil
}
