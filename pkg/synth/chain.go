package synth

import (
	"fmt"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
)

// Stage is one step of a Chain: a synthesizer plus the mapping from its
// declared control keys to keys in the shared bank. An empty mapping wires
// each control to the bank key of the same name.
type Stage struct {
	Synth  Synthesizer
	Inputs map[string]string
}

// Chain runs a fixed pipeline of synthesizer stages over a growing bank of
// named tensors. Each stage reads the bank keys its input mapping names and
// writes its processed controls under "<name>/<key>" plus its rendered
// audio under "<name>/signal"; writing a key that already exists is an
// error, so stages cannot silently clobber each other.
type Chain struct {
	name   string
	stages []Stage
}

// NewChain creates an empty pipeline.
func NewChain(name string) *Chain {
	return &Chain{name: name}
}

// Add appends a stage whose controls are read from bank keys of the same
// name. It returns the chain for call chaining.
func (c *Chain) Add(s Synthesizer) *Chain {
	return c.AddMapped(s, nil)
}

// AddMapped appends a stage with an explicit control-to-bank key mapping.
func (c *Chain) AddMapped(s Synthesizer, inputs map[string]string) *Chain {
	c.stages = append(c.stages, Stage{Synth: s, Inputs: inputs})
	return c
}

// Reads returns the bank keys a stage consumes.
func (st Stage) Reads() []string {
	keys := make([]string, 0, len(st.Synth.Inputs()))
	for _, spec := range st.Synth.Inputs() {
		keys = append(keys, st.bankKey(spec.Key))
	}
	return keys
}

// Writes returns the bank keys a stage produces.
func (st Stage) Writes() []string {
	name := st.Synth.Name()
	keys := make([]string, 0, len(st.Synth.Inputs())+1)
	for _, spec := range st.Synth.Inputs() {
		keys = append(keys, name+"/"+spec.Key)
	}
	return append(keys, name+"/"+SignalKey)
}

func (st Stage) bankKey(controlKey string) string {
	if mapped, ok := st.Inputs[controlKey]; ok {
		return mapped
	}
	return controlKey
}

// Run executes every stage in order against a copy of the input bank and
// returns the grown bank. The input map is never mutated.
func (c *Chain) Run(inputs Controls) (Controls, error) {
	bank := inputs.Clone()
	for i, st := range c.stages {
		raw := make(Controls, len(st.Synth.Inputs()))
		for _, spec := range st.Synth.Inputs() {
			key := st.bankKey(spec.Key)
			t, ok := bank[key]
			if !ok {
				return nil, fmt.Errorf("chain %s: stage %d (%s): bank missing key %q",
					c.name, i, st.Synth.Name(), key)
			}
			raw[spec.Key] = t
		}

		controls, signal, err := Run(st.Synth, raw)
		if err != nil {
			return nil, fmt.Errorf("chain %s: stage %d: %w", c.name, i, err)
		}

		prefix := st.Synth.Name() + "/"
		for key, t := range controls {
			if err := put(bank, prefix+key, t); err != nil {
				return nil, fmt.Errorf("chain %s: stage %d: %w", c.name, i, err)
			}
		}
		if err := put(bank, prefix+SignalKey, tensor.FromSignal(signal)); err != nil {
			return nil, fmt.Errorf("chain %s: stage %d: %w", c.name, i, err)
		}
	}
	return bank, nil
}

func put(bank Controls, key string, t *tensor.Tensor) error {
	if _, exists := bank[key]; exists {
		return fmt.Errorf("key collision on %q", key)
	}
	bank[key] = t
	return nil
}

// Mix sums two rendered signals sample-wise. It lets a chain combine, for
// example, a harmonic stage and a filtered-noise stage into one output.
type Mix struct {
	name string
}

// NewMix creates a named mixing stage.
func NewMix(name string) *Mix {
	return &Mix{name: name}
}

// Name implements Synthesizer.
func (m *Mix) Name() string { return m.name }

// Inputs implements Synthesizer.
func (m *Mix) Inputs() []ControlSpec {
	return []ControlSpec{
		{Key: "signal_a", Channels: 1},
		{Key: "signal_b", Channels: 1},
	}
}

// GetControls passes both signals through unchanged.
func (m *Mix) GetControls(raw Controls) (Controls, error) {
	a, err := get(raw, "signal_a")
	if err != nil {
		return nil, err
	}
	b, err := get(raw, "signal_b")
	if err != nil {
		return nil, err
	}
	return Controls{"signal_a": a, "signal_b": b}, nil
}

// GetSignal returns the sample-wise sum of the two signals.
func (m *Mix) GetSignal(controls Controls) ([][]float64, error) {
	a, err := get(controls, "signal_a")
	if err != nil {
		return nil, err
	}
	b, err := get(controls, "signal_b")
	if err != nil {
		return nil, err
	}
	if !a.SameShape(b) {
		ab, af, ac := a.Shape()
		bb, bf, bc := b.Shape()
		return nil, fmt.Errorf("mix %s: shape mismatch [%d, %d, %d] vs [%d, %d, %d]",
			m.name, ab, af, ac, bb, bf, bc)
	}
	sum := a.Clone()
	sd := sum.Data()
	bd := b.Data()
	for i := range sd {
		sd[i] += bd[i]
	}
	return sum.Squeeze(), nil
}

var _ Synthesizer = (*Mix)(nil)
