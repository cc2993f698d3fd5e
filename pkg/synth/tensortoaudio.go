package synth

// TensorToAudio is the identity "synth": it passes per-sample controls
// through unchanged and drops the trailing singleton channel axis.
type TensorToAudio struct {
	name string
}

// NewTensorToAudio creates the identity synthesizer.
func NewTensorToAudio() *TensorToAudio {
	return &TensorToAudio{name: "tensor_to_audio"}
}

// Name implements Synthesizer.
func (t *TensorToAudio) Name() string { return t.name }

// Inputs implements Synthesizer.
func (t *TensorToAudio) Inputs() []ControlSpec {
	return []ControlSpec{{Key: "samples", Channels: 1}}
}

// GetControls passes the samples through untouched.
func (t *TensorToAudio) GetControls(raw Controls) (Controls, error) {
	samples, err := get(raw, "samples")
	if err != nil {
		return nil, err
	}
	return Controls{"samples": samples}, nil
}

// GetSignal drops the channel axis, returning [batch][time].
func (t *TensorToAudio) GetSignal(controls Controls) ([][]float64, error) {
	samples, err := get(controls, "samples")
	if err != nil {
		return nil, err
	}
	return samples.Squeeze(), nil
}
