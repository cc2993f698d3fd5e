// Package tensor provides the rank-3 control tensors that flow between
// synthesizer stages. Every control is a dense [batch, frames, channels]
// array of float64; audio signals are [batch, samples] slices produced by
// the synthesis packages.
package tensor

import "fmt"

// Tensor is a dense rank-3 array of shape [batch, frames, channels].
// The zero value is not usable; construct with New, Full or FromData.
type Tensor struct {
	data     []float64
	batch    int
	frames   int
	channels int
}

// New creates a zero-filled tensor of the given shape.
func New(batch, frames, channels int) *Tensor {
	if batch <= 0 || frames <= 0 || channels <= 0 {
		panic(fmt.Sprintf("tensor: invalid shape [%d, %d, %d]", batch, frames, channels))
	}
	return &Tensor{
		data:     make([]float64, batch*frames*channels),
		batch:    batch,
		frames:   frames,
		channels: channels,
	}
}

// Full creates a tensor of the given shape with every element set to value.
func Full(batch, frames, channels int, value float64) *Tensor {
	t := New(batch, frames, channels)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromData wraps an existing flat slice laid out batch-major, then
// frame-major. The slice is not copied.
func FromData(data []float64, batch, frames, channels int) *Tensor {
	if len(data) != batch*frames*channels {
		panic(fmt.Sprintf("tensor: data length %d does not match shape [%d, %d, %d]",
			len(data), batch, frames, channels))
	}
	return &Tensor{data: data, batch: batch, frames: frames, channels: channels}
}

// Shape returns (batch, frames, channels).
func (t *Tensor) Shape() (int, int, int) { return t.batch, t.frames, t.channels }

// Batch returns the batch dimension.
func (t *Tensor) Batch() int { return t.batch }

// Frames returns the frame (time) dimension.
func (t *Tensor) Frames() int { return t.frames }

// Channels returns the channel dimension.
func (t *Tensor) Channels() int { return t.channels }

// Len returns the total number of elements.
func (t *Tensor) Len() int { return len(t.data) }

// Data returns the backing slice. Mutations are visible to the tensor.
func (t *Tensor) Data() []float64 { return t.data }

func (t *Tensor) index(b, f, c int) int {
	return (b*t.frames+f)*t.channels + c
}

// At returns the element at [b, f, c].
func (t *Tensor) At(b, f, c int) float64 { return t.data[t.index(b, f, c)] }

// Set stores v at [b, f, c].
func (t *Tensor) Set(b, f, c int, v float64) { t.data[t.index(b, f, c)] = v }

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := New(t.batch, t.frames, t.channels)
	copy(out.data, t.data)
	return out
}

// SameShape reports whether t and o have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	return t.batch == o.batch && t.frames == o.frames && t.channels == o.channels
}

// Apply returns a new tensor with fn applied to every element.
func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	out := New(t.batch, t.frames, t.channels)
	for i, v := range t.data {
		out.data[i] = fn(v)
	}
	return out
}

// ApplyInPlace applies fn to every element in place and returns t.
func (t *Tensor) ApplyInPlace(fn func(float64) float64) *Tensor {
	for i, v := range t.data {
		t.data[i] = fn(v)
	}
	return t
}

// Mul returns the elementwise product of t and o.
// The shapes must match exactly.
func (t *Tensor) Mul(o *Tensor) *Tensor {
	mustMatch("Mul", t, o)
	out := New(t.batch, t.frames, t.channels)
	for i := range t.data {
		out.data[i] = t.data[i] * o.data[i]
	}
	return out
}

// MulBroadcast returns the elementwise product of t with o, where o may
// have a single channel that is broadcast across t's channels.
func (t *Tensor) MulBroadcast(o *Tensor) *Tensor {
	if t.batch != o.batch || t.frames != o.frames {
		panic(shapeError("MulBroadcast", t, o))
	}
	if o.channels == t.channels {
		return t.Mul(o)
	}
	if o.channels != 1 {
		panic(shapeError("MulBroadcast", t, o))
	}
	out := New(t.batch, t.frames, t.channels)
	for b := 0; b < t.batch; b++ {
		for f := 0; f < t.frames; f++ {
			s := o.At(b, f, 0)
			for c := 0; c < t.channels; c++ {
				out.Set(b, f, c, t.At(b, f, c)*s)
			}
		}
	}
	return out
}

// SumChannels reduces across the channel axis, returning a [B, F, 1] tensor.
func (t *Tensor) SumChannels() *Tensor {
	out := New(t.batch, t.frames, 1)
	for b := 0; b < t.batch; b++ {
		for f := 0; f < t.frames; f++ {
			sum := 0.0
			for c := 0; c < t.channels; c++ {
				sum += t.At(b, f, c)
			}
			out.Set(b, f, 0, sum)
		}
	}
	return out
}

// NormalizeChannels scales each [b, f, :] row so it sums to one, guarding
// the division with eps so an all-zero row stays finite.
func (t *Tensor) NormalizeChannels(eps float64) *Tensor {
	out := New(t.batch, t.frames, t.channels)
	for b := 0; b < t.batch; b++ {
		for f := 0; f < t.frames; f++ {
			sum := 0.0
			for c := 0; c < t.channels; c++ {
				sum += t.At(b, f, c)
			}
			inv := 1.0 / (sum + eps)
			for c := 0; c < t.channels; c++ {
				out.Set(b, f, c, t.At(b, f, c)*inv)
			}
		}
	}
	return out
}

// Squeeze returns the [batch][frames] view of a single-channel tensor as a
// batched signal. Panics if the tensor has more than one channel.
func (t *Tensor) Squeeze() [][]float64 {
	if t.channels != 1 {
		panic(fmt.Sprintf("tensor: Squeeze on %d channels", t.channels))
	}
	out := make([][]float64, t.batch)
	for b := 0; b < t.batch; b++ {
		row := make([]float64, t.frames)
		for f := 0; f < t.frames; f++ {
			row[f] = t.At(b, f, 0)
		}
		out[b] = row
	}
	return out
}

// FromSignal wraps a [batch][samples] signal as a [B, N, 1] tensor.
func FromSignal(signal [][]float64) *Tensor {
	if len(signal) == 0 || len(signal[0]) == 0 {
		panic("tensor: FromSignal on empty signal")
	}
	n := len(signal[0])
	out := New(len(signal), n, 1)
	for b, row := range signal {
		if len(row) != n {
			panic("tensor: FromSignal on ragged signal")
		}
		for f, v := range row {
			out.Set(b, f, 0, v)
		}
	}
	return out
}

func mustMatch(op string, a, b *Tensor) {
	if !a.SameShape(b) {
		panic(shapeError(op, a, b))
	}
}

func shapeError(op string, a, b *Tensor) string {
	return fmt.Sprintf("tensor: %s shape mismatch [%d, %d, %d] vs [%d, %d, %d]",
		op, a.batch, a.frames, a.channels, b.batch, b.frames, b.channels)
}
