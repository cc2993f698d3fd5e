// Command ddsprender renders one of the synthesizer modules to a WAV file
// with demo control envelopes, optionally converting the output sample rate
// and playing the result.
//
// Examples:
//
//	ddsprender -synth harmonic -f0 220 -dur 2 -out tone.wav
//	ddsprender -synth noise -dur 1 -play
//	ddsprender -synth modal -f0 440 -outrate 48000 -out bell.wav
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/dh1tw/gosamplerate"
	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ddsp-go/ddsp/pkg/dsp/tensor"
	"github.com/ddsp-go/ddsp/pkg/synth"
)

func main() {
	var (
		synthName = flag.String("synth", "harmonic", "synthesizer: harmonic, noise, sinusoidal, wavetable, modal, impact")
		duration  = flag.Float64("dur", 2.0, "render duration in seconds")
		srFlag    = flag.Int("sr", 16000, "synthesis sample rate in Hz")
		f0        = flag.Float64("f0", 220.0, "fundamental frequency in Hz")
		harmonics = flag.Int("harmonics", 16, "number of harmonics / partials")
		frames    = flag.Int("frames", 250, "number of control frames")
		outPath   = flag.String("out", "out.wav", "output WAV path")
		outRate   = flag.Int("outrate", 0, "output sample rate (0 keeps the synthesis rate)")
		gain      = flag.Float64("gain", 0.9, "peak-normalization target")
		play      = flag.Bool("play", false, "play the rendered audio")
	)
	flag.Parse()

	sr := *srFlag
	nSamples := int(*duration * float64(sr))
	nFrames := nearestDivisor(nSamples, *frames)

	raw, s, err := buildSynth(*synthName, nSamples, sr, nFrames, *f0, *harmonics)
	if err != nil {
		log.Fatalf("ddsprender: %v", err)
	}

	start := time.Now()
	_, signal, err := synth.Run(s, raw)
	if err != nil {
		log.Fatalf("ddsprender: render: %v", err)
	}
	log.Printf("rendered %d samples (%s synth) in %v", nSamples, s.Name(), time.Since(start))

	samples := normalize(signal[0], *gain)

	rate := sr
	if *outRate > 0 && *outRate != sr {
		samples, err = convertRate(samples, sr, *outRate)
		if err != nil {
			log.Fatalf("ddsprender: rate conversion: %v", err)
		}
		rate = *outRate
	}

	if err := writeWAV(*outPath, samples, rate); err != nil {
		log.Fatalf("ddsprender: %v", err)
	}
	log.Printf("wrote %s (%d Hz, %d samples)", *outPath, rate, len(samples))

	if *play {
		if err := playback(samples, rate); err != nil {
			log.Fatalf("ddsprender: playback: %v", err)
		}
	}
}

// buildSynth constructs the requested module along with demo raw controls.
func buildSynth(name string, nSamples, sr, nFrames int, f0 float64, harmonics int) (synth.Controls, synth.Synthesizer, error) {
	switch name {
	case "harmonic":
		raw := synth.Controls{
			"amplitudes":            fadeOut(nFrames),
			"harmonic_distribution": rolloff(nFrames, harmonics),
			"f0_hz":                 vibrato(nFrames, f0),
		}
		return raw, synth.NewHarmonic(synth.HarmonicConfig{NSamples: nSamples, SampleRate: sr}), nil

	case "noise":
		bins := 65
		mags := tensor.New(1, nFrames, bins)
		for f := 0; f < nFrames; f++ {
			// Sweep the cutoff down over time.
			cutoff := float64(bins) * (1.0 - 0.8*float64(f)/float64(nFrames))
			for k := 0; k < bins; k++ {
				logit := 4.0 * (cutoff - float64(k)) / float64(bins)
				mags.Set(0, f, k, logit)
			}
		}
		raw := synth.Controls{"magnitudes": mags}
		return raw, synth.NewFilteredNoise(synth.FilteredNoiseConfig{NSamples: nSamples}), nil

	case "sinusoidal":
		partials := harmonics
		amps := tensor.Full(1, nFrames, partials, 0.0)
		freqs := tensor.New(1, nFrames, partials)
		for f := 0; f < nFrames; f++ {
			for c := 0; c < partials; c++ {
				hz := f0 * float64(2*c+1) // odd partials, clarinet-ish
				freqs.Set(0, f, c, logit(hz/8000.0))
			}
		}
		raw := synth.Controls{"amplitudes": amps, "frequencies": freqs}
		return raw, synth.NewSinusoidal(synth.SinusoidalConfig{NSamples: nSamples, SampleRate: sr}), nil

	case "wavetable":
		tableSize := 256
		tables := tensor.New(1, nFrames, tableSize)
		for f := 0; f < nFrames; f++ {
			// Morph from a sine-heavy cycle to a brighter two-partial one.
			mix := float64(f) / float64(nFrames)
			for i := 0; i < tableSize; i++ {
				phase := 2.0 * math.Pi * float64(i) / float64(tableSize)
				v := math.Sin(phase) + mix*0.5*math.Sin(3.0*phase)
				tables.Set(0, f, i, v)
			}
		}
		raw := synth.Controls{
			"amplitudes": fadeOut(nFrames),
			"wavetables": tables,
			"f0_hz":      vibrato(nFrames, f0),
		}
		return raw, synth.NewWavetable(synth.WavetableConfig{NSamples: nSamples, SampleRate: sr}), nil

	case "modal":
		// Stiff-bar partial ratios, struck-metal flavor.
		ratios := []float64{1.0, 2.76, 5.40, 8.93, 13.34, 18.64, 24.81, 31.87}
		modes := len(ratios)
		gains := tensor.New(1, 1, modes)
		freqs := tensor.New(1, 1, modes)
		damps := tensor.New(1, 1, modes)
		for c := 0; c < modes; c++ {
			gains.Set(0, 0, c, 1.0-0.3*float64(c))
			freqs.Set(0, 0, c, logit(math.Min(f0*ratios[c], 7999.0)/8000.0))
			damps.Set(0, 0, c, -4.0+0.3*float64(c))
		}
		raw := synth.Controls{"gains": gains, "frequencies": freqs, "dampings": damps}
		return raw, synth.NewModalFIR(synth.ModalFIRConfig{NSamples: nSamples, SampleRate: sr}), nil

	case "impact":
		mags := tensor.Full(1, nFrames, 1, -6.0)
		step := nFrames / 8
		if step < 1 {
			step = 1
		}
		for f := 0; f < nFrames; f += step {
			mags.Set(0, f, 0, 2.0)
		}
		raw := synth.Controls{
			"magnitudes":     mags,
			"stdevs":         tensor.New(1, nFrames, 1),
			"taus":           tensor.New(1, nFrames, 1),
			"tau_multiplier": tensor.New(1, 1, 1),
		}
		return raw, synth.NewImpact(synth.ImpactConfig{NSamples: nSamples, SampleRate: sr}), nil
	}
	return nil, nil, fmt.Errorf("unknown synth %q", name)
}

// fadeOut returns [1, F, 1] amplitude logits easing from loud to quiet.
func fadeOut(nFrames int) *tensor.Tensor {
	t := tensor.New(1, nFrames, 1)
	for f := 0; f < nFrames; f++ {
		t.Set(0, f, 0, 2.0-5.0*float64(f)/float64(nFrames))
	}
	return t
}

// rolloff returns [1, F, K] distribution logits favoring low harmonics.
func rolloff(nFrames, harmonics int) *tensor.Tensor {
	t := tensor.New(1, nFrames, harmonics)
	for f := 0; f < nFrames; f++ {
		for k := 0; k < harmonics; k++ {
			t.Set(0, f, k, -0.5*float64(k))
		}
	}
	return t
}

// vibrato returns [1, F, 1] f0 values with a gentle 5 Hz-ish wobble.
func vibrato(nFrames int, f0 float64) *tensor.Tensor {
	t := tensor.New(1, nFrames, 1)
	for f := 0; f < nFrames; f++ {
		wobble := 1.0 + 0.005*math.Sin(2.0*math.Pi*6.0*float64(f)/float64(nFrames))
		t.Set(0, f, 0, f0*wobble)
	}
	return t
}

// logit is the inverse sigmoid, for aiming a sigmoid-scaled control at a
// target fraction of its range.
func logit(p float64) float64 {
	if p <= 0 {
		p = 1e-6
	}
	if p >= 1 {
		p = 1 - 1e-6
	}
	return math.Log(p / (1.0 - p))
}

// nearestDivisor returns the largest divisor of n that is <= want, so the
// windowed resampler's divisibility requirement always holds.
func nearestDivisor(n, want int) int {
	if want < 1 {
		want = 1
	}
	if want > n {
		want = n
	}
	for d := want; d > 1; d-- {
		if n%d == 0 {
			return d
		}
	}
	return 1
}

func normalize(signal []float64, target float64) []float64 {
	peak := 0.0
	for _, v := range signal {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return signal
	}
	scale := target / peak
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v * scale
	}
	return out
}

// convertRate resamples mono audio with libsamplerate's best sinc converter.
func convertRate(samples []float64, from, to int) ([]float64, error) {
	in := make([]float32, len(samples))
	for i, v := range samples {
		in[i] = float32(v)
	}
	ratio := float64(to) / float64(from)
	out, err := gosamplerate.Simple(in, ratio, 1, gosamplerate.SRC_SINC_BEST_QUALITY)
	if err != nil {
		return nil, err
	}
	converted := make([]float64, len(out))
	for i, v := range out {
		converted[i] = float64(v)
	}
	return converted, nil
}

func writeWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, v := range samples {
		buf.Data[i] = int(math.Round(clamp(v, -1.0, 1.0) * 32767.0))
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func playback(samples []float64, sampleRate int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	pcm := new(bytes.Buffer)
	for _, v := range samples {
		if err := binary.Write(pcm, binary.LittleEndian, float32(v)); err != nil {
			return err
		}
	}
	player := ctx.NewPlayer(pcm)
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return player.Close()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
