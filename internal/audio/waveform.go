// Package audio provides waveform decoding, encoding, format normalization
// and silence detection for the dataset pipeline.
package audio

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// TargetSampleRate is the canonical sample rate for all exported clips.
const TargetSampleRate = 16000

// Waveform is a mono PCM signal with samples normalized to [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Seconds returns the duration of the waveform in seconds.
func (w *Waveform) Seconds() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Millis returns the duration of the waveform in milliseconds.
func (w *Waveform) Millis() int {
	if w.SampleRate == 0 {
		return 0
	}
	return len(w.Samples) * 1000 / w.SampleRate
}

// Slice returns the sub-waveform covering [startMs, endMs), clamped to the
// waveform bounds. The returned waveform shares the underlying sample slice.
func (w *Waveform) Slice(startMs, endMs int) *Waveform {
	start := msToSamples(startMs, w.SampleRate)
	end := msToSamples(endMs, w.SampleRate)
	if start < 0 {
		start = 0
	}
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	if start > end {
		start = end
	}
	return &Waveform{Samples: w.Samples[start:end], SampleRate: w.SampleRate}
}

// RMS returns the root-mean-square amplitude of the waveform.
func (w *Waveform) RMS() float64 {
	if len(w.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range w.Samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(w.Samples)))
}

// DBFS returns the average loudness in decibels relative to full scale.
// A digitally silent waveform yields negative infinity.
func (w *Waveform) DBFS() float64 {
	rms := w.RMS()
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// Peak returns the maximum absolute sample amplitude.
func (w *Waveform) Peak() float64 {
	var peak float64
	for _, s := range w.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func msToSamples(ms, rate int) int {
	return int(int64(ms) * int64(rate) / 1000)
}

// DecodeWAV reads a WAV file into a mono waveform. Multi-channel input is
// downmixed by averaging; samples are scaled to [-1, 1] by the source bit depth.
func DecodeWAV(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode wav %s: not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth != 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var acc float64
		for c := 0; c < channels; c++ {
			acc += float64(buf.Data[i*channels+c])
		}
		samples[i] = acc / float64(channels) / scale
	}

	return &Waveform{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// EncodeWAV writes the waveform to path as 16-bit mono PCM.
func EncodeWAV(path string, w *Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, w.SampleRate, 16, 1, 1)
	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		v := int(math.Round(s * 32767))
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		data[i] = v
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("write pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}
