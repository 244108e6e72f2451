// Package audio decodes input files into the 16 kHz mono float32 PCM that
// speech models expect, and records short clips from the microphone.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// SampleRate is the rate every Clip is normalized to.
const SampleRate = 16000

// ErrUnavailable is returned by cgo-backed functionality in builds without cgo.
var ErrUnavailable = errors.New("audio: native audio support not compiled in (cgo disabled)")

// Clip is mono float32 PCM at SampleRate, normalized to [-1.0, 1.0].
type Clip struct {
	Samples []float32
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	return time.Duration(len(c.Samples)) * time.Second / SampleRate
}

// Trim returns a clip holding at most the first seconds of c.
// A non-positive value keeps everything. The samples are shared, not copied.
func (c *Clip) Trim(seconds float64) *Clip {
	if seconds <= 0 {
		return c
	}
	n := int(seconds * SampleRate)
	if n >= len(c.Samples) {
		return c
	}
	return &Clip{Samples: c.Samples[:n]}
}

// Decode reads an audio file of any supported container and returns it as a
// Clip. PCM WAV files are decoded natively; everything else goes through FFmpeg.
func Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("audio: read %q: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("audio: rewind %q: %w", path, err)
	}

	if isWAV(header[:n]) {
		clip, err := decodeWAV(f)
		if err == nil {
			return clip, nil
		}
		if !errors.Is(err, errNotPCM) {
			return nil, fmt.Errorf("audio: decode %q: %w", path, err)
		}
		// IEEE float and compressed WAV payloads are left to FFmpeg.
	}

	clip, err := decodeFFmpeg(path)
	if err != nil {
		return nil, fmt.Errorf("audio: decode %q: %w", path, err)
	}
	return clip, nil
}

var errNotPCM = errors.New("wav payload is not integer PCM")

// isWAV reports whether header starts a RIFF/WAVE file.
func isWAV(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

// decodeWAV decodes an integer PCM WAV stream of any bit depth, channel
// count and sample rate.
func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, errNotPCM
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading pcm data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("wav file has no pcm data")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	mono := downmix(buf.Data, channels, bitDepth)
	return &Clip{Samples: resample(mono, buf.Format.SampleRate, SampleRate)}, nil
}

// downmix averages interleaved integer samples across channels and scales
// them to [-1.0, 1.0]. 8-bit WAV data is unsigned.
func downmix(data []int, channels, bitDepth int) []float32 {
	scale := float32(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += float32(data[i*channels+ch]-offset) / scale
		}
		out[i] = clamp(sum / float32(channels))
	}
	return out
}

// resample converts samples from one rate to another by linear interpolation.
func resample(samples []float32, from, to int) []float32 {
	if from <= 0 || from == to || len(samples) == 0 {
		return samples
	}

	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
