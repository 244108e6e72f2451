//go:build cgo

package langid

import (
	"fmt"
	"os"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go"
)

// WhisperDetector runs whisper.cpp's language auto-detection on the first
// 30 seconds of the samples it is given. It is not safe for concurrent use.
type WhisperDetector struct {
	ctx          *whisper.Context
	threads      int
	multilingual bool
}

// NewWhisperDetector loads a ggml whisper model from opts.ModelPath.
// The caller must call Close() when done.
func NewWhisperDetector(opts Options) (*WhisperDetector, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("langid: whisper model: %w", err)
	}

	ctx := whisper.Whisper_init(opts.ModelPath)
	if ctx == nil {
		return nil, fmt.Errorf("langid: load whisper model %q: failed", opts.ModelPath)
	}

	return &WhisperDetector{
		ctx:          ctx,
		threads:      opts.threads(),
		multilingual: ctx.Whisper_is_multilingual() != 0,
	}, nil
}

// Close releases the whisper model resources.
func (d *WhisperDetector) Close() error {
	if d.ctx != nil {
		d.ctx.Whisper_free()
		d.ctx = nil
	}
	return nil
}

// Detect implements Detector. English-only models always answer "en" with
// full confidence; empty input yields an empty Result.
func (d *WhisperDetector) Detect(samples []float32) (Result, error) {
	if d.ctx == nil {
		return Result{}, fmt.Errorf("langid: whisper model is closed")
	}
	if len(samples) == 0 {
		return Result{}, nil
	}
	if !d.multilingual {
		return Detected("en", 1), nil
	}

	if err := d.ctx.Whisper_pcm_to_mel(samples, d.threads); err != nil {
		return Result{}, fmt.Errorf("langid: compute mel spectrogram: %w", err)
	}

	probs, err := d.ctx.Whisper_lang_auto_detect(0, d.threads)
	if err != nil {
		return Result{}, fmt.Errorf("langid: language auto-detect: %w", err)
	}

	best := -1
	for id, p := range probs {
		if best < 0 || p > probs[best] {
			best = id
		}
	}
	if best < 0 {
		return Result{}, fmt.Errorf("langid: language auto-detect returned no probabilities")
	}

	return Detected(d.ctx.Whisper_lang_str(best), float64(probs[best])), nil
}

func whisperAvailable() error { return nil }
