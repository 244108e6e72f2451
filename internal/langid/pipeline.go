package langid

import (
	"fmt"
	"log/slog"

	"github.com/chaz8081/langid/internal/audio"
	"github.com/chaz8081/langid/internal/vad"
)

// Snippet limits detection to the head of a clip, with an optional longer
// second pass when the first one is not confident enough.
type Snippet struct {
	Seconds       float64 // 0 = whole clip
	RetrySeconds  float64 // 0 = no second pass
	MinConfidence float64
}

// Pipeline turns an audio file into a Result:
// decode -> snippet trim -> VAD -> pad and collect -> detect.
// The Detector and Segmenter are owned by the caller.
type Pipeline struct {
	Detector  Detector
	Segmenter vad.Segmenter
	VAD       vad.Options
	Snippet   Snippet

	// Decode defaults to audio.Decode.
	Decode func(path string) (*audio.Clip, error)
	Logger *slog.Logger
}

// RunFile decodes path and detects its language.
func (p *Pipeline) RunFile(path string) (Result, error) {
	decode := p.Decode
	if decode == nil {
		decode = audio.Decode
	}
	clip, err := decode(path)
	if err != nil {
		return Result{}, err
	}
	p.logger().Debug("decoded input", "path", path, "duration", clip.Duration())
	return p.Run(clip)
}

// Run detects the language of clip.
func (p *Pipeline) Run(clip *audio.Clip) (Result, error) {
	first := p.Snippet.Seconds
	res, err := p.detect(clip.Trim(first))
	if err != nil {
		return Result{}, err
	}

	if !p.shouldRetry(clip, res) {
		return res, nil
	}

	retry := p.Snippet.RetrySeconds
	p.logger().Info("low confidence, retrying on a longer snippet",
		"confidence", res.Score(), "min", p.Snippet.MinConfidence,
		"first_s", first, "retry_s", retry)

	second, err := p.detect(clip.Trim(retry))
	if err != nil {
		return Result{}, err
	}
	if second.Score() > res.Score() {
		return second, nil
	}
	return res, nil
}

// shouldRetry reports whether a second, longer pass could add information.
func (p *Pipeline) shouldRetry(clip *audio.Clip, first Result) bool {
	s := p.Snippet
	if s.Seconds <= 0 || s.RetrySeconds <= 0 {
		return false
	}
	if s.RetrySeconds <= s.Seconds {
		return false
	}
	// The first pass already saw the whole clip.
	if float64(len(clip.Samples)) <= s.Seconds*audio.SampleRate {
		return false
	}
	return first.Score() < s.MinConfidence
}

func (p *Pipeline) detect(clip *audio.Clip) (Result, error) {
	spans, err := p.Segmenter.Segment(clip.Samples)
	if err != nil {
		return Result{}, fmt.Errorf("langid: voice activity detection: %w", err)
	}
	spans = vad.Pad(spans, p.VAD.PadSamples(), len(clip.Samples))
	speech := vad.Collect(clip.Samples, spans)

	p.logger().Debug("voice activity",
		"segments", len(spans),
		"speech_s", float64(len(speech))/audio.SampleRate,
		"total_s", clip.Duration().Seconds())

	if len(speech) == 0 {
		return Result{}, nil
	}

	res, err := p.Detector.Detect(speech)
	if err != nil {
		return Result{}, err
	}
	if res.Language != nil {
		p.logger().Debug("detected", "language", *res.Language, "confidence", res.Score())
	}
	return res, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
