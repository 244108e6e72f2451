package vad

import (
	"math"
	"slices"

	"github.com/chaz8081/langid/internal/audio"
)

const (
	// Windows quieter than this are never speech.
	silenceFloorDB = -60.0
	// The noise floor is never placed closer than this to the loudest window,
	// so clips without pauses still register as speech.
	minDynamicRangeDB = 20.0
	// Level above the noise floor where speech probability starts to rise,
	// and the span over which it reaches 1.
	riseOffsetDB = 3.0
	riseSpanDB   = 12.0
)

// Energy is a Segmenter that scores each window by its RMS level relative to
// the clip's noise floor.
type Energy struct {
	opts Options
}

// NewEnergy returns an energy-based Segmenter.
func NewEnergy(opts Options) *Energy {
	return &Energy{opts: opts}
}

// Segment implements Segmenter.
func (e *Energy) Segment(samples []float32) ([]Span, error) {
	return speechSpans(energyProbs(samples), len(samples), e.opts), nil
}

// Close implements Segmenter.
func (e *Energy) Close() error { return nil }

// energyProbs returns a pseudo speech probability per analysis window.
func energyProbs(samples []float32) []float64 {
	n := (len(samples) + windowSize - 1) / windowSize
	if n == 0 {
		return nil
	}

	levels := make([]float64, n)
	for i := range levels {
		start := i * windowSize
		end := min(start+windowSize, len(samples))
		var sum float64
		for _, s := range samples[start:end] {
			sum += float64(s) * float64(s)
		}
		levels[i] = 20 * math.Log10(math.Sqrt(sum/float64(end-start))+1e-10)
	}

	sorted := slices.Clone(levels)
	slices.Sort(sorted)
	floor := max(sorted[len(sorted)/10], silenceFloorDB)
	floor = min(floor, sorted[len(sorted)-1]-minDynamicRangeDB)

	probs := make([]float64, n)
	for i, db := range levels {
		if db < silenceFloorDB {
			continue
		}
		p := (db - floor - riseOffsetDB) / riseSpanDB
		probs[i] = math.Max(0, math.Min(1, p))
	}
	return probs
}

// speechSpans turns per-window speech probabilities into speech spans.
// A segment opens when a window reaches the threshold and closes once the
// probability has stayed below threshold-thresholdGap for MinSilenceMs.
// Segments longer than MaxSpeechS are cut at the last long-enough pause, or
// hard-cut when there is none. Segments shorter than MinSpeechMs are dropped.
func speechSpans(probs []float64, total int, o Options) []Span {
	threshold := o.Threshold
	negThreshold := max(threshold-thresholdGap, 0.01)
	minSpeech := msToSamples(o.MinSpeechMs)
	minSilence := msToSamples(o.MinSilenceMs)
	// Pauses at least this long are candidate cut points for long segments.
	minSilenceAtMax := msToSamples(98)
	maxSpeech := int(o.MaxSpeechS*audio.SampleRate) - windowSize - 2*o.PadSamples()
	if maxSpeech <= 0 {
		maxSpeech = windowSize
	}

	var (
		spans     []Span
		cur       Span
		triggered bool
		tempEnd   int
		prevEnd   int
		nextStart int
	)

	for i, p := range probs {
		pos := i * windowSize

		if p >= threshold && tempEnd != 0 {
			tempEnd = 0
			if nextStart < prevEnd {
				nextStart = pos
			}
		}

		if p >= threshold && !triggered {
			triggered = true
			cur = Span{Start: pos}
			continue
		}

		if triggered && pos-cur.Start > maxSpeech {
			if prevEnd != 0 {
				cur.End = prevEnd
				spans = append(spans, cur)
				if nextStart < prevEnd {
					triggered = false
				} else {
					cur = Span{Start: nextStart}
				}
				prevEnd, nextStart, tempEnd = 0, 0, 0
			} else {
				cur.End = pos
				spans = append(spans, cur)
				prevEnd, nextStart, tempEnd = 0, 0, 0
				triggered = false
				continue
			}
		}

		if p < negThreshold && triggered {
			if tempEnd == 0 {
				tempEnd = pos
			}
			if pos-tempEnd > minSilenceAtMax {
				prevEnd = tempEnd
			}
			if pos-tempEnd < minSilence {
				continue
			}
			cur.End = tempEnd
			if cur.Len() > minSpeech {
				spans = append(spans, cur)
			}
			prevEnd, nextStart, tempEnd = 0, 0, 0
			triggered = false
		}
	}

	if triggered && total-cur.Start > minSpeech {
		cur.End = total
		spans = append(spans, cur)
	}
	return spans
}
