package sequence

import (
	"math"
	"sort"
)

// StepsPerBeat is the quantization grid resolution: four steps per quarter
// note, i.e. sixteenth-note resolution.
const StepsPerBeat = 4

// QuantizedNote is a note snapped onto the step grid. Derived during
// serialization and melody extraction, never persisted.
type QuantizedNote struct {
	Note
	StartStep int
	EndStep   int
}

// StepBeats returns the quantized duration in beats.
func (q QuantizedNote) StepBeats() float64 {
	return float64(q.EndStep-q.StartStep) / StepsPerBeat
}

// Quantize snaps every positive-duration note onto the step grid at the
// given tempo. End steps are bumped so every quantized note spans at least
// one step. The result is sorted by (StartStep, Pitch).
func Quantize(s *NoteSequence, qpm float64) []QuantizedNote {
	if qpm <= 0 {
		qpm = DefaultQPM
	}

	var out []QuantizedNote
	for _, n := range s.Notes {
		if n.EndTime <= n.StartTime {
			continue
		}
		startStep := int(math.Round(n.StartTime * qpm / 60 * StepsPerBeat))
		endStep := int(math.Round(n.EndTime * qpm / 60 * StepsPerBeat))
		if endStep <= startStep {
			endStep = startStep + 1
		}
		out = append(out, QuantizedNote{Note: n, StartStep: startStep, EndStep: endStep})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartStep != out[j].StartStep {
			return out[i].StartStep < out[j].StartStep
		}
		return out[i].Pitch < out[j].Pitch
	})
	return out
}

// Segment is a maximal span of steps during which a fixed set of pitches
// sounds simultaneously: a single note or a chord.
type Segment struct {
	StartStep int
	EndStep   int
	Pitches   []int
}

// Segments sweeps note on/off events across all step boundaries and emits
// non-overlapping timeline segments. Overlapping notes merge into chords;
// a sustained note splits whenever another note starts or ends under it.
func Segments(notes []QuantizedNote) []Segment {
	if len(notes) == 0 {
		return nil
	}

	boundarySet := make(map[int]bool)
	for _, n := range notes {
		boundarySet[n.StartStep] = true
		boundarySet[n.EndStep] = true
	}
	boundaries := make([]int, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Ints(boundaries)

	active := make(map[int]bool)
	var segments []Segment
	for i, b := range boundaries {
		for _, n := range notes {
			if n.EndStep == b {
				delete(active, n.Pitch)
			}
		}
		for _, n := range notes {
			if n.StartStep == b {
				active[n.Pitch] = true
			}
		}
		if i+1 < len(boundaries) && len(active) > 0 {
			pitches := make([]int, 0, len(active))
			for p := range active {
				pitches = append(pitches, p)
			}
			sort.Ints(pitches)
			segments = append(segments, Segment{StartStep: b, EndStep: boundaries[i+1], Pitches: pitches})
		}
	}
	return segments
}
