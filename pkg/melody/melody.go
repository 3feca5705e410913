// Package melody reduces a polyphonic quantized sequence to a single
// monophonic line by scoring note salience and melodic transitions. It is
// an explicitly opt-in utility; ABC serialization never invokes it.
package melody

import (
	"math"
	"sort"

	"github.com/notefold/abcseq/pkg/sequence"
)

// Scoring weights. Local salience favors longer, louder, higher notes on
// strong grid positions; transitions favor small intervals and no gaps.
const (
	durationWeight  = 0.8
	velocityWeight  = 0.6
	beatBonus       = 0.4
	halfBeatBonus   = 0.2
	stepIntervalMax = 2
	leapIntervalMax = 5
	stepBonus       = 0.6
	leapBonus       = 0.3
	leapPenalty     = 0.04
	noGapBonus      = 0.2
)

// Extract quantizes the sequence at its initial tempo and returns a new
// sequence containing only the extracted monophonic line, with the chosen
// notes' original start and end times preserved.
func Extract(seq *sequence.NoteSequence) *sequence.NoteSequence {
	line := ExtractQuantized(sequence.Quantize(seq, seq.QPM()))

	out := sequence.New()
	out.Tempos = append([]sequence.Tempo(nil), seq.Tempos...)
	out.TimeSignatures = append([]sequence.TimeSignature(nil), seq.TimeSignatures...)
	if len(out.Tempos) == 0 {
		out.Tempos = sequence.New().Tempos
	}
	if len(out.TimeSignatures) == 0 {
		out.TimeSignatures = sequence.New().TimeSignatures
	}
	for _, q := range line {
		out.Notes = append(out.Notes, q.Note)
		if q.EndTime > out.TotalTime {
			out.TotalTime = q.EndTime
		}
	}
	return out
}

// ExtractQuantized picks one note per distinct start step via forward
// scoring and backtracking, maximizing the sum of local salience and
// transition scores along the line.
func ExtractQuantized(notes []sequence.QuantizedNote) []sequence.QuantizedNote {
	if len(notes) == 0 {
		return nil
	}

	groups := groupByStart(notes)

	// scores[i][j]: best cumulative score ending at candidate j of group i
	scores := make([][]float64, len(groups))
	back := make([][]int, len(groups))
	for i, group := range groups {
		scores[i] = make([]float64, len(group))
		back[i] = make([]int, len(group))
		for j, cand := range group {
			local := localScore(cand)
			if i == 0 {
				scores[i][j] = local
				back[i][j] = -1
				continue
			}
			best := math.Inf(-1)
			bestPrev := 0
			for k, prev := range groups[i-1] {
				s := scores[i-1][k] + transitionScore(prev, cand)
				if s > best {
					best = s
					bestPrev = k
				}
			}
			scores[i][j] = best + local
			back[i][j] = bestPrev
		}
	}

	last := len(groups) - 1
	bestIdx := 0
	for j := range scores[last] {
		if scores[last][j] > scores[last][bestIdx] {
			bestIdx = j
		}
	}

	line := make([]sequence.QuantizedNote, len(groups))
	for i, j := last, bestIdx; i >= 0; i-- {
		line[i] = groups[i][j]
		j = back[i][j]
	}
	return line
}

// groupByStart partitions notes into start-step groups ordered by step.
func groupByStart(notes []sequence.QuantizedNote) [][]sequence.QuantizedNote {
	byStep := make(map[int][]sequence.QuantizedNote)
	for _, n := range notes {
		byStep[n.StartStep] = append(byStep[n.StartStep], n)
	}
	steps := make([]int, 0, len(byStep))
	for s := range byStep {
		steps = append(steps, s)
	}
	sort.Ints(steps)

	groups := make([][]sequence.QuantizedNote, len(steps))
	for i, s := range steps {
		groups[i] = byStep[s]
	}
	return groups
}

func localScore(n sequence.QuantizedNote) float64 {
	score := math.Log2(1+n.StepBeats())*durationWeight +
		n.Velocity*velocityWeight +
		float64(n.Pitch-60)/48

	switch {
	case n.StartStep%sequence.StepsPerBeat == 0:
		score += beatBonus
	case n.StartStep%(sequence.StepsPerBeat/2) == 0:
		score += halfBeatBonus
	}
	return score
}

func transitionScore(prev, cand sequence.QuantizedNote) float64 {
	interval := cand.Pitch - prev.Pitch
	if interval < 0 {
		interval = -interval
	}

	var score float64
	switch {
	case interval <= stepIntervalMax:
		score = stepBonus
	case interval <= leapIntervalMax:
		score = leapBonus
	default:
		score = -float64(interval) * leapPenalty
	}

	gap := cand.StartStep - prev.EndStep
	if gap > 0 {
		score -= float64(gap) / sequence.StepsPerBeat
	} else if gap == 0 {
		score += noGapBonus
	}
	return score
}
