// Package sequence defines the canonical time-stamped note sequence model
// and its tempo and quantization math
package sequence

import (
	"errors"
	"fmt"
	"sort"
)

// Defaults applied when a sequence carries no tempo or time signature
const (
	DefaultQPM         = 120.0
	DefaultNumerator   = 4
	DefaultDenominator = 4
)

// Note is one sounding event. Times are in seconds, velocity is normalized
// to [0,1]. Notes are not mutated in place; sequences are rebuilt instead.
type Note struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Velocity  float64 `json:"velocity"`
}

// Duration returns the note length in seconds.
func (n Note) Duration() float64 {
	return n.EndTime - n.StartTime
}

// Tempo is a tempo marking in quarter notes per minute at a point in time.
type Tempo struct {
	Time float64 `json:"time"`
	QPM  float64 `json:"qpm"`
}

// TimeSignature is a meter marking at a point in time.
type TimeSignature struct {
	Time        float64 `json:"time"`
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
}

// NoteSequence is the canonical performance representation: notes plus
// tempo and meter markings. Note order is not semantically meaningful;
// consumers sort by start time. Only the first tempo entry is honored by
// the codec (mid-sequence tempo changes are a known simplification).
type NoteSequence struct {
	Notes          []Note          `json:"notes"`
	TotalTime      float64         `json:"totalTime"`
	Tempos         []Tempo         `json:"tempos"`
	TimeSignatures []TimeSignature `json:"timeSignatures"`
}

// New returns an empty sequence seeded with the default tempo and time
// signature at time zero.
func New() *NoteSequence {
	return &NoteSequence{
		Tempos:         []Tempo{{Time: 0, QPM: DefaultQPM}},
		TimeSignatures: []TimeSignature{{Time: 0, Numerator: DefaultNumerator, Denominator: DefaultDenominator}},
	}
}

// QPM returns the sequence's initial tempo, falling back to the default
// when no tempo entry is present.
func (s *NoteSequence) QPM() float64 {
	if s == nil || len(s.Tempos) == 0 || s.Tempos[0].QPM <= 0 {
		return DefaultQPM
	}
	return s.Tempos[0].QPM
}

// SortedNotes returns the notes ordered by (StartTime, Pitch, EndTime)
// without modifying the sequence.
func (s *NoteSequence) SortedNotes() []Note {
	notes := make([]Note, len(s.Notes))
	copy(notes, s.Notes)
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].StartTime != notes[j].StartTime {
			return notes[i].StartTime < notes[j].StartTime
		}
		if notes[i].Pitch != notes[j].Pitch {
			return notes[i].Pitch < notes[j].Pitch
		}
		return notes[i].EndTime < notes[j].EndTime
	})
	return notes
}

// ErrInvalidTempo is returned for tempo values that are zero or negative.
var ErrInvalidTempo = errors.New("tempo must be greater than zero")

// BeatsToSeconds converts a duration in quarter-note beats to seconds at
// the given tempo.
func BeatsToSeconds(beats, qpm float64) (float64, error) {
	if qpm <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTempo, qpm)
	}
	return beats * 60 / qpm, nil
}

// SecondsToBeats converts a duration in seconds to quarter-note beats at
// the given tempo.
func SecondsToBeats(seconds, qpm float64) (float64, error) {
	if qpm <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTempo, qpm)
	}
	return seconds * qpm / 60, nil
}

// Shift returns a copy of the sequence with every note and marking moved
// by the given number of seconds. Notes shifted before time zero are
// clamped at zero.
func Shift(s *NoteSequence, seconds float64) *NoteSequence {
	out := New()
	out.Tempos = shiftTempos(s.Tempos, seconds)
	out.TimeSignatures = shiftTimeSignatures(s.TimeSignatures, seconds)
	for _, n := range s.Notes {
		start := n.StartTime + seconds
		end := n.EndTime + seconds
		if end <= 0 {
			continue
		}
		if start < 0 {
			start = 0
		}
		out.Notes = append(out.Notes, Note{Pitch: n.Pitch, StartTime: start, EndTime: end, Velocity: n.Velocity})
		if end > out.TotalTime {
			out.TotalTime = end
		}
	}
	return out
}

func shiftTempos(tempos []Tempo, seconds float64) []Tempo {
	if len(tempos) == 0 {
		return []Tempo{{Time: 0, QPM: DefaultQPM}}
	}
	out := make([]Tempo, len(tempos))
	for i, t := range tempos {
		out[i] = Tempo{Time: max(0, t.Time+seconds), QPM: t.QPM}
	}
	return out
}

func shiftTimeSignatures(sigs []TimeSignature, seconds float64) []TimeSignature {
	if len(sigs) == 0 {
		return []TimeSignature{{Time: 0, Numerator: DefaultNumerator, Denominator: DefaultDenominator}}
	}
	out := make([]TimeSignature, len(sigs))
	for i, ts := range sigs {
		out[i] = TimeSignature{Time: max(0, ts.Time+seconds), Numerator: ts.Numerator, Denominator: ts.Denominator}
	}
	return out
}

// Merge returns a new sequence containing the notes of both inputs. Tempo
// and meter come from the first sequence; the second sequence's notes keep
// their absolute times.
func Merge(a, b *NoteSequence) *NoteSequence {
	out := New()
	if len(a.Tempos) > 0 {
		out.Tempos = append([]Tempo(nil), a.Tempos...)
	}
	if len(a.TimeSignatures) > 0 {
		out.TimeSignatures = append([]TimeSignature(nil), a.TimeSignatures...)
	}
	out.Notes = append(out.Notes, a.Notes...)
	out.Notes = append(out.Notes, b.Notes...)
	out.TotalTime = max(a.TotalTime, b.TotalTime)
	for _, n := range out.Notes {
		if n.EndTime > out.TotalTime {
			out.TotalTime = n.EndTime
		}
	}
	return out
}

// Transpose returns a copy of the sequence with every pitch moved by the
// given number of semitones. Notes transposed outside the MIDI range are
// dropped.
func Transpose(s *NoteSequence, semitones int) *NoteSequence {
	out := New()
	out.Tempos = append([]Tempo(nil), s.Tempos...)
	out.TimeSignatures = append([]TimeSignature(nil), s.TimeSignatures...)
	out.TotalTime = s.TotalTime
	for _, n := range s.Notes {
		p := n.Pitch + semitones
		if p < 0 || p > 127 {
			continue
		}
		out.Notes = append(out.Notes, Note{Pitch: p, StartTime: n.StartTime, EndTime: n.EndTime, Velocity: n.Velocity})
	}
	return out
}
