package abc

import (
	"strings"

	"github.com/notefold/abcseq/pkg/sequence"
)

// Serialize renders a note sequence as an ABC tune with a fixed 4/4,
// quarter-note-unit header. Notes are quantized onto the sixteenth-note
// grid at the sequence's initial tempo, swept into single-note or chord
// segments, and emitted with rests filling any gaps. Returns an empty
// string when no note has positive duration.
func Serialize(seq *sequence.NoteSequence, title string) string {
	quantized := sequence.Quantize(seq, seq.QPM())
	if len(quantized) == 0 {
		return ""
	}

	var header []string
	header = append(header, "X:1")
	if title != "" {
		header = append(header, "T:"+title)
	}
	header = append(header, "M:4/4", "L:1/4", "K:C")

	body := renderSegments(sequence.Segments(quantized))
	return strings.Join(header, "\n") + "\n" + body + "\n"
}

// renderSegments walks timeline segments in order, filling gaps with rest
// tokens and emitting a pitch or bracketed chord token per segment.
func renderSegments(segments []sequence.Segment) string {
	var tokens []string
	currentStep := 0
	for _, seg := range segments {
		if seg.StartStep > currentStep {
			gapBeats := float64(seg.StartStep-currentStep) / sequence.StepsPerBeat
			tokens = append(tokens, "z"+DurationToken(gapBeats))
		}

		durBeats := float64(seg.EndStep-seg.StartStep) / sequence.StepsPerBeat
		if len(seg.Pitches) == 1 {
			tokens = append(tokens, PitchToken(seg.Pitches[0])+DurationToken(durBeats))
		} else {
			var sb strings.Builder
			sb.WriteByte('[')
			for _, p := range seg.Pitches {
				sb.WriteString(PitchToken(p))
			}
			sb.WriteByte(']')
			sb.WriteString(DurationToken(durBeats))
			tokens = append(tokens, sb.String())
		}

		currentStep = seg.EndStep
	}
	return strings.Join(tokens, " ")
}
