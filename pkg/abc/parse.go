package abc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/notefold/abcseq/pkg/pitch"
	"github.com/notefold/abcseq/pkg/sequence"
)

// mergeEpsilon is the tolerance in seconds when joining notes split across
// bar lines or tie markers.
const mergeEpsilon = 1e-6

var (
	headerLineRe = regexp.MustCompile(`^[A-Z]:`)
	chordRe      = regexp.MustCompile(`^\[([^\[\]]*)\](/\d*|\d+)?`)
	restRe       = regexp.MustCompile(`^[zZ](/\d*|\d+)?`)
	noteRe       = regexp.MustCompile(`^([\^_]?)([A-Ga-g])([,']*)(/\d*|\d+)?`)
)

// token is one parsed element of a note body.
type token struct {
	Kind    TokenKind
	Pitches []int   // one entry for a note, several for a chord, none for a rest
	Beats   float64 // duration in quarter-note beats
}

// Parse converts an ABC note body or full tune into a note sequence at the
// given tempo. Header lines are stripped when present, so both full tunes
// and bare "quick notation" bodies are accepted. Malformed tokens are
// skipped rather than reported; callers treat an empty Notes list as "no
// valid notes". The only error condition is a non-positive tempo.
func Parse(text string, qpm float64) (*sequence.NoteSequence, error) {
	if qpm <= 0 {
		return nil, fmt.Errorf("parse abc: %w: %v", sequence.ErrInvalidTempo, qpm)
	}

	seq := sequence.New()
	seq.Tempos[0].QPM = qpm

	secondsPerBeat := 60 / qpm
	cursor := 0.0

	for _, tok := range tokenize(extractBody(text)) {
		dur := tok.Beats * secondsPerBeat
		for _, p := range tok.Pitches {
			seq.Notes = append(seq.Notes, sequence.Note{
				Pitch:     p,
				StartTime: cursor,
				EndTime:   cursor + dur,
				Velocity:  DefaultVelocity,
			})
		}
		cursor += dur
	}

	seq.Notes = mergeSustained(seq.Notes)
	seq.TotalTime = cursor
	return seq, nil
}

// tokenize scans a cleaned note body left to right, trying the chord,
// rest and note grammars in that order at each position. Characters that
// match no grammar are skipped. A chord whose body yields no valid pitch
// is dropped entirely so it cannot advance the time cursor.
func tokenize(body string) []token {
	var tokens []token
	pos := 0
	for pos < len(body) {
		switch body[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
			continue
		}

		if m := chordRe.FindStringSubmatch(body[pos:]); m != nil {
			pos += len(m[0])
			if pitches := chordPitches(m[1]); len(pitches) > 0 {
				tokens = append(tokens, token{Kind: TokenChord, Pitches: pitches, Beats: parseDuration(m[2])})
			}
			continue
		}

		if m := restRe.FindStringSubmatch(body[pos:]); m != nil {
			pos += len(m[0])
			tokens = append(tokens, token{Kind: TokenRest, Beats: parseDuration(m[1])})
			continue
		}

		if m := noteRe.FindStringSubmatch(body[pos:]); m != nil {
			pos += len(m[0])
			if p, ok := tokenPitch(accidentalOf(m[1]), m[2], m[3]); ok {
				tokens = append(tokens, token{Kind: TokenNote, Pitches: []int{p}, Beats: parseDuration(m[4])})
			}
			continue
		}

		// unrecognized character, skip it
		pos++
	}
	return tokens
}

// extractBody strips header lines, bar separators and tie markers, leaving
// a whitespace-separated note body. Input with no header lines is treated
// as a bare body.
func extractBody(text string) string {
	lines := strings.Split(text, "\n")
	hasHeader := false
	for _, line := range lines {
		if headerLineRe.MatchString(line) {
			hasHeader = true
			break
		}
	}

	var kept []string
	if hasHeader {
		for _, line := range lines {
			if !headerLineRe.MatchString(line) {
				kept = append(kept, line)
			}
		}
	} else {
		kept = lines
	}

	body := strings.Join(kept, " ")
	body = strings.ReplaceAll(body, "|", " ")
	body = strings.ReplaceAll(body, "~", " ")
	return body
}

func accidentalOf(marker string) Accidental {
	switch marker {
	case "^":
		return Sharp
	case "_":
		return Flat
	default:
		return Natural
	}
}

// chordPitches parses the inside of a bracketed chord. Inner duration
// suffixes are ignored; the chord's own suffix governs timing.
func chordPitches(inner string) []int {
	var pitches []int
	pos := 0
	for pos < len(inner) {
		m := noteRe.FindStringSubmatch(inner[pos:])
		if m == nil {
			pos++
			continue
		}
		pos += len(m[0])
		if p, ok := tokenPitch(accidentalOf(m[1]), m[2], m[3]); ok {
			pitches = append(pitches, p)
		}
	}
	return pitches
}

// tokenPitch resolves an accidental, letter and octave markers to a MIDI
// pitch. Letter case selects the base octave (uppercase 4, lowercase 5);
// commas lower it and apostrophes raise it. Flats are normalized to the
// enharmonic sharp spelling before lookup.
func tokenPitch(accidental Accidental, letter, markers string) (int, bool) {
	base := letter[0]
	octave := 4
	if base >= 'a' && base <= 'g' {
		octave = 5
	}
	for _, r := range markers {
		switch r {
		case ',':
			octave--
		case '\'':
			octave++
		}
	}

	offset, ok := pitch.LetterOffset(base)
	if !ok {
		return 0, false
	}

	var name string
	switch accidental {
	case Sharp:
		name = strings.ToUpper(letter) + "#"
	case Flat:
		name = pitch.SharpName(offset - 1)
	default:
		name = strings.ToUpper(letter)
	}

	p, err := pitch.NameToMidi(fmt.Sprintf("%s%d", name, octave))
	if err != nil {
		return 0, false
	}
	return p, true
}

// mergeSustained joins adjacent notes of the same pitch and velocity whose
// end and start times touch, recovering notes split across bar lines or
// ties during tokenizing.
func mergeSustained(notes []sequence.Note) []sequence.Note {
	if len(notes) < 2 {
		return notes
	}

	byPitch := make([]sequence.Note, len(notes))
	copy(byPitch, notes)
	sort.Slice(byPitch, func(i, j int) bool {
		if byPitch[i].Pitch != byPitch[j].Pitch {
			return byPitch[i].Pitch < byPitch[j].Pitch
		}
		return byPitch[i].StartTime < byPitch[j].StartTime
	})

	merged := []sequence.Note{byPitch[0]}
	for _, n := range byPitch[1:] {
		last := &merged[len(merged)-1]
		if n.Pitch == last.Pitch && n.Velocity == last.Velocity &&
			math.Abs(n.StartTime-last.EndTime) <= mergeEpsilon {
			last.EndTime = n.EndTime
			continue
		}
		merged = append(merged, n)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].StartTime != merged[j].StartTime {
			return merged[i].StartTime < merged[j].StartTime
		}
		return merged[i].Pitch < merged[j].Pitch
	})
	return merged
}
