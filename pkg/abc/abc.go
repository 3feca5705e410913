// Package abc implements the bidirectional codec between note sequences
// and a practical subset of ABC notation: single-staff notes, chords and
// rests with sixteenth through double-whole durations. Multi-voice staves,
// lyrics, ornaments and non-default key signatures are out of scope.
package abc

import (
	"strconv"
	"strings"

	"github.com/notefold/abcseq/pkg/pitch"
)

// TokenKind identifies what a body token denotes.
type TokenKind int

const (
	TokenNote TokenKind = iota
	TokenChord
	TokenRest
)

func (k TokenKind) String() string {
	switch k {
	case TokenNote:
		return "note"
	case TokenChord:
		return "chord"
	case TokenRest:
		return "rest"
	default:
		return "unknown"
	}
}

// Accidental is the pitch alteration attached to a note token.
type Accidental int

const (
	Natural Accidental = iota
	Sharp              // ^
	Flat               // _
)

func (a Accidental) String() string {
	switch a {
	case Sharp:
		return "sharp"
	case Flat:
		return "flat"
	default:
		return "natural"
	}
}

// DefaultVelocity is assigned to every parsed note.
const DefaultVelocity = 0.8

// PitchToken renders a MIDI pitch as an ABC note token: accidental prefix
// (# becomes ^), letter case and octave suffix selected by octave. Octave
// 3 is uppercase with a trailing comma, 4 plain uppercase, 5 lowercase,
// 6 lowercase with an apostrophe. Octaves beyond that range keep the
// nearest case rule with no extra markers.
func PitchToken(p int) string {
	name := pitch.MidiToName(p)

	letter := name[:1]
	rest := name[1:]
	var prefix string
	if strings.HasPrefix(rest, "#") {
		prefix = "^"
		rest = rest[1:]
	}

	octave := 4
	if v, err := strconv.Atoi(rest); err == nil {
		octave = v
	}

	switch {
	case octave <= 3:
		token := prefix + letter
		if octave == 3 {
			token += ","
		}
		return token
	case octave == 4:
		return prefix + letter
	case octave == 5:
		return prefix + strings.ToLower(letter)
	default:
		token := prefix + strings.ToLower(letter)
		if octave == 6 {
			token += "'"
		}
		return token
	}
}
