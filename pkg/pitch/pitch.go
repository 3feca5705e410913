// Package pitch provides conversions between MIDI pitch numbers, note names
// and frequencies
package pitch

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// MIDI reference points (C4 = middle C = 60, A4 = 440Hz = 69)
const (
	MiddleC        = 60
	A4             = 69
	A4Freq         = 440.0
	SemisPerOctave = 12
)

// sharpNames is the chromatic scale with sharp spellings only. Flats are
// normalized to their enharmonic sharp equivalent before lookup.
var sharpNames = [SemisPerOctave]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// letterOffsets maps natural note letters to chromatic offsets within an octave
var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var noteNameRe = regexp.MustCompile(`^([A-Ga-g])([#b]?)(-?\d+)$`)

// ParseError reports a note name that does not match the
// <Letter>[#|b]<octave> grammar.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid note name: %q", e.Input)
}

// NameToMidi converts a note name like "C4" or "F#5" to its MIDI pitch
// number (C4 = 60). Accidentals that cross an octave boundary carry the
// octave, so "B#3" yields the same pitch as "C4".
func NameToMidi(name string) (int, error) {
	m := noteNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, &ParseError{Input: name}
	}

	letter := m[1][0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	offset := letterOffsets[letter]

	switch m[2] {
	case "#":
		offset++
	case "b":
		offset--
	}

	octave, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, &ParseError{Input: name}
	}

	// offset may be -1 (Cb) or 12 (B#); the arithmetic carries the octave
	return SemisPerOctave*(octave+1) + offset, nil
}

// MidiToName converts a MIDI pitch number to its note name using the sharp
// spelling, e.g. 61 -> "C#4".
func MidiToName(p int) string {
	name := sharpNames[((p%SemisPerOctave)+SemisPerOctave)%SemisPerOctave]
	octave := int(math.Floor(float64(p)/SemisPerOctave)) - 1
	return name + strconv.Itoa(octave)
}

// MidiToFrequency returns the equal-tempered frequency in Hz for a MIDI
// pitch number, with A4 = 440Hz.
func MidiToFrequency(p int) float64 {
	return A4Freq * math.Pow(2, float64(p-A4)/SemisPerOctave)
}

// SharpName returns the sharp spelling for a chromatic offset 0-11.
func SharpName(offset int) string {
	return sharpNames[((offset%SemisPerOctave)+SemisPerOctave)%SemisPerOctave]
}

// LetterOffset returns the chromatic offset for a natural note letter
// ('A'-'G', case insensitive) and whether the letter was recognized.
func LetterOffset(letter byte) (int, bool) {
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	off, ok := letterOffsets[letter]
	return off, ok
}
