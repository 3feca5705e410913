package abc

import (
	"errors"
	"math"
	"testing"

	"github.com/notefold/abcseq/pkg/sequence"
)

const timeEps = 1e-9

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= timeEps
}

func TestParseSingleNotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pitch    int
		duration float64 // beats
	}{
		{"quarter note", "C", 60, 1},
		{"sharp", "^C", 61, 1},
		{"flat normalizes to sharp", "_D", 61, 1},
		{"lowercase is octave 5", "c", 72, 1},
		{"comma lowers octave", "C,", 48, 1},
		{"apostrophe raises octave", "c'", 84, 1},
		{"double comma", "C,,", 36, 1},
		{"half note", "C2", 60, 2},
		{"whole note", "C4", 60, 4},
		{"eighth slash", "C/", 60, 0.5},
		{"eighth explicit", "C/2", 60, 0.5},
		{"sixteenth", "C/4", 60, 0.25},
		{"sharp with octave and duration", "^f'2", 90, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Parse(tt.input, 120)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if len(seq.Notes) != 1 {
				t.Fatalf("Parse(%q) = %d notes, want 1", tt.input, len(seq.Notes))
			}
			n := seq.Notes[0]
			if n.Pitch != tt.pitch {
				t.Errorf("pitch = %d, want %d", n.Pitch, tt.pitch)
			}
			wantSecs := tt.duration * 0.5 // one beat is half a second at 120
			if !closeTo(n.StartTime, 0) || !closeTo(n.EndTime, wantSecs) {
				t.Errorf("times = %v-%v, want 0-%v", n.StartTime, n.EndTime, wantSecs)
			}
			if n.Velocity != DefaultVelocity {
				t.Errorf("velocity = %v, want %v", n.Velocity, DefaultVelocity)
			}
		})
	}
}

func TestParseMelodyAdvancesCursor(t *testing.T) {
	seq, err := Parse("C D E F", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 4 {
		t.Fatalf("Parse() = %d notes, want 4", len(seq.Notes))
	}

	wantPitches := []int{60, 62, 64, 65}
	for i, n := range seq.Notes {
		if n.Pitch != wantPitches[i] {
			t.Errorf("note %d pitch = %d, want %d", i, n.Pitch, wantPitches[i])
		}
		if !closeTo(n.StartTime, float64(i)*0.5) {
			t.Errorf("note %d start = %v, want %v", i, n.StartTime, float64(i)*0.5)
		}
	}
	if !closeTo(seq.TotalTime, 2) {
		t.Errorf("TotalTime = %v, want 2", seq.TotalTime)
	}
}

func TestParseChord(t *testing.T) {
	seq, err := Parse("[CEG]2", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 3 {
		t.Fatalf("Parse() = %d notes, want 3", len(seq.Notes))
	}
	for i, want := range []int{60, 64, 67} {
		n := seq.Notes[i]
		if n.Pitch != want {
			t.Errorf("note %d pitch = %d, want %d", i, n.Pitch, want)
		}
		// the chord duration applies to every contained note
		if !closeTo(n.StartTime, 0) || !closeTo(n.EndTime, 1) {
			t.Errorf("note %d times = %v-%v, want 0-1", i, n.StartTime, n.EndTime)
		}
	}
	// the cursor advances once for the whole bracket
	if !closeTo(seq.TotalTime, 1) {
		t.Errorf("TotalTime = %v, want 1", seq.TotalTime)
	}
}

func TestParseRests(t *testing.T) {
	seq, err := Parse("C z E", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 2 {
		t.Fatalf("Parse() = %d notes, want 2", len(seq.Notes))
	}
	if !closeTo(seq.Notes[1].StartTime, 1) {
		t.Errorf("note after rest starts at %v, want 1", seq.Notes[1].StartTime)
	}

	seq, err = Parse("Z2 C", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !closeTo(seq.Notes[0].StartTime, 1) {
		t.Errorf("note after Z2 starts at %v, want 1", seq.Notes[0].StartTime)
	}
}

func TestParseFullTuneStripsHeaders(t *testing.T) {
	input := "X:1\nT:Test Tune\nM:4/4\nL:1/4\nK:C\nC D |\nE F\n"
	seq, err := Parse(input, 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 4 {
		t.Fatalf("Parse() = %d notes, want 4", len(seq.Notes))
	}
	// "T" from the title line must not leak in as a note
	if seq.Notes[0].Pitch != 60 {
		t.Errorf("first pitch = %d, want 60", seq.Notes[0].Pitch)
	}
}

func TestParseTieMerging(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"adjacent same pitch", "C C"},
		{"across bar line", "C2 | C2"},
		{"tie marker", "C ~ C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Parse(tt.input, 120)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if len(seq.Notes) != 1 {
				t.Fatalf("Parse(%q) = %d notes, want 1 merged note", tt.input, len(seq.Notes))
			}
			if !closeTo(seq.Notes[0].EndTime, seq.TotalTime) {
				t.Errorf("merged note ends at %v, total %v", seq.Notes[0].EndTime, seq.TotalTime)
			}
		})
	}
}

func TestParseDoesNotMergeSeparatedNotes(t *testing.T) {
	seq, err := Parse("C z C", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 2 {
		t.Errorf("Parse() = %d notes, want 2 (rest between same pitches)", len(seq.Notes))
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n", "| | |"} {
		seq, err := Parse(input, 120)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if len(seq.Notes) != 0 {
			t.Errorf("Parse(%q) = %d notes, want 0", input, len(seq.Notes))
		}
		if seq.TotalTime != 0 {
			t.Errorf("Parse(%q) total time = %v, want 0", input, seq.TotalTime)
		}
	}
}

func TestParseSkipsMalformedTokens(t *testing.T) {
	seq, err := Parse("C ? D $$ E", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 3 {
		t.Fatalf("Parse() = %d notes, want 3", len(seq.Notes))
	}
	// skipped garbage must not advance the time cursor
	if !closeTo(seq.Notes[1].StartTime, 0.5) || !closeTo(seq.Notes[2].StartTime, 1) {
		t.Errorf("starts = %v, %v, want 0.5, 1", seq.Notes[1].StartTime, seq.Notes[2].StartTime)
	}
}

func TestParseSkipsMalformedChordBody(t *testing.T) {
	seq, err := Parse("[??] C", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 1 {
		t.Fatalf("Parse() = %d notes, want 1", len(seq.Notes))
	}
	if !closeTo(seq.Notes[0].StartTime, 0) {
		t.Errorf("empty chord must not advance the cursor, C starts at %v", seq.Notes[0].StartTime)
	}
}

func TestParseRejectsBadTempo(t *testing.T) {
	for _, qpm := range []float64{0, -60} {
		if _, err := Parse("C", qpm); !errors.Is(err, sequence.ErrInvalidTempo) {
			t.Errorf("Parse with qpm %v error = %v, want ErrInvalidTempo", qpm, err)
		}
	}
}

func TestParseSetsTempo(t *testing.T) {
	seq, err := Parse("C", 90)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if seq.QPM() != 90 {
		t.Errorf("QPM() = %v, want 90", seq.QPM())
	}
	if !closeTo(seq.Notes[0].EndTime, 60.0/90) {
		t.Errorf("quarter note at 90 qpm ends at %v, want %v", seq.Notes[0].EndTime, 60.0/90)
	}
}

func TestParseAccidentalRoundTrip(t *testing.T) {
	// parsing "^C" yields MIDI 61 and rendering 61 yields "^C"
	seq, err := Parse("^C", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if seq.Notes[0].Pitch != 61 {
		t.Fatalf("Parse(^C) pitch = %d, want 61", seq.Notes[0].Pitch)
	}
	if got := PitchToken(61); got != "^C" {
		t.Errorf("PitchToken(61) = %q, want %q", got, "^C")
	}
}

func TestParseFlatOnC(t *testing.T) {
	// the enharmonic table wraps flats within the octave, so _C lands on B
	// of the same written octave rather than the octave below
	seq, err := Parse("_C", 120)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(seq.Notes) != 1 || seq.Notes[0].Pitch != 71 {
		t.Errorf("Parse(_C) = %+v, want single pitch 71", seq.Notes)
	}
}
