package sequence

import (
	"reflect"
	"testing"
)

func TestQuantizeRoundsToGrid(t *testing.T) {
	s := New()
	s.Notes = []Note{
		{Pitch: 60, StartTime: 0, EndTime: 0.5, Velocity: 0.8},     // exactly one beat at 120
		{Pitch: 62, StartTime: 0.49, EndTime: 1.01, Velocity: 0.8}, // slightly off grid
	}

	q := Quantize(s, 120)
	if len(q) != 2 {
		t.Fatalf("Quantize() = %d notes, want 2", len(q))
	}
	if q[0].StartStep != 0 || q[0].EndStep != 4 {
		t.Errorf("note 0 steps = %d-%d, want 0-4", q[0].StartStep, q[0].EndStep)
	}
	if q[1].StartStep != 4 || q[1].EndStep != 8 {
		t.Errorf("note 1 steps = %d-%d, want 4-8", q[1].StartStep, q[1].EndStep)
	}
}

func TestQuantizeBumpsZeroLengthNotes(t *testing.T) {
	s := New()
	s.Notes = []Note{{Pitch: 60, StartTime: 0, EndTime: 0.01, Velocity: 0.8}}

	q := Quantize(s, 120)
	if len(q) != 1 {
		t.Fatalf("Quantize() = %d notes, want 1", len(q))
	}
	if q[0].EndStep != q[0].StartStep+1 {
		t.Errorf("end step = %d, want start+1 = %d", q[0].EndStep, q[0].StartStep+1)
	}
}

func TestQuantizeDropsDegenerateNotes(t *testing.T) {
	s := New()
	s.Notes = []Note{
		{Pitch: 60, StartTime: 1, EndTime: 1, Velocity: 0.8},
		{Pitch: 62, StartTime: 1, EndTime: 0.5, Velocity: 0.8},
		{Pitch: 64, StartTime: 0, EndTime: 0.5, Velocity: 0.8},
	}

	q := Quantize(s, 120)
	if len(q) != 1 || q[0].Pitch != 64 {
		t.Errorf("Quantize() should keep only the positive-duration note, got %+v", q)
	}
}

func TestQuantizeSortsByStepThenPitch(t *testing.T) {
	s := New()
	s.Notes = []Note{
		{Pitch: 67, StartTime: 0, EndTime: 0.5, Velocity: 0.8},
		{Pitch: 60, StartTime: 0, EndTime: 0.5, Velocity: 0.8},
		{Pitch: 64, StartTime: 0, EndTime: 0.5, Velocity: 0.8},
	}

	q := Quantize(s, 120)
	var pitches []int
	for _, n := range q {
		pitches = append(pitches, n.Pitch)
	}
	if !reflect.DeepEqual(pitches, []int{60, 64, 67}) {
		t.Errorf("Quantize() pitch order = %v, want ascending", pitches)
	}
}

func TestSegmentsMergesChord(t *testing.T) {
	notes := []QuantizedNote{
		{Note: Note{Pitch: 60}, StartStep: 0, EndStep: 8},
		{Note: Note{Pitch: 64}, StartStep: 0, EndStep: 8},
		{Note: Note{Pitch: 67}, StartStep: 0, EndStep: 8},
	}

	segs := Segments(notes)
	if len(segs) != 1 {
		t.Fatalf("Segments() = %d segments, want 1", len(segs))
	}
	if !reflect.DeepEqual(segs[0].Pitches, []int{60, 64, 67}) {
		t.Errorf("segment pitches = %v, want [60 64 67]", segs[0].Pitches)
	}
	if segs[0].StartStep != 0 || segs[0].EndStep != 8 {
		t.Errorf("segment span = %d-%d, want 0-8", segs[0].StartStep, segs[0].EndStep)
	}
}

func TestSegmentsSplitsSustainedNote(t *testing.T) {
	notes := []QuantizedNote{
		{Note: Note{Pitch: 60}, StartStep: 0, EndStep: 8},
		{Note: Note{Pitch: 64}, StartStep: 4, EndStep: 8},
	}

	segs := Segments(notes)
	if len(segs) != 2 {
		t.Fatalf("Segments() = %d segments, want 2", len(segs))
	}
	if !reflect.DeepEqual(segs[0].Pitches, []int{60}) || segs[0].EndStep != 4 {
		t.Errorf("segment 0 = %+v, want pitch 60 through step 4", segs[0])
	}
	if !reflect.DeepEqual(segs[1].Pitches, []int{60, 64}) {
		t.Errorf("segment 1 pitches = %v, want [60 64]", segs[1].Pitches)
	}
}

func TestSegmentsLeavesGaps(t *testing.T) {
	notes := []QuantizedNote{
		{Note: Note{Pitch: 60}, StartStep: 0, EndStep: 4},
		{Note: Note{Pitch: 64}, StartStep: 12, EndStep: 16},
	}

	segs := Segments(notes)
	if len(segs) != 2 {
		t.Fatalf("Segments() = %d segments, want 2", len(segs))
	}
	if segs[0].EndStep != 4 || segs[1].StartStep != 12 {
		t.Errorf("segments = %+v, want a gap between steps 4 and 12", segs)
	}
}

func TestSegmentsEmpty(t *testing.T) {
	if segs := Segments(nil); segs != nil {
		t.Errorf("Segments(nil) = %v, want nil", segs)
	}
}
