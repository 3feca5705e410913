// Package midifile converts note sequences to and from Standard MIDI
// Files
package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/notefold/abcseq/pkg/sequence"
)

const ticksPerQuarter = 480

// FromSequence renders a note sequence as a single-track Standard MIDI
// File at 480 ticks per quarter note, carrying the sequence's initial
// tempo and a 4/4 time signature.
func FromSequence(seq *sequence.NoteSequence) ([]byte, error) {
	if seq == nil {
		return nil, errors.New("nil sequence")
	}

	qpm := seq.QPM()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track

	// Tempo meta event (FF 51 03)
	microsecondsPerBeat := uint32(60000000.0 / qpm)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// Time signature meta event (4/4)
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	type noteEvent struct {
		tick uint32
		on   bool
		key  uint8
		vel  uint8
	}

	var events []noteEvent
	for _, n := range seq.Notes {
		if n.EndTime <= n.StartTime || n.Pitch < 0 || n.Pitch > 127 {
			continue
		}
		events = append(events,
			noteEvent{tick: secondsToTicks(n.StartTime, qpm), on: true, key: uint8(n.Pitch), vel: velocityByte(n.Velocity)},
			noteEvent{tick: secondsToTicks(n.EndTime, qpm), on: false, key: uint8(n.Pitch)},
		)
	}

	// note offs before note ons at the same tick
	sort.Slice(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	channel := uint8(0)
	var currentTick uint32
	for _, ev := range events {
		delta := ev.tick - currentTick
		if ev.on {
			track.Add(delta, midi.NoteOn(channel, ev.key, ev.vel))
		} else {
			track.Add(delta, midi.NoteOff(channel, ev.key))
		}
		currentTick = ev.tick
	}

	track.Close(0)
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// ToSequence parses Standard MIDI File data into a note sequence. Note on
// and off events are paired per pitch across all tracks; velocities are
// normalized to [0,1] and the first tempo meta event becomes the
// sequence's tempo.
func ToSequence(data []byte) (seq *sequence.NoteSequence, e error) {
	// the smf reader panics on some malformed files
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	seq = sequence.New()
	tempoSet := false

	type onEvent struct {
		seconds  float64
		velocity uint8
	}

	for _, track := range s.Tracks {
		pressed := make(map[uint8][]onEvent)
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			msg := ev.Message

			if !tempoSet && len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					seq.Tempos[0].QPM = 60000000.0 / float64(microsecondsPerBeat)
					tempoSet = true
				}
			}

			var channel, key, velocity uint8
			switch {
			case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				pressed[key] = append(pressed[key], onEvent{
					seconds:  float64(s.TimeAt(absTicks)) / 1e6,
					velocity: velocity,
				})
			case msg.GetNoteOff(&channel, &key, &velocity),
				msg.GetNoteOn(&channel, &key, &velocity): // velocity 0 acts as note off
				pending := pressed[key]
				if len(pending) == 0 {
					continue
				}
				on := pending[0]
				pressed[key] = pending[1:]
				end := float64(s.TimeAt(absTicks)) / 1e6
				if end <= on.seconds {
					continue
				}
				seq.Notes = append(seq.Notes, sequence.Note{
					Pitch:     int(key),
					StartTime: on.seconds,
					EndTime:   end,
					Velocity:  float64(on.velocity) / 127,
				})
				if end > seq.TotalTime {
					seq.TotalTime = end
				}
			}
		}
	}

	seq.Notes = seq.SortedNotes()
	return seq, nil
}

// ReadFile parses a MIDI file from disk.
func ReadFile(path string) (*sequence.NoteSequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return ToSequence(data)
}

// WriteFile renders a sequence to a MIDI file on disk.
func WriteFile(seq *sequence.NoteSequence, path string) error {
	data, err := FromSequence(seq)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func secondsToTicks(seconds, qpm float64) uint32 {
	return uint32(math.Round(seconds * qpm / 60 * ticksPerQuarter))
}

func velocityByte(v float64) uint8 {
	scaled := int(math.Round(v * 127))
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 127 {
		scaled = 127
	}
	return uint8(scaled)
}
