package abc

import "testing"

func TestDurationToken(t *testing.T) {
	tests := []struct {
		beats    float64
		expected string
	}{
		{0.1, "/4"},
		{0.25, "/4"},
		{0.374, "/4"},
		{0.375, "/2"},
		{0.5, "/2"},
		{0.749, "/2"},
		{0.75, ""},
		{1, ""},
		{1.49, ""},
		{1.5, "2"},
		{2, "2"},
		{2.99, "2"},
		{3, "4"},
		{4, "4"},
		{5.99, "4"},
		{6, "8"},
		{8, "8"},
		{100, "8"},
	}

	for _, tt := range tests {
		if got := DurationToken(tt.beats); got != tt.expected {
			t.Errorf("DurationToken(%v) = %q, want %q", tt.beats, got, tt.expected)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		suffix   string
		expected float64
	}{
		{"", 1},
		{"/", 0.5},
		{"/2", 0.5},
		{"/4", 0.25},
		{"/8", 0.125},
		{"2", 2},
		{"4", 4},
		{"8", 8},
		{"16", 16},
		{"/0", 1},  // nonsense divisor falls back to one beat
		{"abc", 1}, // unrecognized suffix falls back to one beat
	}

	for _, tt := range tests {
		if got := parseDuration(tt.suffix); got != tt.expected {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.suffix, got, tt.expected)
		}
	}
}

// The parser's duration table must exactly invert the serializer's token
// for every supported grid duration.
func TestDurationTableInverse(t *testing.T) {
	for _, beats := range []float64{0.25, 0.5, 1, 2, 4, 8} {
		if got := parseDuration(DurationToken(beats)); got != beats {
			t.Errorf("parseDuration(DurationToken(%v)) = %v", beats, got)
		}
	}
}
