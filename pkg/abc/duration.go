package abc

import (
	"strconv"
	"strings"
)

// DurationToken rounds a duration in quarter-note beats to the nearest
// supported ABC length suffix using midpoint thresholds. A quarter note is
// the unit length and carries no suffix. This quantization is lossy and
// one way; the parser uses the exact inverse table in parseDuration, so
// round trips are fuzzy rather than bit exact for extreme durations.
func DurationToken(beats float64) string {
	switch {
	case beats < 0.375:
		return "/4"
	case beats < 0.75:
		return "/2"
	case beats < 1.5:
		return ""
	case beats < 3:
		return "2"
	case beats < 6:
		return "4"
	default:
		return "8"
	}
}

// parseDuration interprets a duration suffix as a beat count. An absent
// suffix is one beat; "/" halves it, "/N" divides by N, a bare integer
// multiplies. Anything unrecognized falls back to one beat.
func parseDuration(suffix string) float64 {
	switch suffix {
	case "":
		return 1
	case "/", "/2":
		return 0.5
	case "/4":
		return 0.25
	}
	if strings.HasPrefix(suffix, "/") {
		if n, err := strconv.Atoi(suffix[1:]); err == nil && n > 0 {
			return 1 / float64(n)
		}
		return 1
	}
	if n, err := strconv.Atoi(suffix); err == nil && n > 0 {
		return float64(n)
	}
	return 1
}
