package stream

import "math"

// levelToVolume converts a 0.0-1.0 level to beep's Volume value.
// beep uses a base-2 logarithmic scale: 0 is unchanged, -1 is half and so on.
// A level of 0 maps to -10 and the effect is also marked silent by the caller.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
