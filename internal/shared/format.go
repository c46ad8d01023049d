package shared

import (
	"fmt"
	"math"
)

// FormatDuration renders a whole number of seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatTime renders a playback position as M:SS, truncating fractions.
// Non-finite and negative positions render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	return FormatDuration(int(math.Floor(seconds)))
}
