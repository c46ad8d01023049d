package player

// percentToLevel converts a stored 0-100 volume to the element's 0-1 level.
func percentToLevel(percent int) float64 {
	return float64(min(max(percent, 0), 100)) / 100
}
