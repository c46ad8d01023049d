package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/skyplay/internal/filters"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
)

const progressWidth = 24

// renderPlayerBar draws the now-playing line, the progress line and any like error.
func renderPlayerBar(s store.PlayerState, liked bool, likeErr string) string {
	if s.CurrentTrack == nil {
		return styles.help.Render("Nothing playing")
	}

	icon := "⏸"
	if s.IsPlaying {
		icon = "▶"
	}

	heart := "♡"
	if liked {
		heart = "♥"
	}

	title := fmt.Sprintf("%s %s - %s %s", icon, s.CurrentTrack.Author, styles.accent.Render(s.CurrentTrack.Name), heart)

	var flags []string
	if s.Shuffle {
		flags = append(flags, "shuffle")
	}
	if s.Repeat {
		flags = append(flags, "repeat")
	}

	line := fmt.Sprintf("%s %s / %s  vol %d%%",
		progressBar(s.CurrentTime, s.Duration, progressWidth),
		shared.FormatTime(s.CurrentTime),
		shared.FormatTime(s.Duration),
		s.Volume,
	)
	if len(flags) > 0 {
		line += "  [" + strings.Join(flags, "] [") + "]"
	}

	out := title + "\n" + line
	if likeErr != "" {
		out += "\n" + styles.err.Render(likeErr)
	}
	return out
}

// progressBar renders elapsed/total as a fixed-width bar. Unknown durations render empty.
func progressBar(elapsed, total float64, width int) string {
	filled := 0
	if total > 0 && elapsed > 0 {
		filled = min(int(elapsed/total*float64(width)), width)
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func renderFilterLine(f filters.State, shown, total int) string {
	parts := []string{fmt.Sprintf("%d/%d tracks", shown, total)}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.Search))
	}
	if f.Author != "" {
		parts = append(parts, "author: "+f.Author)
	}
	if f.Genre != "" {
		parts = append(parts, "genre: "+f.Genre)
	}
	if f.Sort != "" && f.Sort != filters.SortDefault {
		parts = append(parts, "sort: "+string(f.Sort))
	}
	return strings.Join(parts, " • ")
}
