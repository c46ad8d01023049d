package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

var (
	_ list.Item = selectionItem{}
	_ list.Item = trackItem{}
)

// selectionItem wraps [models.Selection] to implement [list.Item].
type selectionItem struct {
	selection models.Selection
}

func (i selectionItem) FilterValue() string { return i.selection.Name }
func (i selectionItem) Title() string {
	if i.selection.Name == "" {
		return "Selection"
	}
	return i.selection.Name
}
func (i selectionItem) Description() string { return fmt.Sprintf("%d tracks", len(i.selection.Items)) }

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	current bool
	liked   bool
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	var b strings.Builder
	if i.current {
		b.WriteString("▶ ")
	}
	b.WriteString(i.track.Name)
	if i.liked {
		b.WriteString(" ♥")
	}
	return b.String()
}

func (i trackItem) Description() string {
	parts := []string{i.track.Author}
	if i.track.Album != "" && i.track.Album != models.PlaceholderAuthor {
		parts = append(parts, i.track.Album)
	}
	parts = append(parts, shared.FormatTime(i.track.DurationSeconds))
	if n := i.track.LikeCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d likes", n))
	}
	return strings.Join(parts, " • ")
}

func trackItems(tracks []models.Track, currentID int, liked func(int) bool) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, current: t.ID == currentID, liked: liked(t.ID)}
	}
	return items
}

func selectionItems(selections []models.Selection) []list.Item {
	items := make([]list.Item, len(selections))
	for i, s := range selections {
		items[i] = selectionItem{selection: s}
	}
	return items
}
