package player

import (
	"math/rand/v2"

	"github.com/desertthunder/skyplay/internal/models"
)

// NextTrack picks the track after current in playlist.
//
// With shuffle, it picks uniformly among the other tracks using intn (which
// defaults to math/rand/v2); a one-track playlist returns current itself. Without
// shuffle, it returns the following entry, or nil when current is last or absent.
func NextTrack(playlist []models.Track, current *models.Track, shuffle bool, intn func(int) int) *models.Track {
	if len(playlist) == 0 || current == nil {
		return nil
	}

	if shuffle {
		if len(playlist) == 1 {
			t := *current
			return &t
		}
		others := make([]models.Track, 0, len(playlist)-1)
		for _, t := range playlist {
			if t.ID != current.ID {
				others = append(others, t)
			}
		}
		if len(others) == 0 {
			return nil
		}
		if intn == nil {
			intn = rand.IntN
		}
		t := others[intn(len(others))]
		return &t
	}

	idx := indexOf(playlist, current.ID)
	if idx < 0 || idx >= len(playlist)-1 {
		return nil
	}
	t := playlist[idx+1]
	return &t
}

// PrevTrack returns the entry before current, ignoring shuffle. It returns nil
// when current is first or absent.
func PrevTrack(playlist []models.Track, current *models.Track) *models.Track {
	if len(playlist) == 0 || current == nil {
		return nil
	}
	idx := indexOf(playlist, current.ID)
	if idx <= 0 {
		return nil
	}
	t := playlist[idx-1]
	return &t
}

func indexOf(playlist []models.Track, id int) int {
	for i, t := range playlist {
		if t.ID == id {
			return i
		}
	}
	return -1
}
