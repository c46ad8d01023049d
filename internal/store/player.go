package store

import (
	"math"

	"github.com/desertthunder/skyplay/internal/models"
)

// DefaultVolume is the volume percentage a fresh session starts with.
const DefaultVolume = 50

// PlayerState is the playback snapshot shared by every view.
//
// CurrentTrack nil implies IsPlaying false. Once Duration is known,
// CurrentTime stays within [0, Duration].
type PlayerState struct {
	CurrentTrack *models.Track
	Playlist     []models.Track
	IsPlaying    bool
	CurrentTime  float64
	Duration     float64
	Volume       int
	Shuffle      bool
	Repeat       bool
}

// NewPlayerState returns the start-of-process playback state.
func NewPlayerState() PlayerState {
	return PlayerState{Volume: DefaultVolume}
}

// NewPlayerStore creates a playback store with default state.
func NewPlayerStore() *Store[PlayerState] {
	return New(NewPlayerState(), ReducePlayer)
}

// CurrentID returns the id of the current track and whether one is set.
func (s PlayerState) CurrentID() (int, bool) {
	if s.CurrentTrack == nil {
		return 0, false
	}
	return s.CurrentTrack.ID, true
}

// Playback actions.
type (
	// SetPlaylist replaces the context list next/previous navigate within.
	SetPlaylist struct{ Tracks []models.Track }
	// SelectTrack makes Track current, starts playing and rewinds to 0.
	// The catalog duration is only taken when the track changes.
	SelectTrack struct{ Track models.Track }
	// ClearTrack unloads the current track and stops playback.
	ClearTrack struct{}
	// TogglePlay flips IsPlaying when a track is loaded.
	TogglePlay struct{}
	// SetPlaying sets IsPlaying when a track is loaded; false always applies.
	SetPlaying struct{ Playing bool }
	SetCurrentTime struct{ Seconds float64 }
	SetDuration    struct{ Seconds float64 }
	// SetVolume stores a percentage clamped to [0, 100].
	SetVolume     struct{ Percent int }
	ToggleShuffle struct{}
	ToggleRepeat  struct{}
	// UpdateTrackLike patches LikedBy of TrackID in the current track and the playlist.
	UpdateTrackLike struct {
		TrackID int
		UserID  string
		Liked   bool
	}
)

// ReducePlayer is the [Reducer] for [PlayerState].
func ReducePlayer(s PlayerState, action Action) PlayerState {
	switch a := action.(type) {
	case SetPlaylist:
		s.Playlist = cloneTracks(a.Tracks)
	case SelectTrack:
		t := a.Track
		// Reselecting the loaded track keeps the duration the element measured.
		if s.CurrentTrack == nil || s.CurrentTrack.ID != t.ID {
			s.Duration = 0
			if finite(t.DurationSeconds) && t.DurationSeconds > 0 {
				s.Duration = t.DurationSeconds
			}
		}
		s.CurrentTrack = &t
		s.IsPlaying = true
		s.CurrentTime = 0
	case ClearTrack:
		s.CurrentTrack = nil
		s.IsPlaying = false
		s.CurrentTime = 0
		s.Duration = 0
	case TogglePlay:
		s.IsPlaying = s.CurrentTrack != nil && !s.IsPlaying
	case SetPlaying:
		s.IsPlaying = s.CurrentTrack != nil && a.Playing
	case SetCurrentTime:
		s.CurrentTime = clampTime(a.Seconds, s.Duration)
	case SetDuration:
		if !finite(a.Seconds) || a.Seconds <= 0 {
			return s
		}
		s.Duration = a.Seconds
		s.CurrentTime = clampTime(s.CurrentTime, s.Duration)
	case SetVolume:
		s.Volume = min(max(a.Percent, 0), 100)
	case ToggleShuffle:
		s.Shuffle = !s.Shuffle
	case ToggleRepeat:
		s.Repeat = !s.Repeat
	case UpdateTrackLike:
		return patchLike(s, a)
	}
	return s
}

func patchLike(s PlayerState, a UpdateTrackLike) PlayerState {
	if s.CurrentTrack != nil && s.CurrentTrack.ID == a.TrackID {
		if next, changed := s.CurrentTrack.WithLike(a.UserID, a.Liked); changed {
			s.CurrentTrack = &next
		}
	}

	var playlist []models.Track
	for i, t := range s.Playlist {
		if t.ID != a.TrackID {
			continue
		}
		next, changed := t.WithLike(a.UserID, a.Liked)
		if !changed {
			continue
		}
		if playlist == nil {
			playlist = cloneTracks(s.Playlist)
		}
		playlist[i] = next
	}
	if playlist != nil {
		s.Playlist = playlist
	}
	return s
}

func clampTime(t, duration float64) float64 {
	if !finite(t) || t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func cloneTracks(tracks []models.Track) []models.Track {
	if tracks == nil {
		return nil
	}
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out
}
