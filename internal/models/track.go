package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// PlaceholderAuthor marks a track without a known author.
const PlaceholderAuthor = "-"

// Track is a catalog record. Values are treated as immutable; helpers return modified copies.
type Track struct {
	ID              int      `json:"_id"`
	Name            string   `json:"name"`
	Author          string   `json:"author"`
	Album           string   `json:"album"`
	Genres          []string `json:"genre"`
	ReleaseDate     string   `json:"release_date"`
	DurationSeconds float64  `json:"duration_in_seconds"`
	AudioURL        string   `json:"track_file"`
	Logo            string   `json:"logo,omitempty"`
	LikedBy         UserIDs  `json:"stared_user"`
}

// LikeCount reports how many users liked the track.
func (t Track) LikeCount() int {
	return len(t.LikedBy)
}

// IsLikedBy reports whether userID is in the liked-by list.
func (t Track) IsLikedBy(userID string) bool {
	return slices.Contains(t.LikedBy, userID)
}

// HasGenre reports whether genre is one of the track's genres.
func (t Track) HasGenre(genre string) bool {
	return slices.Contains(t.Genres, genre)
}

// WithLike returns a copy of t with userID added to or removed from LikedBy.
// The second result is false when membership already matched and t is returned unchanged.
func (t Track) WithLike(userID string, liked bool) (Track, bool) {
	has := t.IsLikedBy(userID)
	switch {
	case liked && !has:
		next := make(UserIDs, 0, len(t.LikedBy)+1)
		next = append(next, t.LikedBy...)
		t.LikedBy = append(next, userID)
		return t, true
	case !liked && has:
		next := make(UserIDs, 0, len(t.LikedBy))
		for _, id := range t.LikedBy {
			if id != userID {
				next = append(next, id)
			}
		}
		t.LikedBy = next
		return t, true
	default:
		return t, false
	}
}

// UserIDs is the liked-by list of a track.
//
// The API has shipped it as strings, numbers and user objects; all decode to string ids.
type UserIDs []string

func (u *UserIDs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*u = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("stared_user: %w", err)
	}

	ids := make(UserIDs, 0, len(raw))
	for _, item := range raw {
		id, err := decodeUserID(item)
		if err != nil {
			return err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	*u = ids
	return nil
}

func decodeUserID(item json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(item, &n); err == nil {
		return n.String(), nil
	}

	var obj struct {
		ID  json.RawMessage `json:"id"`
		OID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(item, &obj); err != nil {
		return "", fmt.Errorf("stared_user: unsupported entry %s", string(item))
	}

	ref := obj.OID
	if len(ref) == 0 {
		ref = obj.ID
	}
	if len(ref) == 0 {
		return "", nil
	}
	return decodeUserID(ref)
}

// Selection is a curated list of track ids.
type Selection struct {
	ID    int    `json:"_id"`
	Name  string `json:"name"`
	Items []int  `json:"items"`
}

// SelectionTracks is a selection resolved against the catalog.
type SelectionTracks struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// TrackIDs returns the ids of tracks in order.
func TrackIDs(tracks []Track) []int {
	ids := make([]int, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// FindTrack returns the index of the track with id, or -1.
func FindTrack(tracks []Track, id int) int {
	return slices.IndexFunc(tracks, func(t Track) bool { return t.ID == id })
}

// FormatID renders a numeric catalog id for paths and storage keys.
func FormatID(id int) string {
	return strconv.Itoa(id)
}
