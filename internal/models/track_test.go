package models

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestTrack(t *testing.T) {
	t.Run("Decode API Record", func(t *testing.T) {
		data := `{
			"_id": 8,
			"name": "Chase",
			"author": "Alexander Nakarada",
			"release_date": "2005-06-11",
			"genre": ["Классическая музыка"],
			"duration_in_seconds": 205,
			"album": "Chase",
			"logo": null,
			"track_file": "/media/music_files/Chase.mp3",
			"stared_user": ["1", 2, {"id": 3}, {"_id": "4"}]
		}`

		var track Track
		if err := json.Unmarshal([]byte(data), &track); err != nil {
			t.Fatalf("failed to decode track: %v", err)
		}

		if track.ID != 8 {
			t.Errorf("expected id 8, got %d", track.ID)
		}
		if track.DurationSeconds != 205 {
			t.Errorf("expected duration 205, got %v", track.DurationSeconds)
		}
		if track.Logo != "" {
			t.Errorf("expected empty logo, got %q", track.Logo)
		}

		want := UserIDs{"1", "2", "3", "4"}
		if !slices.Equal(track.LikedBy, want) {
			t.Errorf("expected liked by %v, got %v", want, track.LikedBy)
		}
	})

	t.Run("Decode Fractional Duration", func(t *testing.T) {
		data := `[
			{"_id": 1, "duration_in_seconds": 215.5},
			{"_id": 2, "duration_in_seconds": 90}
		]`

		var tracks []Track
		if err := json.Unmarshal([]byte(data), &tracks); err != nil {
			t.Fatalf("fractional duration must not fail the listing: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].DurationSeconds != 215.5 {
			t.Errorf("expected duration 215.5, got %v", tracks[0].DurationSeconds)
		}
		if tracks[1].DurationSeconds != 90 {
			t.Errorf("expected duration 90, got %v", tracks[1].DurationSeconds)
		}
	})

	t.Run("Decode Null Liked By", func(t *testing.T) {
		var track Track
		if err := json.Unmarshal([]byte(`{"_id": 1, "stared_user": null}`), &track); err != nil {
			t.Fatalf("failed to decode track: %v", err)
		}
		if track.LikeCount() != 0 {
			t.Errorf("expected 0 likes, got %d", track.LikeCount())
		}
	})

	t.Run("Decode Invalid Liked By", func(t *testing.T) {
		var track Track
		if err := json.Unmarshal([]byte(`{"_id": 1, "stared_user": "nope"}`), &track); err == nil {
			t.Error("expected error for non-array stared_user")
		}
	})

	t.Run("WithLike", func(t *testing.T) {
		original := Track{ID: 1, LikedBy: UserIDs{"a"}}

		liked, changed := original.WithLike("b", true)
		if !changed {
			t.Fatal("expected change when adding a new user")
		}
		if !slices.Equal(liked.LikedBy, UserIDs{"a", "b"}) {
			t.Errorf("expected [a b], got %v", liked.LikedBy)
		}
		if !slices.Equal(original.LikedBy, UserIDs{"a"}) {
			t.Errorf("original mutated: %v", original.LikedBy)
		}

		same, changed := liked.WithLike("b", true)
		if changed {
			t.Error("expected no change when user already present")
		}
		if same.LikeCount() != 2 {
			t.Errorf("expected 2 likes, got %d", same.LikeCount())
		}

		removed, changed := liked.WithLike("a", false)
		if !changed || !slices.Equal(removed.LikedBy, UserIDs{"b"}) {
			t.Errorf("expected [b] after removal, got %v (changed=%v)", removed.LikedBy, changed)
		}

		if _, changed := removed.WithLike("zzz", false); changed {
			t.Error("removing an absent user should not change the track")
		}
	})

	t.Run("FindTrack", func(t *testing.T) {
		tracks := []Track{{ID: 3}, {ID: 5}}
		if got := FindTrack(tracks, 5); got != 1 {
			t.Errorf("expected index 1, got %d", got)
		}
		if got := FindTrack(tracks, 9); got != -1 {
			t.Errorf("expected -1, got %d", got)
		}
	})
}
