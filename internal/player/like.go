package player

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
)

// likeFallback is shown when a like error carries no message.
const likeFallback = "could not update favorites"

// ToggleLike likes or unlikes the current track for the signed-in user.
//
// Only one toggle runs at a time; a concurrent call returns [shared.ErrLikeInFlight]
// without touching the network. The remote mutation happens first and local
// state is patched only after it succeeds, so failures leave favorites unchanged
// and surface through LikeError until the TTL expires.
func (c *Controller) ToggleLike(ctx context.Context) error {
	if !c.liking.CompareAndSwap(false, true) {
		return shared.ErrLikeInFlight
	}
	defer c.liking.Store(false)

	track := c.player.State().CurrentTrack
	if track == nil {
		return shared.ErrTrackNotFound
	}
	if c.session == nil || c.likes == nil {
		return shared.ErrNotAuthenticated
	}

	session, err := c.session.Session(ctx)
	if err != nil {
		return err
	}
	if !session.Authenticated() {
		return shared.ErrNotAuthenticated
	}

	c.setLikeError("")

	liked := c.favorites.State().Has(track.ID)
	if liked {
		err = c.likes.UnsetFavorite(ctx, track.ID)
	} else {
		err = c.likes.SetFavorite(ctx, track.ID)
	}
	if err != nil {
		c.logger.Warn("like toggle failed", "id", track.ID, "liked", liked, "err", err)
		msg := err.Error()
		if msg == "" {
			msg = likeFallback
		}
		c.setLikeError(msg)
		c.emitError(ErrorEvent{Operation: "like", TrackID: track.ID, Err: err})
		return fmt.Errorf("toggle like for track %d: %w", track.ID, err)
	}

	if liked {
		c.favorites.Dispatch(store.RemoveFavorite{ID: track.ID})
	} else {
		c.favorites.Dispatch(store.AddFavorite{ID: track.ID})
	}
	c.player.Dispatch(store.UpdateTrackLike{TrackID: track.ID, UserID: session.UserID, Liked: !liked})
	return nil
}

// Liked reports whether the current track is in the favorites set.
func (c *Controller) Liked() bool {
	id, ok := c.player.State().CurrentID()
	return ok && c.favorites.State().Has(id)
}

// LikeError returns the transient like error message, or "".
func (c *Controller) LikeError() string {
	c.likeMu.Lock()
	defer c.likeMu.Unlock()
	return c.likeErr
}

// setLikeError shows msg and clears it after the TTL unless a newer message replaced it.
func (c *Controller) setLikeError(msg string) {
	if msg == "" && c.LikeError() == "" {
		return
	}

	c.likeMu.Lock()
	c.likeSeq++
	seq := c.likeSeq
	c.likeErr = msg
	c.likeMu.Unlock()
	c.broadcastLikeError(msg)

	if msg == "" {
		return
	}
	time.AfterFunc(c.likeTTL, func() {
		c.likeMu.Lock()
		if c.likeSeq != seq {
			c.likeMu.Unlock()
			return
		}
		c.likeErr = ""
		c.likeMu.Unlock()
		c.broadcastLikeError("")
	})
}

func (c *Controller) broadcastLikeError(msg string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		sub.sendLikeError(msg)
	}
}
