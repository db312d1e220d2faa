package queue

import (
	"fmt"
	"log"
)

// HandlePlayerState applies a lifecycle event reported by the player.
// Events that arrive while no video is loaded belong to a video that was
// already replaced and are ignored.
func (c *Controller) HandlePlayerState(s PlayerState) {
	_ = c.apply(func() (*resolveJob, error) {
		if c.loadedVideoID == "" {
			return nil, nil
		}

		switch s {
		case PlayerPlaying:
			c.intent = IntentPlaying
		case PlayerPaused:
			c.intent = IntentPaused
		case PlayerBuffering, PlayerUnstarted:
			c.intent = IntentLoading
		case PlayerCued:
			if c.intent != IntentPlaying {
				c.player.Play()
			}
		case PlayerEnded:
			idx := c.cursorLocked()
			if idx == NoCursor {
				return nil, nil
			}
			e := c.entries[idx]
			c.observer.Notify(Notification{
				Level:   LevelInfo,
				Title:   "Song finished",
				Message: fmt.Sprintf("%q has finished.", e.Title),
			})
			c.dropAtLocked(idx, DropEnded)
		}
		return nil, nil
	})
}

// HandlePlayerError drops the selected entry after the player failed to
// play it and advances to the next one.
func (c *Controller) HandlePlayerError(code int) {
	_ = c.apply(func() (*resolveJob, error) {
		idx := c.cursorLocked()
		if idx == NoCursor || c.loadedVideoID == "" {
			return nil, nil
		}
		e := c.entries[idx]
		log.Printf("queue: player error %d for %s (%s)", code, e.ID, c.loadedVideoID)
		c.observer.Notify(Notification{
			Level:   LevelError,
			Title:   "Playback error",
			Message: fmt.Sprintf("%q could not be played (code %d). Skipping.", e.Title, code),
		})
		c.dropAtLocked(idx, DropPlaybackError)
		return nil, nil
	})
}

// HandlePlayerReady re-issues the load command for a video that was cued
// before the player finished initializing. A playing or paused video is
// left where it is.
func (c *Controller) HandlePlayerReady() {
	_ = c.apply(func() (*resolveJob, error) {
		if c.loadedVideoID != "" && c.intent == IntentLoading {
			c.cueLocked(c.loadedVideoID)
		}
		return nil, nil
	})
}
