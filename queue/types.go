package queue

import (
	"context"
	"errors"
)

var (
	ErrBusy            = errors.New("queue: a video is still loading")
	ErrNoCurrent       = errors.New("queue: nothing is selected")
	ErrIndexOutOfRange = errors.New("queue: index out of range")
	ErrEmptyTitle      = errors.New("queue: title cannot be empty")
	ErrDuplicateID     = errors.New("queue: entry id already queued")
)

// NoCursor is the exported cursor value when nothing is selected.
const NoCursor = -1

// Intent is the controller's belief about what the player is doing.
type Intent string

const (
	IntentIdle    Intent = "idle"
	IntentLoading Intent = "loading"
	IntentPlaying Intent = "playing"
	IntentPaused  Intent = "paused"
)

// PlayerState mirrors the lifecycle states reported by the embedded player.
type PlayerState string

const (
	PlayerUnstarted PlayerState = "unstarted"
	PlayerCued      PlayerState = "cued"
	PlayerBuffering PlayerState = "buffering"
	PlayerPlaying   PlayerState = "playing"
	PlayerPaused    PlayerState = "paused"
	PlayerEnded     PlayerState = "ended"
)

// ParsePlayerState accepts the names above as well as the numeric codes the
// YouTube IFrame API reports (-1, 0, 1, 2, 3, 5).
func ParsePlayerState(s string) (PlayerState, bool) {
	switch s {
	case "unstarted", "-1":
		return PlayerUnstarted, true
	case "ended", "0":
		return PlayerEnded, true
	case "playing", "1":
		return PlayerPlaying, true
	case "paused", "2":
		return PlayerPaused, true
	case "buffering", "3":
		return PlayerBuffering, true
	case "cued", "5":
		return PlayerCued, true
	}
	return "", false
}

// Resolver looks up a playable video for a song. An empty id with a nil
// error means the search worked but found nothing.
type Resolver interface {
	ResolveKaraoke(ctx context.Context, title, artist string) (string, error)
}

// Player is the command side of the embedded video widget. Implementations
// must not call back into the Controller synchronously.
type Player interface {
	LoadAndPlay(videoID string)
	Play()
	Pause()
	Stop()
}

// DropReason says why an entry left the queue.
type DropReason string

const (
	DropEnded         DropReason = "ended"
	DropPlaybackError DropReason = "playback_error"
	DropNotFound      DropReason = "not_found"
	DropResolveFailed DropReason = "resolve_failed"
	DropSkipped       DropReason = "skipped"
	DropRemoved       DropReason = "removed"
	DropSynced        DropReason = "synced"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient, user-facing message.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Observer receives notifications and entry removals. It is called with the
// controller lock held, so it must not call back into the Controller.
type Observer interface {
	Notify(n Notification)
	EntryDropped(e Entry, reason DropReason)
}

// Runner executes an asynchronous job. The default runs it on a new goroutine.
type Runner func(job func())

// State is a consistent copy of the controller for rendering.
type State struct {
	Entries       []Entry `json:"entries"`
	Cursor        int     `json:"cursor"`
	Intent        Intent  `json:"intent"`
	LoadedVideoID string  `json:"loaded_video_id,omitempty"`
	Resolving     bool    `json:"resolving"`
}

// Current returns the selected entry, if any.
func (s State) Current() (Entry, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Entries) {
		return Entry{}, false
	}
	return s.Entries[s.Cursor], true
}

type nopObserver struct{}

func (nopObserver) Notify(Notification)            {}
func (nopObserver) EntryDropped(Entry, DropReason) {}
