package queue

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultRequester is shown when the submitter of a song is unknown.
const DefaultRequester = "Anonymous"

// Entry is one song request in a stage queue.
type Entry struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist,omitempty"`
	RequestedBy     string `json:"requested_by"`
	ResolvedVideoID string `json:"resolved_video_id,omitempty"`
}

// NewEntryID returns a provisional client-side identity for an entry that
// has not been persisted yet.
func NewEntryID() string {
	return uuid.NewString()
}

func (e Entry) normalized() Entry {
	e.Title = strings.TrimSpace(e.Title)
	e.Artist = strings.TrimSpace(e.Artist)
	e.RequestedBy = strings.TrimSpace(e.RequestedBy)
	if e.RequestedBy == "" {
		e.RequestedBy = DefaultRequester
	}
	e.ResolvedVideoID = strings.TrimSpace(e.ResolvedVideoID)
	return e
}

func indexOf(entries []Entry, id string) int {
	if id == "" {
		return -1
	}
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func sameIdentities(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
