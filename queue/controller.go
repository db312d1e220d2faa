package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"
)

var (
	// ErrUnknownEntry is returned by RemoveByID when the id is not queued.
	ErrUnknownEntry = errors.New("queue: unknown entry")
	ErrClosed       = errors.New("queue: controller is closed")
)

const defaultResolveTimeout = 15 * time.Second

// Options configures a Controller.
type Options struct {
	Player   Player
	Resolver Resolver
	Observer Observer
	Runner   Runner

	// ResolveTimeout bounds a single resolver call.
	ResolveTimeout time.Duration

	// ManualStart keeps the cursor unset until the user starts playback
	// explicitly (TogglePlayback or PlayNow).
	ManualStart bool
}

// Controller owns a stage's playback queue: the ordered entries, the
// selected entry and the playback intent. All transitions run under one
// mutex and re-derive cursor validity before the lock is released.
//
// The cursor is tracked by entry identity and only translated to an index
// for callers, so reordering or removing other entries never moves it.
type Controller struct {
	mu sync.Mutex

	entries       []Entry
	currentID     string
	started       bool
	intent        Intent
	loadedVideoID string
	resolvingID   string
	generation    uint64
	reselectAt    int
	closed        bool

	player         Player
	resolver       Resolver
	observer       Observer
	run            Runner
	resolveTimeout time.Duration
}

type resolveJob struct {
	entryID    string
	title      string
	artist     string
	generation uint64
}

// New creates a Controller with an empty queue.
func New(opts Options) *Controller {
	c := &Controller{
		intent:         IntentIdle,
		started:        !opts.ManualStart,
		player:         opts.Player,
		resolver:       opts.Resolver,
		observer:       opts.Observer,
		run:            opts.Runner,
		resolveTimeout: opts.ResolveTimeout,
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.run == nil {
		c.run = func(job func()) { go job() }
	}
	if c.resolveTimeout <= 0 {
		c.resolveTimeout = defaultResolveTimeout
	}
	return c
}

// Snapshot returns a consistent copy of the queue state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Entries:       slices.Clone(c.entries),
		Cursor:        c.cursorLocked(),
		Intent:        c.intent,
		LoadedVideoID: c.loadedVideoID,
		Resolving:     c.resolvingID != "",
	}
}

// Cursor returns the index of the selected entry or NoCursor.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursorLocked()
}

// Len returns the number of queued entries.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Add appends an entry. Entries without an id get a provisional one.
func (c *Controller) Add(e Entry) (Entry, error) {
	e = e.normalized()
	if e.Title == "" {
		return Entry{}, ErrEmptyTitle
	}
	if e.ID == "" {
		e.ID = NewEntryID()
	}

	err := c.apply(func() (*resolveJob, error) {
		if indexOf(c.entries, e.ID) >= 0 {
			return nil, ErrDuplicateID
		}
		c.entries = append(c.entries, e)
		return nil, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Skip drops the selected entry and advances. It is refused while a video
// is being resolved or loaded.
func (c *Controller) Skip() error {
	return c.apply(func() (*resolveJob, error) {
		idx := c.cursorLocked()
		if idx == NoCursor {
			return nil, ErrNoCurrent
		}
		if c.busyLocked() {
			return nil, ErrBusy
		}
		e := c.entries[idx]
		c.player.Stop()
		c.observer.Notify(Notification{
			Level:   LevelInfo,
			Title:   "Skipped",
			Message: fmt.Sprintf("%q was skipped.", e.Title),
		})
		c.dropAtLocked(idx, DropSkipped)
		return nil, nil
	})
}

// Remove drops the entry at index i. Removing the selected entry behaves
// like a skip without the loading guard.
func (c *Controller) Remove(i int) error {
	return c.apply(func() (*resolveJob, error) {
		if i < 0 || i >= len(c.entries) {
			return nil, ErrIndexOutOfRange
		}
		c.removeLocked(i)
		return nil, nil
	})
}

// RemoveByID drops the entry with the given id.
func (c *Controller) RemoveByID(id string) error {
	return c.apply(func() (*resolveJob, error) {
		i := indexOf(c.entries, id)
		if i < 0 {
			return nil, ErrUnknownEntry
		}
		c.removeLocked(i)
		return nil, nil
	})
}

func (c *Controller) removeLocked(i int) {
	e := c.entries[i]
	if e.ID == c.currentID && c.loadedVideoID != "" {
		c.player.Stop()
	}
	c.observer.Notify(Notification{
		Level:   LevelInfo,
		Title:   "Removed",
		Message: fmt.Sprintf("%q was removed from the queue.", e.Title),
	})
	c.dropAtLocked(i, DropRemoved)
}

// PlayNow moves entry i to the front and starts it. It is a no-op returning
// ErrBusy while another video is loading.
func (c *Controller) PlayNow(i int) error {
	return c.apply(func() (*resolveJob, error) {
		if i < 0 || i >= len(c.entries) {
			return nil, ErrIndexOutOfRange
		}
		if c.entries[i].ID == c.currentID {
			return nil, nil
		}
		if c.busyLocked() {
			return nil, ErrBusy
		}

		e := c.entries[i]
		c.entries = slices.Delete(c.entries, i, i+1)
		c.entries = slices.Insert(c.entries, 0, e)

		if c.loadedVideoID != "" {
			c.player.Stop()
		}
		c.clearLoadedLocked()
		c.started = true
		return c.selectLocked(0), nil
	})
}

// MoveUp relocates entry i to index 1 so it plays right after the entry at
// the front. The selected entry keeps its identity.
func (c *Controller) MoveUp(i int) error {
	return c.apply(func() (*resolveJob, error) {
		if i < 0 || i >= len(c.entries) {
			return nil, ErrIndexOutOfRange
		}
		if i <= 1 {
			return nil, nil
		}
		e := c.entries[i]
		c.entries = slices.Delete(c.entries, i, i+1)
		c.entries = slices.Insert(c.entries, 1, e)
		return nil, nil
	})
}

// TogglePlayback pauses a playing video, resumes a loaded one, or starts the
// queue from the front when nothing is selected.
func (c *Controller) TogglePlayback() {
	_ = c.apply(func() (*resolveJob, error) {
		switch {
		case c.intent == IntentPlaying:
			c.player.Pause()
		case c.loadedVideoID != "":
			c.player.Play()
		case c.currentID == "" && len(c.entries) > 0:
			c.started = true
			return c.selectLocked(0), nil
		}
		return nil, nil
	})
}

// Sync replaces the queue with an authoritative list when its id sequence
// differs from the current one, by content or by order. Cached video ids
// survive for entries whose id is unchanged, and the selection follows its
// entry to its new index. It reports whether the queue was replaced.
func (c *Controller) Sync(list []Entry) bool {
	next := make([]Entry, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, e := range list {
		e = e.normalized()
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		next = append(next, e)
	}

	replaced := false
	_ = c.apply(func() (*resolveJob, error) {
		if sameIdentities(c.entries, next) {
			return nil, nil
		}
		replaced = true

		prior := make(map[string]Entry, len(c.entries))
		for _, e := range c.entries {
			prior[e.ID] = e
		}
		for i := range next {
			if p, ok := prior[next[i].ID]; ok {
				if p.ResolvedVideoID != "" {
					next[i].ResolvedVideoID = p.ResolvedVideoID
				}
				delete(prior, next[i].ID)
			}
		}

		curIdx := c.cursorLocked()
		old := c.entries
		c.entries = next

		for _, e := range old {
			if _, gone := prior[e.ID]; gone {
				c.observer.EntryDropped(e, DropSynced)
			}
		}

		if c.currentID != "" && indexOf(c.entries, c.currentID) < 0 {
			if c.loadedVideoID != "" {
				c.player.Stop()
			}
			c.currentID = ""
			c.clearLoadedLocked()
			c.reselectAt = curIdx
		}
		return nil, nil
	})
	return replaced
}

// Close discards the queue. Every later transition fails with ErrClosed and
// late resolver results are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.entries = nil
	c.currentID = ""
	c.clearLoadedLocked()
}

// apply runs op under the lock, re-derives the cursor and then dispatches
// any resolution the transition asked for.
func (c *Controller) apply(op func() (*resolveJob, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	job, err := op()
	if next := c.reconcileLocked(); next != nil {
		job = next
	}
	c.mu.Unlock()

	c.dispatch(job)
	return err
}

// reconcileLocked enforces the cursor invariants after a mutation: an empty
// queue has no selection, and a started queue without a selection picks the
// entry at the remembered index, or the front when that index is gone.
func (c *Controller) reconcileLocked() *resolveJob {
	reselect := c.reselectAt
	c.reselectAt = 0

	if len(c.entries) == 0 {
		c.currentID = ""
		c.clearLoadedLocked()
		return nil
	}
	if c.currentID != "" {
		if indexOf(c.entries, c.currentID) >= 0 {
			return nil
		}
		c.currentID = ""
		c.clearLoadedLocked()
	}
	if !c.started {
		return nil
	}
	if reselect < 0 || reselect >= len(c.entries) {
		reselect = 0
	}
	return c.selectLocked(reselect)
}

func (c *Controller) selectLocked(i int) *resolveJob {
	e := c.entries[i]
	c.currentID = e.ID
	c.generation++
	c.intent = IntentLoading
	c.loadedVideoID = ""

	if e.ResolvedVideoID != "" {
		c.resolvingID = ""
		c.cueLocked(e.ResolvedVideoID)
		return nil
	}

	c.resolvingID = e.ID
	return &resolveJob{
		entryID:    e.ID,
		title:      e.Title,
		artist:     e.Artist,
		generation: c.generation,
	}
}

func (c *Controller) cueLocked(videoID string) {
	c.loadedVideoID = videoID
	c.intent = IntentLoading
	c.player.LoadAndPlay(videoID)
}

// dropAtLocked removes entry i. When it was the selected entry the
// selection is cleared and the next reconcile picks whatever now sits at
// the same index.
func (c *Controller) dropAtLocked(i int, reason DropReason) {
	e := c.entries[i]
	c.entries = slices.Delete(c.entries, i, i+1)
	if e.ID == c.currentID {
		c.currentID = ""
		c.clearLoadedLocked()
		c.reselectAt = i
	}
	c.observer.EntryDropped(e, reason)
}

func (c *Controller) clearLoadedLocked() {
	c.loadedVideoID = ""
	c.resolvingID = ""
	c.intent = IntentIdle
	c.generation++
}

func (c *Controller) busyLocked() bool {
	return c.resolvingID != "" || c.intent == IntentLoading
}

func (c *Controller) cursorLocked() int {
	if c.currentID == "" {
		return NoCursor
	}
	return indexOf(c.entries, c.currentID)
}

func (c *Controller) dispatch(job *resolveJob) {
	if job == nil {
		return
	}
	c.run(func() { c.resolve(job) })
}

func (c *Controller) resolve(job *resolveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), c.resolveTimeout)
	defer cancel()

	videoID, err := c.resolver.ResolveKaraoke(ctx, job.title, job.artist)
	c.completeResolution(job, videoID, err)
}

// completeResolution applies a resolver result, unless the entry it was
// requested for is no longer selected.
func (c *Controller) completeResolution(job *resolveJob, videoID string, err error) {
	_ = c.apply(func() (*resolveJob, error) {
		if job.generation != c.generation || job.entryID != c.resolvingID || job.entryID != c.currentID {
			log.Printf("queue: discarding stale resolution for %s", job.entryID)
			return nil, nil
		}
		c.resolvingID = ""
		idx := c.cursorLocked()

		switch {
		case err != nil:
			log.Printf("queue: resolve %q failed: %v", job.title, err)
			c.observer.Notify(Notification{
				Level:   LevelError,
				Title:   "Search failed",
				Message: fmt.Sprintf("Could not look up %q. Skipping.", job.title),
			})
			c.dropAtLocked(idx, DropResolveFailed)
		case videoID == "":
			c.observer.Notify(Notification{
				Level:   LevelWarning,
				Title:   "Song not found",
				Message: fmt.Sprintf("No karaoke video found for %q. Skipping.", job.title),
			})
			c.dropAtLocked(idx, DropNotFound)
		default:
			c.entries[idx].ResolvedVideoID = videoID
			c.cueLocked(videoID)
		}
		return nil, nil
	})
}
