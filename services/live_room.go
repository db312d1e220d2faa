package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"stagepass/models"
	"stagepass/queue"
)

const (
	tombstoneTTL        = time.Minute
	storeDeleteTimeout  = 10 * time.Second
	defaultNotification = 50
)

// SongGateway is the subset of SongStore a live room needs.
type SongGateway interface {
	ListSongs(ctx context.Context, stageID string) ([]models.Song, error)
	AddSong(ctx context.Context, stageID string, in SongInput) (*models.Song, error)
	RemoveSong(ctx context.Context, stageID, songID string) error
}

type ParticipantLister interface {
	ListParticipants(ctx context.Context, stageID string) ([]models.User, error)
}

// NotificationEvent is a buffered user-facing notification.
type NotificationEvent struct {
	Seq     uint64      `json:"seq"`
	Level   queue.Level `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerEvent is a lifecycle report from the browser-side player.
type PlayerEvent struct {
	Type  string `json:"type" binding:"required"`
	State string `json:"state"`
	Code  int    `json:"code"`
}

var ErrUnknownPlayerEvent = errors.New("unknown player event")

// RoomState is everything a client needs to render the live room and drive
// its player. Commands and Notifications hold events newer than the
// requested sequence number; Seq is the newest sequence number handed out.
type RoomState struct {
	StageID       string              `json:"stage_id"`
	Queue         queue.State         `json:"queue"`
	Commands      []PlayerCommand     `json:"commands"`
	Notifications []NotificationEvent `json:"notifications"`
	Participants  []Participant       `json:"participants"`
	Seq           uint64              `json:"seq"`
}

type RoomOptions struct {
	ResolveTimeout   time.Duration
	ManualStart      bool
	MaxNotifications int
	Runner           queue.Runner
}

// LiveRoom is the in-memory session of one stage: its queue controller,
// the remote player and the background loops keeping both in sync with
// storage.
type LiveRoom struct {
	StageID string

	controller   *queue.Controller
	player       *RemotePlayer
	songs        SongGateway
	participants ParticipantLister
	seq          sequence

	mu               sync.Mutex
	notifications    []NotificationEvent
	maxNotifications int
	tombstones       map[string]time.Time
	roster           []Participant
	lastActive       time.Time

	cancel  context.CancelFunc
	loops   sync.WaitGroup
	deletes *sync.WaitGroup
}

func newLiveRoom(stageID string, songs SongGateway, participants ParticipantLister, resolver queue.Resolver, opts RoomOptions, deletes *sync.WaitGroup) *LiveRoom {
	if opts.MaxNotifications <= 0 {
		opts.MaxNotifications = defaultNotification
	}
	if deletes == nil {
		deletes = &sync.WaitGroup{}
	}

	r := &LiveRoom{
		StageID:          stageID,
		songs:            songs,
		participants:     participants,
		maxNotifications: opts.MaxNotifications,
		tombstones:       make(map[string]time.Time),
		roster:           []Participant{},
		lastActive:       time.Now(),
		deletes:          deletes,
	}
	r.player = newRemotePlayer(&r.seq)
	r.controller = queue.New(queue.Options{
		Player:         r.player,
		Resolver:       resolver,
		Observer:       roomObserver{r},
		Runner:         opts.Runner,
		ResolveTimeout: opts.ResolveTimeout,
		ManualStart:    opts.ManualStart,
	})
	return r
}

// start runs the song reconciler and the participant poll until Close.
func (r *LiveRoom) start(parent context.Context, songInterval, participantInterval time.Duration) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel

	reconciler := NewPoller("reconciler "+r.StageID, songInterval, r.fetchSongs, r.applySongs)
	roster := NewPoller("participants "+r.StageID, participantInterval, r.fetchParticipants, r.applyParticipants)

	r.loops.Add(2)
	go func() {
		defer r.loops.Done()
		reconciler.Run(ctx)
	}()
	go func() {
		defer r.loops.Done()
		roster.Run(ctx)
	}()
}

// Refresh polls storage once, synchronously.
func (r *LiveRoom) Refresh(ctx context.Context) error {
	songs, err := r.fetchSongs(ctx)
	if err != nil {
		return err
	}
	r.applySongs(songs)

	if users, err := r.fetchParticipants(ctx); err == nil {
		r.applyParticipants(users)
	}
	return nil
}

// Close stops the background loops and discards the queue.
func (r *LiveRoom) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	r.loops.Wait()
	r.controller.Close()
}

func (r *LiveRoom) fetchSongs(ctx context.Context) ([]models.Song, error) {
	return r.songs.ListSongs(ctx, r.StageID)
}

// applySongs feeds a polled song list into the controller, which adopts it
// whenever its ids or their order differ. Songs dropped locally but not yet
// deleted from storage are filtered out.
func (r *LiveRoom) applySongs(songs []models.Song) {
	r.mu.Lock()
	present := make(map[string]struct{}, len(songs))
	for _, s := range songs {
		present[s.ID] = struct{}{}
	}
	now := time.Now()
	for id, at := range r.tombstones {
		if _, ok := present[id]; !ok || now.Sub(at) > tombstoneTTL {
			delete(r.tombstones, id)
		}
	}

	fetched := make([]queue.Entry, 0, len(songs))
	for _, s := range songs {
		if _, dead := r.tombstones[s.ID]; dead {
			continue
		}
		fetched = append(fetched, SongToEntry(s))
	}
	r.mu.Unlock()

	if r.controller.Sync(fetched) {
		log.Printf("reconciler: stage %s queue replaced (%d entries)", r.StageID, len(fetched))
	}
}

func (r *LiveRoom) fetchParticipants(ctx context.Context) ([]models.User, error) {
	if r.participants == nil {
		return nil, nil
	}
	return r.participants.ListParticipants(ctx, r.StageID)
}

func (r *LiveRoom) applyParticipants(users []models.User) {
	roster := make([]Participant, 0, len(users))
	for _, u := range users {
		roster = append(roster, Participant{ID: u.ID, Name: u.Name})
	}

	r.mu.Lock()
	r.roster = roster
	r.mu.Unlock()
}

func (r *LiveRoom) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *LiveRoom) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

func (r *LiveRoom) tombstone(id string) {
	r.mu.Lock()
	r.tombstones[id] = time.Now()
	r.mu.Unlock()
}

// State returns the queue snapshot plus every event newer than since.
func (r *LiveRoom) State(since uint64) RoomState {
	state := RoomState{
		StageID:       r.StageID,
		Queue:         r.controller.Snapshot(),
		Notifications: []NotificationEvent{},
	}

	// Both event buffers are read under their locks at once so that Seq
	// is an exact high-water mark.
	r.mu.Lock()
	r.player.mu.Lock()
	state.Seq = r.seq.current()
	state.Commands = r.player.sinceLocked(since)
	r.player.mu.Unlock()

	for _, n := range r.notifications {
		if n.Seq > since {
			state.Notifications = append(state.Notifications, n)
		}
	}
	state.Participants = append([]Participant{}, r.roster...)
	r.lastActive = time.Now()
	r.mu.Unlock()

	return state
}

// AddSong stores a song and then queues it.
func (r *LiveRoom) AddSong(ctx context.Context, in SongInput) (queue.Entry, error) {
	r.touch()

	song, err := r.songs.AddSong(ctx, r.StageID, in)
	if err != nil {
		return queue.Entry{}, err
	}
	entry, err := r.controller.Add(SongToEntry(*song))
	switch {
	case errors.Is(err, queue.ErrDuplicateID):
		// A poll picked the song up first.
		return SongToEntry(*song), nil
	case errors.Is(err, queue.ErrClosed):
		// Stored but not queued; the next room for the stage loads it.
		log.Printf("live room %s: closed before song %s was queued", r.StageID, song.ID)
		return SongToEntry(*song), nil
	}
	return entry, err
}

// RemoveSong deletes a song from storage and then from the queue.
func (r *LiveRoom) RemoveSong(ctx context.Context, songID string) error {
	r.touch()

	storeErr := r.songs.RemoveSong(ctx, r.StageID, songID)
	if storeErr != nil && !errors.Is(storeErr, ErrSongNotFound) {
		return storeErr
	}
	r.tombstone(songID)

	err := r.controller.RemoveByID(songID)
	if errors.Is(err, queue.ErrUnknownEntry) || errors.Is(err, queue.ErrClosed) {
		return storeErr
	}
	return err
}

// RemoveAt removes the queue entry at index.
func (r *LiveRoom) RemoveAt(ctx context.Context, index int) error {
	entries := r.controller.Snapshot().Entries
	if index < 0 || index >= len(entries) {
		return queue.ErrIndexOutOfRange
	}
	return r.RemoveSong(ctx, entries[index].ID)
}

func (r *LiveRoom) Skip() error {
	r.touch()
	return r.controller.Skip()
}

func (r *LiveRoom) TogglePlayback() {
	r.touch()
	r.controller.TogglePlayback()
}

func (r *LiveRoom) PlayNow(index int) error {
	r.touch()
	return r.controller.PlayNow(index)
}

func (r *LiveRoom) MoveUp(index int) error {
	r.touch()
	return r.controller.MoveUp(index)
}

// HandlePlayerEvent routes a client player report to the controller.
func (r *LiveRoom) HandlePlayerEvent(ev PlayerEvent) error {
	r.touch()

	switch ev.Type {
	case "ready":
		r.controller.HandlePlayerReady()
	case "stateChanged", "state":
		s, ok := queue.ParsePlayerState(ev.State)
		if !ok {
			return ErrUnknownPlayerEvent
		}
		r.controller.HandlePlayerState(s)
	case "error":
		r.controller.HandlePlayerError(ev.Code)
	default:
		return ErrUnknownPlayerEvent
	}
	return nil
}

// roomObserver runs under the controller lock and must not call back into it.
type roomObserver struct {
	r *LiveRoom
}

func (o roomObserver) Notify(n queue.Notification) {
	r := o.r
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, NotificationEvent{
		Seq:     r.seq.next(),
		Level:   n.Level,
		Title:   n.Title,
		Message: n.Message,
		At:      time.Now(),
	})
	if over := len(r.notifications) - r.maxNotifications; over > 0 {
		r.notifications = append(r.notifications[:0:0], r.notifications[over:]...)
	}
}

func (o roomObserver) EntryDropped(e queue.Entry, reason queue.DropReason) {
	r := o.r
	switch reason {
	case queue.DropSynced:
		return
	case queue.DropRemoved:
		r.tombstone(e.ID)
		return
	}

	r.tombstone(e.ID)
	r.deletes.Add(1)
	go func() {
		defer r.deletes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), storeDeleteTimeout)
		defer cancel()

		err := r.songs.RemoveSong(ctx, r.StageID, e.ID)
		if err != nil && !errors.Is(err, ErrSongNotFound) {
			log.Printf("live room %s: failed to delete %s song %s: %v", r.StageID, reason, e.ID, err)
		}
	}()
}
