package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"stagepass/config"
	"stagepass/models"
	"stagepass/queue"
)

// StageLookup is the subset of StageService the room manager needs.
type StageLookup interface {
	GetActiveStage(ctx context.Context, stageID string) (*models.Stage, error)
}

// LiveRoomManager owns one LiveRoom per active stage.
type LiveRoomManager struct {
	ctx          context.Context
	stages       StageLookup
	songs        SongGateway
	participants ParticipantLister
	resolver     queue.Resolver
	cfg          config.StageConfig
	runner       queue.Runner

	mu    sync.Mutex
	rooms map[string]*LiveRoom

	deletes sync.WaitGroup
}

// NewLiveRoomManager creates a manager whose rooms live until ctx is done
// or they are closed.
func NewLiveRoomManager(ctx context.Context, stages StageLookup, songs SongGateway, participants ParticipantLister, resolver queue.Resolver, cfg config.StageConfig) *LiveRoomManager {
	return &LiveRoomManager{
		ctx:          ctx,
		stages:       stages,
		songs:        songs,
		participants: participants,
		resolver:     resolver,
		cfg:          cfg,
		rooms:        make(map[string]*LiveRoom),
	}
}

// Room returns the live room of a stage, opening it on first use. The
// stage must exist and not be terminated.
func (m *LiveRoomManager) Room(ctx context.Context, stageID string) (*LiveRoom, error) {
	if room := m.Active(stageID); room != nil {
		room.touch()
		return room, nil
	}

	if _, err := m.stages.GetActiveStage(ctx, stageID); err != nil {
		return nil, err
	}

	room := newLiveRoom(stageID, m.songs, m.participants, m.resolver, RoomOptions{
		ResolveTimeout:   m.cfg.ResolveTimeout,
		ManualStart:      !m.cfg.AutoStart,
		MaxNotifications: m.cfg.MaxNotifications,
		Runner:           m.runner,
	}, &m.deletes)
	if err := room.Refresh(ctx); err != nil {
		room.Close()
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.rooms[stageID]; ok {
		m.mu.Unlock()
		room.Close()
		return existing, nil
	}
	m.rooms[stageID] = room
	m.mu.Unlock()

	room.start(m.ctx, m.cfg.PollInterval, m.cfg.ParticipantPollInterval)
	log.Printf("Live room opened for stage %s", stageID)
	return room, nil
}

// Active returns the open room of a stage, or nil.
func (m *LiveRoomManager) Active(stageID string) *LiveRoom {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[stageID]
}

// AddSong stores a song and, when the stage's room is open, queues it.
func (m *LiveRoomManager) AddSong(ctx context.Context, stageID string, in SongInput) (*models.Song, error) {
	if room := m.Active(stageID); room != nil {
		entry, err := room.AddSong(ctx, in)
		if err != nil {
			return nil, err
		}
		return &models.Song{
			ID:          entry.ID,
			StageID:     stageID,
			Title:       entry.Title,
			Artist:      entry.Artist,
			VideoID:     entry.ResolvedVideoID,
			RequestedBy: entry.RequestedBy,
		}, nil
	}
	return m.songs.AddSong(ctx, stageID, in)
}

// RemoveSong deletes a song and, when the stage's room is open, unqueues it.
func (m *LiveRoomManager) RemoveSong(ctx context.Context, stageID, songID string) error {
	if room := m.Active(stageID); room != nil {
		return room.RemoveSong(ctx, songID)
	}
	return m.songs.RemoveSong(ctx, stageID, songID)
}

// Close tears down the room of a stage if it is open.
func (m *LiveRoomManager) Close(stageID string) {
	m.mu.Lock()
	room, ok := m.rooms[stageID]
	delete(m.rooms, stageID)
	m.mu.Unlock()

	if ok {
		room.Close()
		log.Printf("Live room closed for stage %s", stageID)
	}
}

// CloseAll tears down every room and waits for pending song deletions.
func (m *LiveRoomManager) CloseAll() {
	m.mu.Lock()
	rooms := make([]*LiveRoom, 0, len(m.rooms))
	for id, room := range m.rooms {
		rooms = append(rooms, room)
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	for _, room := range rooms {
		room.Close()
	}
	m.deletes.Wait()
}

// RunJanitor closes rooms nobody has touched for the configured idle
// timeout. It blocks until ctx is done.
func (m *LiveRoomManager) RunJanitor(ctx context.Context) {
	interval := m.cfg.IdleTimeout / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.closeIdle(time.Now())
		}
	}
}

func (m *LiveRoomManager) closeIdle(now time.Time) int {
	m.mu.Lock()
	var idle []string
	for id, room := range m.rooms {
		if now.Sub(room.idleSince()) > m.cfg.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		m.Close(id)
	}
	return len(idle)
}

// IsRoomGone reports whether err means the stage can no longer host a room.
func IsRoomGone(err error) bool {
	return errors.Is(err, ErrStageNotFound) || errors.Is(err, ErrStageTerminated)
}
