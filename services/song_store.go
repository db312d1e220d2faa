package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stagepass/models"
	"stagepass/queue"

	"gorm.io/gorm"
)

var ErrSongNotFound = errors.New("song not found")

// SongInput is a new song request.
type SongInput struct {
	Title       string
	Artist      string
	VideoID     string
	RequestedBy string
}

// SongStore is the persistence gateway for a stage's song requests.
type SongStore struct {
	db *gorm.DB
}

func NewSongStore(db *gorm.DB) *SongStore {
	return &SongStore{db: db}
}

// ListSongs returns a stage's songs in request order.
func (s *SongStore) ListSongs(ctx context.Context, stageID string) ([]models.Song, error) {
	var songs []models.Song
	err := s.db.WithContext(ctx).
		Where("stage_id = ?", stageID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

func (s *SongStore) AddSong(ctx context.Context, stageID string, in SongInput) (*models.Song, error) {
	song := &models.Song{
		StageID:     stageID,
		Title:       strings.TrimSpace(in.Title),
		Artist:      strings.TrimSpace(in.Artist),
		VideoID:     strings.TrimSpace(in.VideoID),
		RequestedBy: strings.TrimSpace(in.RequestedBy),
	}
	if song.Title == "" {
		return nil, queue.ErrEmptyTitle
	}
	if err := s.db.WithContext(ctx).Create(song).Error; err != nil {
		return nil, fmt.Errorf("failed to add song: %w", err)
	}
	return song, nil
}

// RemoveSong deletes a song. It returns ErrSongNotFound when the song does
// not belong to the stage.
func (s *SongStore) RemoveSong(ctx context.Context, stageID, songID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND stage_id = ?", songID, stageID).
		Delete(&models.Song{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove song: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSongNotFound
	}
	return nil
}

// SongToEntry converts a stored song into a queue entry.
func SongToEntry(song models.Song) queue.Entry {
	return queue.Entry{
		ID:              song.ID,
		Title:           song.Title,
		Artist:          song.Artist,
		RequestedBy:     song.RequestedBy,
		ResolvedVideoID: song.VideoID,
	}
}
