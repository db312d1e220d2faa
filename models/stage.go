package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stage is a karaoke room that participants join with a six digit code.
type Stage struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	JoinCode     string    `gorm:"size:6;not null;uniqueIndex" json:"join_code"`
	MaxCapacity  int       `gorm:"not null;default:10" json:"max_capacity"`
	IsPrivate    bool      `gorm:"not null;default:false" json:"is_private"`
	IsTerminated bool      `gorm:"not null;default:false;index" json:"is_terminated"`
	Songs        []Song    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *Stage) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Song is a persisted song request. Queue order is creation order.
type Song struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StageID     string    `gorm:"type:varchar(36);not null;index:idx_songs_stage_created,priority:1" json:"stage_id"`
	Title       string    `gorm:"size:300;not null" json:"title"`
	Artist      string    `gorm:"size:200" json:"artist"`
	VideoID     string    `gorm:"size:20" json:"video_id"`
	RequestedBy string    `gorm:"size:100" json:"requested_by"`
	CreatedAt   time.Time `gorm:"index:idx_songs_stage_created,priority:2" json:"created_at"`
}

func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
