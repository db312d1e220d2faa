package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account from the hosted auth provider. StageID is set while
// the user participates in a stage.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	StageID   *string   `gorm:"type:varchar(36);index" json:"stage_id"`
	Stage     *Stage    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Session is a login session written by the auth provider.
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Token     string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
