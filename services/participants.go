package services

import (
	"context"
	"errors"
	"fmt"

	"stagepass/models"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// ParticipantService assigns users to stages.
type ParticipantService struct {
	db *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{db: db}
}

// AssignUserToStage joins a user to a stage, enforcing the stage capacity.
// Joining the stage the user is already in is a no-op.
func (p *ParticipantService) AssignUserToStage(ctx context.Context, userID, stageID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := tx.Where("id = ?", stageID).First(&stage).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStageNotFound
			}
			return fmt.Errorf("failed to load stage: %w", err)
		}
		if stage.IsTerminated {
			return ErrStageTerminated
		}

		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}
		if user.StageID != nil && *user.StageID == stageID {
			return nil
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("stage_id = ?", stageID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		if int(count) >= stage.MaxCapacity {
			return ErrStageFull
		}

		if err := tx.Model(&user).Update("stage_id", stageID).Error; err != nil {
			return fmt.Errorf("failed to join stage: %w", err)
		}
		return nil
	})
}

// LeaveStage detaches a user from whatever stage they are in.
func (p *ParticipantService) LeaveStage(ctx context.Context, userID string) error {
	result := p.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("stage_id", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to leave stage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListParticipants returns the users in a stage ordered by name.
func (p *ParticipantService) ListParticipants(ctx context.Context, stageID string) ([]models.User, error) {
	var users []models.User
	err := p.db.WithContext(ctx).Where("stage_id = ?", stageID).Order("name ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return users, nil
}
