package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"

	"stagepass/models"
	"stagepass/utils"

	"gorm.io/gorm"
)

var (
	ErrStageNotFound   = errors.New("stage not found")
	ErrStageTerminated = errors.New("stage has been terminated")
	ErrStageFull       = errors.New("stage is full")
	ErrInvalidJoinCode = errors.New("join code must be exactly 6 digits")
)

const joinCodeAttempts = 10

type CreateStageInput struct {
	Name string
	// MaxCapacity of zero selects the service default.
	MaxCapacity int
	IsPrivate   bool
}

// StageService manages the stage lifecycle.
type StageService struct {
	db              *gorm.DB
	defaultCapacity int

	hooksMu     sync.RWMutex
	onTerminate []func(stageID string)
}

func NewStageService(db *gorm.DB, defaultCapacity int) *StageService {
	if defaultCapacity <= 0 {
		defaultCapacity = 10
	}
	return &StageService{db: db, defaultCapacity: defaultCapacity}
}

// OnTerminate registers fn to run after a stage has been terminated.
func (s *StageService) OnTerminate(fn func(stageID string)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onTerminate = append(s.onTerminate, fn)
}

// GenerateJoinCode returns six random decimal digits.
func GenerateJoinCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CreateStage stores a new stage with a unique join code.
func (s *StageService) CreateStage(ctx context.Context, in CreateStageInput) (*models.Stage, error) {
	capacity := in.MaxCapacity
	if capacity <= 0 {
		capacity = s.defaultCapacity
	}

	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := GenerateJoinCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}

		stage := &models.Stage{
			Name:        strings.TrimSpace(in.Name),
			JoinCode:    code,
			MaxCapacity: capacity,
			IsPrivate:   in.IsPrivate,
		}
		err = s.db.WithContext(ctx).Create(stage).Error
		if err == nil {
			return stage, nil
		}
		if !utils.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create stage: %w", err)
		}
		log.Printf("Join code collision on attempt %d, retrying", attempt+1)
	}
	return nil, fmt.Errorf("failed to create stage: no free join code after %d attempts", joinCodeAttempts)
}

func (s *StageService) GetStage(ctx context.Context, stageID string) (*models.Stage, error) {
	var stage models.Stage
	err := s.db.WithContext(ctx).Where("id = ?", stageID).First(&stage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stage: %w", err)
	}
	return &stage, nil
}

// GetActiveStage is GetStage that also rejects terminated stages.
func (s *StageService) GetActiveStage(ctx context.Context, stageID string) (*models.Stage, error) {
	stage, err := s.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.IsTerminated {
		return nil, ErrStageTerminated
	}
	return stage, nil
}

// LookupByJoinCode resolves a join code to an active stage.
func (s *StageService) LookupByJoinCode(ctx context.Context, code string) (*models.Stage, error) {
	if utils.ValidateJoinCode(code).HasErrors() {
		return nil, ErrInvalidJoinCode
	}

	var stage models.Stage
	err := s.db.WithContext(ctx).Where("join_code = ?", code).First(&stage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up stage: %w", err)
	}
	if stage.IsTerminated {
		return nil, ErrStageTerminated
	}
	return &stage, nil
}

// TerminateStage marks the stage terminated, deletes its songs and detaches
// its participants. Terminating twice is not an error.
func (s *StageService) TerminateStage(ctx context.Context, stageID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := tx.Where("id = ?", stageID).First(&stage).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStageNotFound
			}
			return err
		}

		if err := tx.Model(&stage).Update("is_terminated", true).Error; err != nil {
			return err
		}
		if err := tx.Where("stage_id = ?", stageID).Delete(&models.Song{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("stage_id = ?", stageID).Update("stage_id", nil).Error
	})
	if err != nil {
		if errors.Is(err, ErrStageNotFound) {
			return err
		}
		return fmt.Errorf("failed to terminate stage: %w", err)
	}

	s.hooksMu.RLock()
	hooks := append([]func(string){}, s.onTerminate...)
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(stageID)
	}
	return nil
}
