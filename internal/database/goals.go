package database

import (
	"context"
	"errors"
	"fmt"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/models"

	"gorm.io/gorm"
)

type GoalStore struct {
	db *gorm.DB
}

func NewGoalStore(db *gorm.DB) *GoalStore {
	return &GoalStore{db: db}
}

func (s *GoalStore) Create(ctx context.Context, goal *models.Goal) error {
	return s.db.WithContext(ctx).Create(goal).Error
}

// ListAssignedTo returns goals the user has to work on.
func (s *GoalStore) ListAssignedTo(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.WithContext(ctx).Where("assigned_to_id = ?", userID).Order("end_date ASC, id ASC").Find(&goals).Error
	return goals, err
}

// ListAssignedBy returns goals the user set for anyone, themselves included.
func (s *GoalStore) ListAssignedBy(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.WithContext(ctx).Where("assigned_by_id = ?", userID).Order("end_date ASC, id ASC").Find(&goals).Error
	return goals, err
}

// Get returns a goal assigned to userID.
func (s *GoalStore) Get(ctx context.Context, userID, id uint) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.WithContext(ctx).Where("id = ? AND assigned_to_id = ?", id, userID).First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("goal", id)
		}
		return nil, err
	}
	return &goal, nil
}

func (s *GoalStore) Save(ctx context.Context, goal *models.Goal) error {
	return s.db.WithContext(ctx).Omit("AssignedTo").Save(goal).Error
}

func (s *GoalStore) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND assigned_to_id = ?", id, userID).Delete(&models.Goal{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("goal", id)
	}
	return nil
}
