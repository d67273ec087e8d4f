package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/models"

	"gorm.io/gorm"
)

type PracticeStore struct {
	db *gorm.DB
}

func NewPracticeStore(db *gorm.DB) *PracticeStore {
	return &PracticeStore{db: db}
}

func (s *PracticeStore) Create(ctx context.Context, item *models.PracticeItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// ListByStudent returns the student's items, newest first.
func (s *PracticeStore) ListByStudent(ctx context.Context, studentID uint) ([]models.PracticeItem, error) {
	var items []models.PracticeItem
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date DESC, id DESC").
		Find(&items).Error
	return items, err
}

// Get returns the item only if it belongs to studentID.
func (s *PracticeStore) Get(ctx context.Context, studentID, id uint) (*models.PracticeItem, error) {
	var item models.PracticeItem
	err := s.db.WithContext(ctx).Where("id = ? AND student_id = ?", id, studentID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("practice item", id)
		}
		return nil, err
	}
	return &item, nil
}

func (s *PracticeStore) Save(ctx context.Context, item *models.PracticeItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *PracticeStore) Delete(ctx context.Context, studentID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND student_id = ?", id, studentID).Delete(&models.PracticeItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete practice item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("practice item", id)
	}
	return nil
}

// PracticeDays returns the distinct dates the student practised on or after
// since, newest first.
func (s *PracticeStore) PracticeDays(ctx context.Context, studentID uint, since time.Time) ([]time.Time, error) {
	var items []models.PracticeItem
	err := s.db.WithContext(ctx).
		Select("date").
		Where("student_id = ? AND date >= ?", studentID, since.Format("2006-01-02")).
		Order("date DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		day := time.Time(item.Date)
		key := day.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}
	return days, nil
}
