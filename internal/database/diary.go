package database

import (
	"context"
	"errors"
	"fmt"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/models"

	"gorm.io/gorm"
)

type DiaryStore struct {
	db *gorm.DB
}

func NewDiaryStore(db *gorm.DB) *DiaryStore {
	return &DiaryStore{db: db}
}

func (s *DiaryStore) Create(ctx context.Context, entry *models.DiaryEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *DiaryStore) ListByAuthor(ctx context.Context, authorID uint) ([]models.DiaryEntry, error) {
	var entries []models.DiaryEntry
	err := s.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (s *DiaryStore) Get(ctx context.Context, authorID, id uint) (*models.DiaryEntry, error) {
	var entry models.DiaryEntry
	err := s.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("diary entry", id)
		}
		return nil, err
	}
	return &entry, nil
}

func (s *DiaryStore) Save(ctx context.Context, entry *models.DiaryEntry) error {
	return s.db.WithContext(ctx).Save(entry).Error
}

func (s *DiaryStore) Delete(ctx context.Context, authorID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).Delete(&models.DiaryEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete diary entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("diary entry", id)
	}
	return nil
}
