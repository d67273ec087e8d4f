package database

import (
	"context"
	"errors"
	"fmt"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/models"

	"gorm.io/gorm"
)

type RecordingStore struct {
	db *gorm.DB
}

func NewRecordingStore(db *gorm.DB) *RecordingStore {
	return &RecordingStore{db: db}
}

func (s *RecordingStore) Create(ctx context.Context, rec *models.AudioRecording) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *RecordingStore) ListByUser(ctx context.Context, userID uint) ([]models.AudioRecording, error) {
	var recs []models.AudioRecording
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&recs).Error
	return recs, err
}

func (s *RecordingStore) Get(ctx context.Context, userID, id uint) (*models.AudioRecording, error) {
	var rec models.AudioRecording
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recording", id)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *RecordingStore) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.AudioRecording{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete recording: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("recording", id)
	}
	return nil
}
