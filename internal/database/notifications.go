package database

import (
	"context"

	"practice-journal-api/internal/models"

	"gorm.io/gorm"
)

// NotificationStore is the append-only log of sent emails.
type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Record(ctx context.Context, n *models.EmailNotification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *NotificationStore) ListForUser(ctx context.Context, userID uint) ([]models.EmailNotification, error) {
	var out []models.EmailNotification
	err := s.db.WithContext(ctx).Where("sent_to_id = ?", userID).Order("sent_at DESC, id DESC").Find(&out).Error
	return out, err
}
