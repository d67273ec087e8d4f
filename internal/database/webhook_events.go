package database

import (
	"context"
	"fmt"
	"time"

	"practice-journal-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventStore records processed payment processor event ids.
type WebhookEventStore struct {
	db *gorm.DB
}

func NewWebhookEventStore(db *gorm.DB) *WebhookEventStore {
	return &WebhookEventStore{db: db}
}

// Seen reports whether the event id was already processed.
func (s *WebhookEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("event_id = ?", eventID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up webhook event: %w", err)
	}
	return count > 0, nil
}

// MarkProcessed records the event. Recording the same id twice is a no-op.
func (s *WebhookEventStore) MarkProcessed(ctx context.Context, eventID, eventType string, created int64) error {
	evt := models.WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		Created:     created,
		ProcessedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&evt).Error
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}
