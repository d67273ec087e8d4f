package models

import "time"

// WebhookEvent marks a payment processor event id as processed so that
// redeliveries are acknowledged without being applied twice.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128;not null"`
	EventType   string    `gorm:"size:64;index"`
	Created     int64     // processor timestamp, unix seconds
	ProcessedAt time.Time
	CreatedAt   time.Time
}
