package models

import (
	"fmt"
	"time"
)

const (
	NotificationReminder      = "reminder"
	NotificationGoalUpdate    = "goal_update"
	NotificationSummary       = "summary"
	NotificationCustom        = "custom"
	NotificationConfirmation  = "confirmation"
	NotificationPasswordReset = "password_reset"
)

// EmailNotification records every transactional email attempt.
type EmailNotification struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	NotificationType string    `json:"notification_type" gorm:"size:20;not null;default:'reminder';index"`
	SentToID         uint      `json:"sent_to" gorm:"not null;index"`
	SentToEmail      string    `json:"-" gorm:"size:254"`
	Subject          string    `json:"subject" gorm:"size:200;not null"`
	Body             string    `json:"body" gorm:"type:text"`
	SentAt           time.Time `json:"sent_at" gorm:"autoCreateTime"`
	Success          bool      `json:"success"`
	ErrorMessage     *string   `json:"error_message" gorm:"type:text"`
}

func (n *EmailNotification) String() string {
	return fmt.Sprintf("%s to %s on %s", n.NotificationType, n.SentToEmail, n.SentAt.Format("2006-01-02"))
}
