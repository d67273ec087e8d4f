package models

import (
	"time"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// All returns every model managed by migrations, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&PracticeItem{},
		&Goal{},
		&DiaryEntry{},
		&AudioRecording{},
		&EmailNotification{},
		&WebhookEvent{},
	}
}
