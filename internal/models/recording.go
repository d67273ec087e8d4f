package models

import (
	"fmt"

	"gorm.io/datatypes"
)

// AudioRecording is metadata for an object uploaded to storage under S3Key.
type AudioRecording struct {
	BaseModel

	UserID   uint                        `json:"user" gorm:"not null;index"`
	S3Key    string                      `json:"s3_key" gorm:"size:1024;not null"`
	Title    string                      `json:"title" gorm:"size:255;not null"`
	Notes    string                      `json:"notes" gorm:"type:text"`
	Tags     datatypes.JSONSlice[string] `json:"tags"`
	Date     datatypes.Date              `json:"date"`
	Location string                      `json:"location" gorm:"size:255"`
}

func (r *AudioRecording) String() string {
	return fmt.Sprintf("%s - %s", r.Title, r.CreatedAt.Format("2006-01-02"))
}
