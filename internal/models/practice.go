package models

import (
	"gorm.io/datatypes"
)

// PracticeItem is a single logged practice session.
type PracticeItem struct {
	BaseModel

	StudentID uint `json:"-" gorm:"not null;index"`

	Date            datatypes.Date              `json:"date" gorm:"index"`
	Activity        string                      `json:"activity" gorm:"type:text"`
	Notes           string                      `json:"notes" gorm:"type:text"`
	Rating          int                         `json:"rating" gorm:"default:0"`
	Duration        int                         `json:"duration" gorm:"default:0"` // minutes
	TeacherFeedback string                      `json:"teacher_feedback" gorm:"type:text"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	PointsAwarded   int                         `json:"points_awarded" gorm:"default:0"`
}
