package models

import (
	"fmt"

	"gorm.io/datatypes"
)

const (
	GoalCategoryStreak       = "streak"
	GoalCategoryTimeSpent    = "time"
	GoalCategorySessionCount = "sessions"
)

// Goal is a target assigned to a student, either by a teacher or by
// the student themselves (AssignedByID nil).
type Goal struct {
	BaseModel

	Category    string         `json:"category" gorm:"size:20;not null;default:'streak'"`
	Title       string         `json:"title" gorm:"size:100;not null"`
	Description string         `json:"description" gorm:"size:300"`
	TargetCount uint           `json:"target_count" gorm:"not null"` // days, minutes or sessions
	StartDate   datatypes.Date `json:"start_date"`
	EndDate     datatypes.Date `json:"end_date" gorm:"not null"`

	AssignedToID uint  `json:"assigned_to" gorm:"not null;index"`
	AssignedByID *uint `json:"assigned_by" gorm:"index"`

	AssignedTo *User `json:"-" gorm:"foreignKey:AssignedToID"`
}

func (g *Goal) String() string {
	if g.AssignedTo == nil {
		return g.Title
	}
	return fmt.Sprintf("%s (%s)", g.Title, g.AssignedTo.Username)
}
