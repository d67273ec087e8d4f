package models

import (
	"gorm.io/datatypes"
)

const (
	DefaultTimezone = "Europe/London"

	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

var subscriptionStatuses = map[string]struct{}{
	"incomplete":               {},
	"incomplete_expired":       {},
	"trialing":                 {},
	SubscriptionStatusActive:   {},
	SubscriptionStatusPastDue:  {},
	SubscriptionStatusCanceled: {},
	"unpaid":                   {},
	"paused":                   {},
}

// IsSubscriptionStatus reports whether s is a status the processor can send.
func IsSubscriptionStatus(s string) bool {
	_, ok := subscriptionStatuses[s]
	return ok
}

// User is an account; teachers and students share the same table.
// Subscription fields mirror the payment processor and are only written by
// webhook reconciliation and checkout confirmation.
type User struct {
	BaseModel

	Username     string `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email        string `json:"email" gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	FirstName    string `json:"first_name" gorm:"size:150"`
	LastName     string `json:"last_name" gorm:"size:150"`

	IsTeacher      bool   `json:"is_teacher" gorm:"default:false"`
	EmailConfirmed bool   `json:"email_confirmed" gorm:"default:false"`
	Points         int    `json:"points" gorm:"default:0"`
	Timezone       string `json:"timezone" gorm:"size:100;default:'Europe/London'"`
	DailyTarget    int    `json:"daily_target" gorm:"default:0"`

	// Achievement ids from the catalogue, in the order they were earned
	Achievements datatypes.JSONSlice[int] `json:"achievements"`

	SubscriptionID     *string `json:"subscription_id" gorm:"size:100;uniqueIndex"`
	SubscriptionStatus *string `json:"subscription_status" gorm:"size:32"`
	// Unix seconds of the newest processor event applied to the fields above
	SubscriptionEventAt int64 `json:"-" gorm:"not null;default:0"`
}

// HasAchievement reports whether the achievement id was already awarded.
func (u *User) HasAchievement(id int) bool {
	for _, a := range u.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

func (u *User) String() string {
	return u.Username
}
