package database

import (
	"context"
	"errors"
	"fmt"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/models"

	"gorm.io/gorm"
)

// UserStore provides user persistence, including the subscription fields
// written by webhook reconciliation.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user after checking username and email are free.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	taken, err := s.UsernameExists(ctx, user.Username)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("username", "A user with this username already exists")
	}
	taken, err = s.EmailExists(ctx, user.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("email", "A user with this email already exists")
	}

	if user.Timezone == "" {
		user.Timezone = models.DefaultTimezone
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.first(ctx, "user", id, "id = ?", id)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.first(ctx, "user", username, "username = ?", username)
}

// GetByEmail matches the address case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "user", email, "LOWER(email) = LOWER(?)", email)
}

func (s *UserStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error) {
	return s.first(ctx, "subscription", subscriptionID, "subscription_id = ?", subscriptionID)
}

func (s *UserStore) first(ctx context.Context, resource string, key any, query string, args ...any) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(resource, key)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// EmailExists ignores the user with id exceptID (0 checks every user).
func (s *UserStore) EmailExists(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&count).Error
	return count > 0, err
}

// Save writes every profile column. Subscription columns are excluded so a
// profile update can never race webhook reconciliation.
func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).
		Omit("subscription_id", "subscription_status", "subscription_event_at").
		Save(user).Error
}

// LinkUpdate describes attaching a subscription to a user.
type LinkUpdate struct {
	UserID         uint
	SubscriptionID string
	Status         string
	EventAt        int64
	// Force skips the ordering guard
	Force bool
}

// LinkSubscription stores the processor subscription id and status on the
// user. A link for the subscription the user already holds is skipped when
// a newer event has been applied to it. It reports whether the row changed.
func (s *UserStore) LinkSubscription(ctx context.Context, upd LinkUpdate) (bool, error) {
	if err := s.checkSubscriptionFree(ctx, upd.UserID, upd.SubscriptionID); err != nil {
		return false, err
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", upd.UserID)
	if !upd.Force {
		q = q.Where("(subscription_id IS NULL OR subscription_id <> ? OR subscription_event_at <= ?)", upd.SubscriptionID, upd.EventAt)
	}

	// SET expressions read the pre-update subscription_id
	eventAt := gorm.Expr(
		"CASE WHEN subscription_id = ? AND subscription_event_at > ? THEN subscription_event_at ELSE ? END",
		upd.SubscriptionID, upd.EventAt, upd.EventAt,
	)
	result := q.Updates(map[string]interface{}{
		"subscription_id":       upd.SubscriptionID,
		"subscription_status":   upd.Status,
		"subscription_event_at": eventAt,
	})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, subscriptionTaken()
		}
		return false, fmt.Errorf("failed to link subscription: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetSubscriptionID records a subscription id without a status. When the id
// differs from the stored one, the stored status and event time are cleared
// so the new subscription does not inherit the old one's state.
func (s *UserStore) SetSubscriptionID(ctx context.Context, userID uint, subscriptionID string) error {
	if err := s.checkSubscriptionFree(ctx, userID, subscriptionID); err != nil {
		return err
	}

	// SET expressions read the pre-update subscription_id
	status := gorm.Expr("CASE WHEN subscription_id = ? THEN subscription_status ELSE NULL END", subscriptionID)
	eventAt := gorm.Expr("CASE WHEN subscription_id = ? THEN subscription_event_at ELSE 0 END", subscriptionID)
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_id":       subscriptionID,
			"subscription_status":   status,
			"subscription_event_at": eventAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return subscriptionTaken()
		}
		return fmt.Errorf("failed to set subscription id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

// checkSubscriptionFree fails with a conflict when another user holds the
// subscription id. The unique index still guards against races.
func (s *UserStore) checkSubscriptionFree(ctx context.Context, userID uint, subscriptionID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("subscription_id = ? AND id <> ?", subscriptionID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return subscriptionTaken()
	}
	return nil
}

func subscriptionTaken() error {
	return apperror.Conflict("subscription_id", "Subscription is linked to another account")
}

// StatusUpdate describes a conditional subscription status write.
type StatusUpdate struct {
	SubscriptionID string
	Status         string
	EventAt        int64
	// Force skips the ordering and terminal-state guards
	Force bool
}

// ApplySubscriptionStatus writes the status only if the event is not older
// than the last applied one and the subscription is not already canceled.
// The check and write happen in one UPDATE statement, so concurrent
// deliveries for the same subscription cannot interleave. It reports
// whether a row was changed.
func (s *UserStore) ApplySubscriptionStatus(ctx context.Context, upd StatusUpdate) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("subscription_id = ?", upd.SubscriptionID)
	if !upd.Force {
		q = q.Where("subscription_event_at <= ?", upd.EventAt).
			Where("(subscription_status IS NULL OR subscription_status <> ?)", models.SubscriptionStatusCanceled)
	}

	result := q.Updates(map[string]interface{}{
		"subscription_status":   upd.Status,
		"subscription_event_at": gorm.Expr("CASE WHEN subscription_event_at > ? THEN subscription_event_at ELSE ? END", upd.EventAt, upd.EventAt),
	})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update subscription status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the user and everything they own. Goals the user assigned
// to others are kept with assigned_by cleared.
func (s *UserStore) Delete(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []struct {
			model  interface{}
			column string
		}{
			{&models.PracticeItem{}, "student_id"},
			{&models.Goal{}, "assigned_to_id"},
			{&models.DiaryEntry{}, "author_id"},
			{&models.AudioRecording{}, "user_id"},
			{&models.EmailNotification{}, "sent_to_id"},
		}
		for _, o := range owned {
			if err := tx.Where(o.column+" = ?", userID).Delete(o.model).Error; err != nil {
				return fmt.Errorf("failed to delete %s rows: %w", o.column, err)
			}
		}

		if err := tx.Model(&models.Goal{}).Where("assigned_by_id = ?", userID).
			Update("assigned_by_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach assigned goals: %w", err)
		}

		result := tx.Delete(&models.User{}, userID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("user", userID)
		}
		return nil
	})
}
