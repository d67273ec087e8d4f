package services

import (
	"context"
	"time"
	_ "time/tzdata"

	"practice-journal-api/internal/models"
)

// PracticeDayLister returns the distinct practice dates of a student on or
// after since, newest first.
type PracticeDayLister interface {
	PracticeDays(ctx context.Context, studentID uint, since time.Time) ([]time.Time, error)
}

// AchievementService awards streak achievements after practice is logged.
type AchievementService struct {
	practice PracticeDayLister
	now      func() time.Time
}

func NewAchievementService(practice PracticeDayLister) *AchievementService {
	return &AchievementService{practice: practice, now: time.Now}
}

// CurrentStreak counts consecutive practice days ending today or yesterday
// in the user's timezone.
func (s *AchievementService) CurrentStreak(ctx context.Context, user *models.User) (int, error) {
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// the longest streak anyone can be awarded for, plus slack for yesterday
	horizon := maxAchievementValue() + 1
	days, err := s.practice.PracticeDays(ctx, user.ID, today.AddDate(0, 0, -horizon))
	if err != nil {
		return 0, err
	}
	return streakFrom(today, days), nil
}

// Award adds every streak achievement the user has earned but does not yet
// hold, and returns the new ones. The caller persists the user.
func (s *AchievementService) Award(ctx context.Context, user *models.User) ([]models.Achievement, error) {
	streak, err := s.CurrentStreak(ctx, user)
	if err != nil {
		return nil, err
	}

	var earned []models.Achievement
	for _, a := range models.Achievements {
		if a.Type != models.AchievementTypeStreak || a.Value > streak || user.HasAchievement(a.ID) {
			continue
		}
		user.Achievements = append(user.Achievements, a.ID)
		earned = append(earned, a)
	}
	return earned, nil
}

// streakFrom expects days as UTC midnights, newest first and distinct.
func streakFrom(today time.Time, days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	yesterday := today.AddDate(0, 0, -1)

	expected := today
	if dateOf(days[0]).Before(today) {
		expected = yesterday
	}

	streak := 0
	for _, d := range days {
		day := dateOf(d)
		if day.After(expected) {
			continue
		}
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func maxAchievementValue() int {
	longest := 0
	for _, a := range models.Achievements {
		if a.Value > longest {
			longest = a.Value
		}
	}
	return longest
}
