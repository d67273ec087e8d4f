package services

import (
	"context"
	"testing"
	"time"

	"practice-journal-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePracticeDays []time.Time

func (f fakePracticeDays) PracticeDays(_ context.Context, _ uint, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range f {
		if !d.Before(since) {
			out = append(out, d)
		}
	}
	return out, nil
}

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestStreakFrom(t *testing.T) {
	today := d("2024-03-10")
	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no practice", nil, 0},
		{"today only", []time.Time{d("2024-03-10")}, 1},
		{"yesterday only", []time.Time{d("2024-03-09")}, 1},
		{"two days ago breaks", []time.Time{d("2024-03-08")}, 0},
		{"run ending today", []time.Time{d("2024-03-10"), d("2024-03-09"), d("2024-03-08")}, 3},
		{"run ending yesterday", []time.Time{d("2024-03-09"), d("2024-03-08"), d("2024-03-06")}, 2},
		{"future entries ignored", []time.Time{d("2024-03-12"), d("2024-03-10"), d("2024-03-09")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streakFrom(today, tt.days))
		})
	}
}

func TestAchievementService_Award(t *testing.T) {
	var days fakePracticeDays
	for i := 0; i < 7; i++ {
		days = append(days, d("2024-03-10").AddDate(0, 0, -i))
	}
	svc := NewAchievementService(days)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	user := &models.User{Timezone: "UTC"}
	user.Achievements = append(user.Achievements, 1)

	earned, err := svc.Award(context.Background(), user)
	require.NoError(t, err)

	var ids []int
	for _, a := range earned {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{2, 3}, ids)
	assert.Equal(t, []int{1, 2, 3}, []int(user.Achievements))

	earned, err = svc.Award(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestAchievementService_UsesUserTimezone(t *testing.T) {
	svc := NewAchievementService(fakePracticeDays{d("2024-03-11")})
	// 23:30 UTC on the 10th is already the 11th in Auckland
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC) }

	streak, err := svc.CurrentStreak(context.Background(), &models.User{Timezone: "Pacific/Auckland"})
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	streak, err = svc.CurrentStreak(context.Background(), &models.User{Timezone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, 0, streak, "the 11th is in the future in UTC")
}

func TestRecordingKey(t *testing.T) {
	key, err := RecordingKey(5, "take1.webm")
	require.NoError(t, err)
	assert.Equal(t, "recordings/5/take1.webm", key)

	key, err = RecordingKey(5, "../../other/take1.webm")
	require.NoError(t, err)
	assert.Equal(t, "recordings/5/take1.webm", key)

	_, err = RecordingKey(5, "  ")
	assert.Error(t, err)
}
