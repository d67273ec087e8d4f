package models

type Achievement struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Value       int    `json:"value"`
}

const AchievementTypeStreak = "streak"

// Achievements is the fixed catalogue users can earn.
var Achievements = []Achievement{
	{ID: 1, Name: "First Practice", Description: "Complete your first practice session", Type: AchievementTypeStreak, Value: 1},
	{ID: 2, Name: "2-Day Streak", Description: "Practice 2 days in a row", Type: AchievementTypeStreak, Value: 2},
	{ID: 3, Name: "7-Day Streak", Description: "Practice 7 days in a row", Type: AchievementTypeStreak, Value: 7},
	{ID: 4, Name: "30-Day Streak", Description: "Practice 30 days in a row", Type: AchievementTypeStreak, Value: 30},
}

// AchievementsByID returns the catalogue entries for ids, skipping unknown ones.
func AchievementsByID(ids []int) []Achievement {
	held := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		held[id] = struct{}{}
	}
	out := make([]Achievement, 0, len(ids))
	for _, a := range Achievements {
		if _, ok := held[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}
