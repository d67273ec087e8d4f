package database_test

import (
	"context"
	"testing"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/database"
	"practice-journal-api/internal/database/dbtest"
	"practice-journal-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUser(t *testing.T, store *database.UserStore, username, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, PasswordHash: "x"}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func link(t *testing.T, store *database.UserStore, userID uint, subID, status string, at int64) {
	t.Helper()
	linked, err := store.LinkSubscription(context.Background(), database.LinkUpdate{UserID: userID, SubscriptionID: subID, Status: status, EventAt: at})
	require.NoError(t, err)
	require.True(t, linked)
}

func TestUserStore_CreateRejectsDuplicates(t *testing.T) {
	store := database.NewUserStore(dbtest.New(t))
	ctx := context.Background()
	u := createUser(t, store, "alice", "alice@example.com")
	assert.Equal(t, models.DefaultTimezone, u.Timezone)

	err := store.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	err = store.Create(ctx, &models.User{Username: "bob", Email: "ALICE@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUserStore_GetByEmailIgnoresCase(t *testing.T) {
	store := database.NewUserStore(dbtest.New(t))
	u := createUser(t, store, "alice", "Alice@Example.com")

	got, err := store.GetByEmail(context.Background(), "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = store.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserStore_LinkSubscription(t *testing.T) {
	store := database.NewUserStore(dbtest.New(t))
	ctx := context.Background()
	u := createUser(t, store, "alice", "alice@example.com")

	linked, err := store.LinkSubscription(ctx, database.LinkUpdate{UserID: u.ID, SubscriptionID: "sub_1", Status: models.SubscriptionStatusActive, EventAt: 100})
	require.NoError(t, err)
	assert.True(t, linked)

	got, err := store.GetBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.SubscriptionStatus)
	assert.Equal(t, models.SubscriptionStatusActive, *got.SubscriptionStatus)
	assert.Equal(t, int64(100), got.SubscriptionEventAt)

	// an older link for the same subscription is stale
	linked, err = store.LinkSubscription(ctx, database.LinkUpdate{UserID: u.ID, SubscriptionID: "sub_1", Status: models.SubscriptionStatusActive, EventAt: 50})
	require.NoError(t, err)
	assert.False(t, linked)

	// a new subscription replaces the old one and resets the event clock
	linked, err = store.LinkSubscription(ctx, database.LinkUpdate{UserID: u.ID, SubscriptionID: "sub_2", Status: models.SubscriptionStatusActive, EventAt: 80})
	require.NoError(t, err)
	assert.True(t, linked)
	got, err = store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_2", *got.SubscriptionID)
	assert.Equal(t, int64(80), got.SubscriptionEventAt)

	linked, err = store.LinkSubscription(ctx, database.LinkUpdate{UserID: 999, SubscriptionID: "sub_3", Status: models.SubscriptionStatusActive, EventAt: 100})
	require.NoError(t, err)
	assert.False(t, linked)
}

func TestUserStore_ApplySubscriptionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("newer event applies", func(t *testing.T) {
		store := database.NewUserStore(dbtest.New(t))
		u := createUser(t, store, "alice", "alice@example.com")
		link(t, store, u.ID, "sub_1", "active", 100)

		applied, err := store.ApplySubscriptionStatus(ctx, database.StatusUpdate{SubscriptionID: "sub_1", Status: "past_due", EventAt: 200})
		require.NoError(t, err)
		assert.True(t, applied)

		got, _ := store.GetByID(ctx, u.ID)
		assert.Equal(t, "past_due", *got.SubscriptionStatus)
		assert.Equal(t, int64(200), got.SubscriptionEventAt)
	})

	t.Run("stale event is ignored", func(t *testing.T) {
		store := database.NewUserStore(dbtest.New(t))
		u := createUser(t, store, "alice", "alice@example.com")
		link(t, store, u.ID, "sub_1", "active", 300)

		applied, err := store.ApplySubscriptionStatus(ctx, database.StatusUpdate{SubscriptionID: "sub_1", Status: "past_due", EventAt: 200})
		require.NoError(t, err)
		assert.False(t, applied)

		got, _ := store.GetByID(ctx, u.ID)
		assert.Equal(t, "active", *got.SubscriptionStatus)
	})

	t.Run("canceled is terminal unless forced", func(t *testing.T) {
		store := database.NewUserStore(dbtest.New(t))
		u := createUser(t, store, "alice", "alice@example.com")
		link(t, store, u.ID, "sub_1", "canceled", 100)

		applied, err := store.ApplySubscriptionStatus(ctx, database.StatusUpdate{SubscriptionID: "sub_1", Status: "active", EventAt: 200})
		require.NoError(t, err)
		assert.False(t, applied)

		applied, err = store.ApplySubscriptionStatus(ctx, database.StatusUpdate{SubscriptionID: "sub_1", Status: "canceled", EventAt: 50, Force: true})
		require.NoError(t, err)
		assert.True(t, applied)

		got, _ := store.GetByID(ctx, u.ID)
		assert.Equal(t, "canceled", *got.SubscriptionStatus)
		assert.Equal(t, int64(100), got.SubscriptionEventAt, "forced write keeps the newest event time")
	})

	t.Run("unknown subscription", func(t *testing.T) {
		store := database.NewUserStore(dbtest.New(t))
		applied, err := store.ApplySubscriptionStatus(ctx, database.StatusUpdate{SubscriptionID: "sub_missing", Status: "active", EventAt: 1})
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestUserStore_SaveLeavesSubscriptionAlone(t *testing.T) {
	store := database.NewUserStore(dbtest.New(t))
	ctx := context.Background()
	u := createUser(t, store, "alice", "alice@example.com")
	link(t, store, u.ID, "sub_1", "active", 100)

	// u was loaded before the link, so its subscription fields are stale
	u.FirstName = "Alice"
	require.NoError(t, store.Save(ctx, u))

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	require.NotNil(t, got.SubscriptionID)
	assert.Equal(t, "sub_1", *got.SubscriptionID)
}

func TestUserStore_DeleteCascades(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := database.NewUserStore(db)
	teacher := createUser(t, users, "teacher", "teacher@example.com")
	student := createUser(t, users, "student", "student@example.com")

	goals := database.NewGoalStore(db)
	require.NoError(t, goals.Create(ctx, &models.Goal{Title: "Scales", TargetCount: 5, AssignedToID: student.ID, AssignedByID: &teacher.ID}))
	require.NoError(t, goals.Create(ctx, &models.Goal{Title: "Own", TargetCount: 1, AssignedToID: teacher.ID, AssignedByID: &teacher.ID}))
	require.NoError(t, database.NewDiaryStore(db).Create(ctx, &models.DiaryEntry{AuthorID: teacher.ID, Title: "t", Body: "b"}))

	require.NoError(t, users.Delete(ctx, teacher.ID))

	_, err := users.GetByID(ctx, teacher.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	studentGoals, err := goals.ListAssignedTo(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, studentGoals, 1)
	assert.Nil(t, studentGoals[0].AssignedByID)

	entries, err := database.NewDiaryStore(db).ListByAuthor(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, users.Delete(ctx, teacher.ID), apperror.ErrNotFound)
}

func TestUserStore_SetSubscriptionID(t *testing.T) {
	store := database.NewUserStore(dbtest.New(t))
	ctx := context.Background()
	alice := createUser(t, store, "alice", "alice@example.com")
	bob := createUser(t, store, "bob", "bob@example.com")
	link(t, store, alice.ID, "sub_A", models.SubscriptionStatusCanceled, 200)

	t.Run("same id keeps state", func(t *testing.T) {
		require.NoError(t, store.SetSubscriptionID(ctx, alice.ID, "sub_A"))
		got, err := store.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got.SubscriptionStatus)
		assert.Equal(t, models.SubscriptionStatusCanceled, *got.SubscriptionStatus)
		assert.Equal(t, int64(200), got.SubscriptionEventAt)
	})

	t.Run("new id clears state", func(t *testing.T) {
		require.NoError(t, store.SetSubscriptionID(ctx, alice.ID, "sub_B"))
		got, err := store.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got.SubscriptionID)
		assert.Equal(t, "sub_B", *got.SubscriptionID)
		assert.Nil(t, got.SubscriptionStatus)
		assert.Zero(t, got.SubscriptionEventAt)
	})

	t.Run("id held by another user", func(t *testing.T) {
		err := store.SetSubscriptionID(ctx, bob.ID, "sub_B")
		assert.ErrorIs(t, err, apperror.ErrConflict)

		_, err = store.LinkSubscription(ctx, database.LinkUpdate{UserID: bob.ID, SubscriptionID: "sub_B", Status: "active", EventAt: 500})
		assert.ErrorIs(t, err, apperror.ErrConflict)

		got, err := store.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Nil(t, got.SubscriptionID)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, store.SetSubscriptionID(ctx, 9999, "sub_C"), apperror.ErrNotFound)
	})
}
