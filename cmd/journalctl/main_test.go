package main

import (
	"bytes"
	"context"
	"testing"

	"practice-journal-api/internal/database"
	"practice-journal-api/internal/database/dbtest"
	"practice-journal-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func runCLI(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func() (*gorm.DB, error) { return db, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	db := dbtest.New(t)
	out, err := runCLI(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration complete")
}

func TestSubscriptionSetAndShow(t *testing.T) {
	db := dbtest.New(t)
	users := database.NewUserStore(db)
	alice := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), alice))

	out, err := runCLI(t, db, "subscription", "show", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Subscription ID:  -")

	_, err = runCLI(t, db, "subscription", "set", "alice@example.com", "sub_1", "bogus")
	assert.ErrorContains(t, err, "unknown subscription status")

	out, err = runCLI(t, db, "subscription", "set", "alice@example.com", "sub_1", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "Set alice@example.com to sub_1 (active)")

	got, err := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SubscriptionStatus)
	assert.Equal(t, "active", *got.SubscriptionStatus)
	assert.Positive(t, got.SubscriptionEventAt)

	out, err = runCLI(t, db, "subscription", "show", "ALICE@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Subscription ID:  sub_1")
	assert.Contains(t, out, "Last event:")

	_, err = runCLI(t, db, "subscription", "show", "nobody@example.com")
	assert.Error(t, err)
}
