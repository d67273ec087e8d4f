package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventLog(t *testing.T) {
	l := NewMemoryEventLog(time.Hour, nil)
	defer l.Stop()
	ctx := context.Background()

	seen, err := l.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, l.MarkProcessed(ctx, "evt_1", EventSubscriptionUpdated, 100))
	seen, _ = l.Seen(ctx, "evt_1")
	assert.True(t, seen)

	assert.Equal(t, 0, l.cleanup(time.Now()))
	assert.Equal(t, 1, l.cleanup(time.Now().Add(2*time.Hour)))
	assert.Zero(t, l.Len())

	l.Stop()
	l.Stop()
}

type countingLog struct {
	ids     map[string]bool
	seens   int
	markErr error
}

func (c *countingLog) Seen(_ context.Context, id string) (bool, error) {
	c.seens++
	return c.ids[id], nil
}

func (c *countingLog) MarkProcessed(_ context.Context, id, _ string, _ int64) error {
	if c.markErr != nil {
		return c.markErr
	}
	c.ids[id] = true
	return nil
}

func TestMemoryEventLog_ReadThrough(t *testing.T) {
	backing := &countingLog{ids: map[string]bool{"evt_old": true}}
	l := NewMemoryEventLog(time.Hour, backing)
	defer l.Stop()
	ctx := context.Background()

	// a miss consults the durable log and caches a hit
	seen, err := l.Seen(ctx, "evt_old")
	require.NoError(t, err)
	assert.True(t, seen)
	seen, _ = l.Seen(ctx, "evt_old")
	assert.True(t, seen)
	assert.Equal(t, 1, backing.seens)

	seen, _ = l.Seen(ctx, "evt_new")
	assert.False(t, seen)
	require.NoError(t, l.MarkProcessed(ctx, "evt_new", EventSubscriptionUpdated, 100))
	assert.True(t, backing.ids["evt_new"])

	// expired local entries are answered by the durable log again
	l.cleanup(time.Now().Add(2 * time.Hour))
	seen, _ = l.Seen(ctx, "evt_new")
	assert.True(t, seen)
}

func TestMemoryEventLog_BackingFailureNotCached(t *testing.T) {
	backing := &countingLog{ids: map[string]bool{}, markErr: errors.New("db down")}
	l := NewMemoryEventLog(time.Hour, backing)
	defer l.Stop()
	ctx := context.Background()

	require.Error(t, l.MarkProcessed(ctx, "evt_1", EventSubscriptionUpdated, 100))
	seen, err := l.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}
