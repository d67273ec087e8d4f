package billing

import (
	"context"
	"sync"
	"time"

	"practice-journal-api/pkg/logging"
)

// EventLog remembers which processor event ids were already applied.
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, created int64) error
}

// MemoryEventLog keeps recently processed event ids in process memory in
// front of an optional durable EventLog. Local entries expire after ttl;
// the backing log stays authoritative.
type MemoryEventLog struct {
	backing         EventLog
	processed       map[string]time.Time
	mutex           sync.RWMutex
	cleanupInterval time.Duration
	ttl             time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewMemoryEventLog starts the cleanup goroutine. backing may be nil.
func NewMemoryEventLog(ttl time.Duration, backing EventLog) *MemoryEventLog {
	l := &MemoryEventLog{
		backing:         backing,
		processed:       make(map[string]time.Time),
		cleanupInterval: time.Hour,
		ttl:             ttl,
		stopCleanup:     make(chan struct{}),
	}
	go l.startCleanupRoutine()
	return l
}

// Seen answers from memory and falls back to the backing log on a miss.
func (l *MemoryEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	if l.seenLocally(eventID) {
		return true, nil
	}
	if l.backing == nil {
		return false, nil
	}

	seen, err := l.backing.Seen(ctx, eventID)
	if err != nil {
		return false, err
	}
	if seen {
		l.remember(eventID)
	}
	return seen, nil
}

// MarkProcessed writes through to the backing log first.
func (l *MemoryEventLog) MarkProcessed(ctx context.Context, eventID, eventType string, created int64) error {
	if l.backing != nil {
		if err := l.backing.MarkProcessed(ctx, eventID, eventType, created); err != nil {
			return err
		}
	}
	l.remember(eventID)
	return nil
}

func (l *MemoryEventLog) seenLocally(eventID string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	_, ok := l.processed[eventID]
	return ok
}

func (l *MemoryEventLog) remember(eventID string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if _, ok := l.processed[eventID]; !ok {
		l.processed[eventID] = time.Now()
	}
}

func (l *MemoryEventLog) startCleanupRoutine() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *MemoryEventLog) cleanup(now time.Time) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	before := len(l.processed)
	for id, at := range l.processed {
		if now.Sub(at) > l.ttl {
			delete(l.processed, id)
		}
	}

	removed := before - len(l.processed)
	if removed > 0 {
		logging.Debugf("Webhook event log cleanup: removed %d expired events, remaining: %d", removed, len(l.processed))
	}
	return removed
}

// Len returns the number of remembered events.
func (l *MemoryEventLog) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.processed)
}

// Stop ends the cleanup goroutine.
func (l *MemoryEventLog) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}
