package application

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/notification"
)

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestEventLog_ExpiresEntriesAfterTTL(t *testing.T) {
	t.Parallel()

	clock := &movableClock{now: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	log := newEventLog(10*time.Minute, 0, clock.Now)

	log.Record(notification.Event{Kind: notification.EventBatchCreated, RoomID: "room-a"})

	clock.Advance(5 * time.Minute)
	if got := log.Recent(); len(got) != 1 {
		t.Fatalf("entry expired early: %v", got)
	}

	clock.Advance(6 * time.Minute)
	if got := log.Recent(); got != nil {
		t.Fatalf("expired entry still visible: %v", got)
	}
}

func TestEventLog_EvictsOldestOnOverflow(t *testing.T) {
	t.Parallel()

	clock := &movableClock{now: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	log := newEventLog(time.Hour, 3, clock.Now)

	for i := 0; i < 5; i++ {
		log.Record(notification.Event{Kind: notification.EventBatchCreated, RoomID: fmt.Sprintf("room-%d", i)})
	}

	got := log.Recent()
	if len(got) != 3 {
		t.Fatalf("kept %d entries, want 3", len(got))
	}
	if got[0].RoomID != "room-2" || got[2].RoomID != "room-4" {
		t.Fatalf("wrong retained window: %v", got)
	}
}

func TestEventLog_RecentReturnsOldestFirst(t *testing.T) {
	t.Parallel()

	clock := &movableClock{now: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	log := newEventLog(time.Hour, 0, clock.Now)

	log.Record(notification.Event{Kind: notification.EventBatchCreated, RoomID: "first"})
	log.Record(notification.Event{Kind: notification.EventReservationApproved, RoomID: "second"})

	got := log.Recent()
	if len(got) != 2 || got[0].RoomID != "first" || got[1].RoomID != "second" {
		t.Fatalf("unexpected order: %v", got)
	}
}
