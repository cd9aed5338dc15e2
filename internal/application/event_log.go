package application

import (
	"sync"
	"time"

	"github.com/example/room-reservation/internal/notification"
)

// eventLog keeps a bounded, TTL-limited record of recently emitted booking
// events so operators can inspect what the service published without
// consuming the queue. It never influences conflict decisions; reservation
// state is always re-read from the store.
type eventLog struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    []eventLogEntry
}

type eventLogEntry struct {
	event     notification.Event
	expiresAt time.Time
}

func newEventLog(ttl time.Duration, maxEntries int, now func() time.Time) *eventLog {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &eventLog{now: now, ttl: ttl, maxEntries: maxEntries}
}

// Record appends an event, evicting expired and overflow entries.
func (l *eventLog) Record(event notification.Event) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanupLocked()
	if len(l.entries) >= l.maxEntries {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, eventLogEntry{event: event, expiresAt: l.now().Add(l.ttl)})
}

// Recent returns the live entries, oldest first.
func (l *eventLog) Recent() []notification.Event {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := l.now()
	events := make([]notification.Event, 0, len(l.entries))
	for _, entry := range l.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		events = append(events, entry.event)
	}
	if len(events) == 0 {
		return nil
	}
	return events
}

func (l *eventLog) cleanupLocked() {
	now := l.now()
	live := l.entries[:0]
	for _, entry := range l.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		live = append(live, entry)
	}
	l.entries = live
}
