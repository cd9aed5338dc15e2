package application

import (
	"sort"
	"sync"

	"github.com/example/room-reservation/internal/timeslot"
)

// slotLocks serializes schedule calls that touch the same room on the same
// date. Each (room, date) pair owns an advisory lock; a batch acquires the
// locks for every date it spans in ascending order, so two batches can never
// acquire overlapping key sets in opposite orders. Calls on disjoint rooms or
// disjoint dates share no keys and run fully in parallel.
type slotLocks struct {
	mu      sync.Mutex
	entries map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{entries: make(map[string]*slotLock)}
}

func slotLockKey(roomID string, date timeslot.Date) string {
	return roomID + "|" + date.String()
}

// acquire blocks until every key is held. Keys are deduplicated and sorted
// before locking.
func (l *slotLocks) acquire(keys []string) []string {
	ordered := dedupeSorted(keys)
	for _, key := range ordered {
		l.mu.Lock()
		entry, ok := l.entries[key]
		if !ok {
			entry = &slotLock{}
			l.entries[key] = entry
		}
		entry.refs++
		l.mu.Unlock()

		entry.mu.Lock()
	}
	return ordered
}

// release unlocks the keys returned by acquire, in reverse order, and drops
// entries nobody waits on.
func (l *slotLocks) release(ordered []string) {
	for i := len(ordered) - 1; i >= 0; i-- {
		key := ordered[i]

		l.mu.Lock()
		entry, ok := l.entries[key]
		if !ok {
			l.mu.Unlock()
			continue
		}
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()

		entry.mu.Unlock()
	}
}

func dedupeSorted(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)

	deduped := out[:0]
	for i, key := range out {
		if i > 0 && out[i-1] == key {
			continue
		}
		deduped = append(deduped, key)
	}
	return deduped
}
