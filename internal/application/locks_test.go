package application

import (
	"sync"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/timeslot"
)

func TestSlotLocks_SameKeySerializes(t *testing.T) {
	t.Parallel()

	locks := newSlotLocks()
	key := slotLockKey("room-a", timeslot.NewDate(2024, time.January, 1))

	held := locks.acquire([]string{key})

	acquired := make(chan struct{})
	go func() {
		second := locks.acquire([]string{key})
		close(acquired)
		locks.release(second)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the key was held")
	case <-time.After(50 * time.Millisecond):
	}

	locks.release(held)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestSlotLocks_DisjointKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	locks := newSlotLocks()
	monday := timeslot.NewDate(2024, time.January, 1)

	held := locks.acquire([]string{slotLockKey("room-a", monday)})
	defer locks.release(held)

	done := make(chan struct{})
	go func() {
		other := locks.acquire([]string{
			slotLockKey("room-b", monday),
			slotLockKey("room-a", monday.AddDays(1)),
		})
		locks.release(other)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disjoint keys blocked behind an unrelated lock")
	}
}

func TestSlotLocks_OverlappingBatchesDoNotDeadlock(t *testing.T) {
	t.Parallel()

	locks := newSlotLocks()
	monday := timeslot.NewDate(2024, time.January, 1)

	// Two batches requesting the same keys in opposite order must both
	// complete; acquire sorts internally so no cycle can form.
	keysA := []string{
		slotLockKey("room-a", monday),
		slotLockKey("room-a", monday.AddDays(1)),
	}
	keysB := []string{
		slotLockKey("room-a", monday.AddDays(1)),
		slotLockKey("room-a", monday),
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, keys := range [][]string{keysA, keysB} {
			wg.Add(1)
			go func(keys []string) {
				defer wg.Done()
				held := locks.acquire(keys)
				locks.release(held)
			}(keys)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock batches deadlocked")
	}
}

func TestSlotLocks_DuplicateKeysAcquireOnce(t *testing.T) {
	t.Parallel()

	locks := newSlotLocks()
	key := slotLockKey("room-a", timeslot.NewDate(2024, time.January, 1))

	held := locks.acquire([]string{key, key, key})
	if len(held) != 1 {
		t.Fatalf("held %d keys, want 1", len(held))
	}
	locks.release(held)

	// A fresh acquire must succeed immediately after release.
	again := locks.acquire([]string{key})
	locks.release(again)
}

func TestSlotLocks_DropsIdleEntries(t *testing.T) {
	t.Parallel()

	locks := newSlotLocks()
	key := slotLockKey("room-a", timeslot.NewDate(2024, time.January, 1))

	held := locks.acquire([]string{key})
	locks.release(held)

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.entries) != 0 {
		t.Fatalf("registry holds %d idle entries, want 0", len(locks.entries))
	}
}
