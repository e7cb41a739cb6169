package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCategoryLocksSerialiseOneCategory(t *testing.T) {
	locks := NewCategoryLocks()
	id := uuid.New()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(id)
			defer unlock()

			mu.Lock()
			inside++
			maxInside = max(maxInside, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
}

func TestCategoryLocksIndependentCategories(t *testing.T) {
	locks := NewCategoryLocks()
	unlock := locks.Lock(uuid.New())
	defer unlock()

	done := make(chan struct{})
	go func() {
		locks.Lock(uuid.New())()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a different category must not wait")
	}
}

func TestCategoryLocksLockAll(t *testing.T) {
	locks := NewCategoryLocks()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	// Overlapping sets taken in opposite orders must not deadlock
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := []uuid.UUID{a, b, c}
			if i%2 == 0 {
				ids = []uuid.UUID{c, b, a, a}
			}
			locks.LockAll(ids)()
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("LockAll deadlocked")
	}

	unlock := locks.LockAll([]uuid.UUID{a, b})
	acquired := make(chan struct{})
	go func() {
		locks.Lock(b)()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Lock got a category held by LockAll")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired
}
