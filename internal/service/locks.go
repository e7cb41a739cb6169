package service

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// CategoryLocks serialises writes per category. Every write path that loads a category,
// changes it and stores it back must hold the category's lock for the whole cycle.
type CategoryLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewCategoryLocks() *CategoryLocks {
	return &CategoryLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *CategoryLocks) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock blocks until the category is free and returns the unlock function.
func (l *CategoryLocks) Lock(id uuid.UUID) func() {
	m := l.get(id)
	m.Lock()
	return m.Unlock
}

// LockAll takes several category locks at once. Locks are always taken in id order so two
// callers with overlapping sets cannot deadlock.
func (l *CategoryLocks) LockAll(ids []uuid.UUID) func() {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	var held []*sync.Mutex
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
