// Package store provides Port implementations for tests and development.
package store

import (
	"context"
	"sync"

	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// MEMORY STORE - In-memory persistence port (for testing/dev)
// =============================================================================

// Memory keeps the last saved snapshot in memory. FailNext lets tests
// inject a persistence failure for exactly the next save.
type Memory struct {
	mu       sync.Mutex
	last     leave.Snapshot
	saves    int
	failNext error
}

func NewMemory() *Memory {
	return &Memory{}
}

// SaveSnapshot stores the snapshot, or returns the injected failure.
func (m *Memory) SaveSnapshot(_ context.Context, snap leave.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.last = snap
	m.saves++
	return nil
}

// FailNext makes the next SaveSnapshot return err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Last returns the most recently saved snapshot.
func (m *Memory) Last() leave.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Saves returns how many snapshots were saved successfully.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
