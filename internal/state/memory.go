package state

import (
	"math/rand/v2"
	"sync"

	"github.com/alschell/wealthhorizonai/internal/estimators"
)

// TrainingBatchSize is the number of transitions per policy update.
const TrainingBatchSize = 64

// MinMemoryCapacity is the smallest buffer that can ever exceed one batch.
const MinMemoryCapacity = TrainingBatchSize + 1

// Memory is a bounded ring buffer of policy transitions. Once full, each
// append overwrites the oldest entry.
type Memory struct {
	mu       sync.Mutex
	buf      []estimators.Transition
	next     int
	capacity int
}

// NewMemory creates a buffer holding at most capacity transitions. Smaller
// capacities are raised to MinMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity < MinMemoryCapacity {
		capacity = MinMemoryCapacity
	}
	return &Memory{
		buf:      make([]estimators.Transition, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a transition and returns the new length.
func (m *Memory) Append(t estimators.Transition) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.buf) < m.capacity {
		m.buf = append(m.buf, t)
	} else {
		m.buf[m.next] = t
	}
	m.next = (m.next + 1) % m.capacity
	return len(m.buf)
}

// Len returns the number of stored transitions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buf)
}

// Capacity returns the maximum number of stored transitions.
func (m *Memory) Capacity() int {
	return m.capacity
}

// Sample draws n distinct transitions uniformly. It returns nil when fewer
// than n are stored.
func (m *Memory) Sample(n int, src rand.Source) []estimators.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || len(m.buf) < n {
		return nil
	}

	// Partial Fisher-Yates over the indices.
	r := rand.New(src)
	idx := make([]int, len(m.buf))
	for i := range idx {
		idx[i] = i
	}
	out := make([]estimators.Transition, n)
	for i := 0; i < n; i++ {
		j := i + r.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = m.buf[idx[i]]
	}
	return out
}
