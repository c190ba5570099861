package application

import "sync"

// UserLatch serializes mutations for a single user so the award, level
// recompute and badge evaluation steps are never observably reordered,
// while distinct users stay fully parallel.
type UserLatch struct {
	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func NewUserLatch() *UserLatch {
	return &UserLatch{users: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user latch and returns its release func.
func (l *UserLatch) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.users[userID]
	if !ok {
		m = &sync.Mutex{}
		l.users[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
