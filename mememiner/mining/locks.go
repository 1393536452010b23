package mining

import (
	"sync"
)

// LockManager serializes session operations per wallet inside this process.
// The database conditional updates are the real race guard; this keeps a
// burst of requests for one wallet from hammering them.
type LockManager struct {
	locks sync.Map
}

func NewLockManager() *LockManager {
	return &LockManager{}
}

// Acquire blocks until the wallet's lock is held and returns the release
// func.
func (m *LockManager) Acquire(wallet string) func() {
	v, _ := m.locks.LoadOrStore(wallet, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
