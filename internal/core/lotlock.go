package core

import (
	"sync"

	"culturecore/pkg/domain"
)

// lotLocks serializes lifecycle transitions per lot. Acquisition never
// blocks: a held lease surfaces a ConflictError so the caller can retry after
// re-resolving state instead of queueing behind an unknown-length commit.
type lotLocks struct {
	mu     sync.Mutex
	leased map[string]struct{}
}

func newLotLocks() *lotLocks {
	return &lotLocks{leased: make(map[string]struct{})}
}

// Acquire takes the lease for lotID or fails with a ConflictError when it is
// already held. The returned release function is idempotent and must be
// called on commit or abort.
func (l *lotLocks) Acquire(lotID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.leased[lotID]; held {
		return nil, domain.ConflictError{Entity: domain.EntityLot, ID: lotID, Reason: "concurrent operation in flight"}
	}
	l.leased[lotID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.leased, lotID)
			l.mu.Unlock()
		})
	}, nil
}
