package repo

import (
	"context"
	"sync"
)

// keyLock serializes access per key without blocking unrelated keys. Each key
// owns a one-slot token channel acting as its mutex, so waiters can give up
// when their context is canceled. Entries are reference counted and removed
// once the last holder or waiter is gone.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	token chan struct{}
	refs  int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*lockEntry)}
}

// Acquire blocks until the key's lock is available or ctx is done. A caller
// that gives up observes no side effects.
func (kl *keyLock) Acquire(ctx context.Context, key string) error {
	kl.mu.Lock()
	e, ok := kl.locks[key]
	if !ok {
		e = &lockEntry{token: make(chan struct{}, 1)}
		kl.locks[key] = e
	}
	e.refs++
	kl.mu.Unlock()

	select {
	case e.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		kl.release(key, false)
		return ctx.Err()
	}
}

func (kl *keyLock) Release(key string) {
	kl.release(key, true)
}

func (kl *keyLock) release(key string, held bool) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e, ok := kl.locks[key]
	if !ok {
		return
	}
	if held {
		<-e.token
	}
	e.refs--
	if e.refs == 0 {
		delete(kl.locks, key)
	}
}
