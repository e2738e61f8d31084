package core

import (
	"context"
	"sync"
)

// KeyedMutex hands out one lock per key; callers on different keys never wait on each other.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases the key.
func (km *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	km.mu.Lock()
	kl, ok := km.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		km.locks[key] = kl
	}
	kl.refs++
	km.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return func() {
			<-kl.ch
			km.release(key, kl)
		}, nil
	case <-ctx.Done():
		km.release(key, kl)
		return nil, ctx.Err()
	}
}

func (km *KeyedMutex) release(key string, kl *keyLock) {
	km.mu.Lock()
	defer km.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(km.locks, key)
	}
}
