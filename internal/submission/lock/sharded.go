// Package lock serializes submissions of the same response.
package lock

import (
	"context"
	"sync"

	dErrors "intake/pkg/domain-errors"
)

const numShards = 128

// ShardedLocker hashes keys onto a fixed set of one-slot semaphores so waits
// can honour context cancellation. Distinct keys may share a shard.
type ShardedLocker struct {
	shards [numShards]chan struct{}
}

func NewSharded() *ShardedLocker {
	l := &ShardedLocker{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Lock blocks until the key's shard is free or ctx is done.
func (l *ShardedLocker) Lock(ctx context.Context, key string) (func(), error) {
	shard := l.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-shard })
	}, nil
}

// hashKey uses FNV-1a for better distribution than simple multiply-add.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
