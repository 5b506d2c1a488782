// Package sync holds locking helpers the standard library lacks.
package sync

import (
	"hash/maphash"
	"sync"
)

const defaultShards = 32

// ShardedMutex serializes work per key without keeping a lock per key.
// Keys hash onto a fixed set of mutexes, so unrelated keys may share one.
type ShardedMutex[K comparable] struct {
	seed   maphash.Seed
	shards []sync.Mutex
}

// NewShardedMutex creates a mutex set with n shards. n <= 0 uses 32.
func NewShardedMutex[K comparable](n int) *ShardedMutex[K] {
	if n <= 0 {
		n = defaultShards
	}
	return &ShardedMutex[K]{
		seed:   maphash.MakeSeed(),
		shards: make([]sync.Mutex, n),
	}
}

// Lock acquires the shard for key and returns its release function.
func (m *ShardedMutex[K]) Lock(key K) (unlock func()) {
	mu := &m.shards[m.shardFor(key)]
	mu.Lock()
	return mu.Unlock
}

func (m *ShardedMutex[K]) shardFor(key K) int {
	return int(maphash.Comparable(m.seed, key) % uint64(len(m.shards)))
}
