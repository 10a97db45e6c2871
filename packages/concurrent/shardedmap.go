// Package concurrent provides the sharded concurrent map used across the
// tangle store, the request queues' "requested" maps and the tips set.
//
// spec.md §9 asks for "a sharded concurrent map (many stripes, hash-sharded)"
// rather than a single global lock; no library in the example pack supplies
// a plain in-memory sharded map (hive.go/objectstorage is a disk-backed
// cache with a different contract), so this is a from-scratch implementation
// built on hive.go/syncutils, the corpus's own lock primitive.
package concurrent

import (
	"hash/fnv"

	"github.com/iotaledger/hive.go/syncutils"
)

// ShardCount is the number of stripes a ShardedMap is split into.
const ShardCount = 32

// ShardedMap is a hash-sharded concurrent map of string keys to arbitrary
// values. Each shard carries its own RWMutex so that writers to unrelated
// keys never contend.
type ShardedMap struct {
	shards [ShardCount]*mapShard
}

type mapShard struct {
	mu   syncutils.RWMutex
	data map[string]interface{}
}

// NewShardedMap creates an empty ShardedMap.
func NewShardedMap() *ShardedMap {
	sm := &ShardedMap{}
	for i := range sm.shards {
		sm.shards[i] = &mapShard{data: make(map[string]interface{})}
	}
	return sm
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % ShardCount
}

func (sm *ShardedMap) shardFor(key string) *mapShard {
	return sm.shards[shardIndex(key)]
}

// Load returns the value stored for key, if any.
func (sm *ShardedMap) Load(key string) (interface{}, bool) {
	shard := sm.shardFor(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	v, ok := shard.data[key]
	return v, ok
}

// LoadOrStore returns the existing value for key if present, otherwise it
// stores and returns value. The second return reports whether the value was
// loaded (true) rather than stored (false).
func (sm *ShardedMap) LoadOrStore(key string, value interface{}) (interface{}, bool) {
	shard := sm.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if v, ok := shard.data[key]; ok {
		return v, true
	}
	shard.data[key] = value
	return value, false
}

// Store unconditionally sets key to value.
func (sm *ShardedMap) Store(key string, value interface{}) {
	shard := sm.shardFor(key)
	shard.mu.Lock()
	shard.data[key] = value
	shard.mu.Unlock()
}

// Delete removes key, if present.
func (sm *ShardedMap) Delete(key string) {
	shard := sm.shardFor(key)
	shard.mu.Lock()
	delete(shard.data, key)
	shard.mu.Unlock()
}

// WithLock runs f while holding the shard's exclusive lock, giving callers
// an atomic read-modify-write on a single entry without exposing the mutex.
func (sm *ShardedMap) WithLock(key string, f func(value interface{}, exists bool) (newValue interface{}, remove bool)) {
	shard := sm.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	v, exists := shard.data[key]
	newValue, remove := f(v, exists)
	if remove {
		delete(shard.data, key)
		return
	}
	shard.data[key] = newValue
}

// Len returns the total number of entries across all shards.
func (sm *ShardedMap) Len() int {
	total := 0
	for _, shard := range sm.shards {
		shard.mu.RLock()
		total += len(shard.data)
		shard.mu.RUnlock()
	}
	return total
}

// Range calls f for a consistent-per-shard snapshot of every entry. f must
// not mutate the map.
func (sm *ShardedMap) Range(f func(key string, value interface{}) bool) {
	for _, shard := range sm.shards {
		shard.mu.RLock()
		for k, v := range shard.data {
			if !f(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Set is a mutex-guarded set of string keys built on the same sharding
// scheme, used for the tips set, the solid-entry-point set and the
// parent→children index's per-parent membership.
type Set struct {
	m *ShardedMap
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{m: NewShardedMap()}
}

func (s *Set) Add(key string)      { s.m.Store(key, struct{}{}) }
func (s *Set) Remove(key string)   { s.m.Delete(key) }
func (s *Set) Contains(key string) bool {
	_, ok := s.m.Load(key)
	return ok
}
func (s *Set) Len() int { return s.m.Len() }

// Snapshot returns a copy of the current member set.
func (s *Set) Snapshot() []string {
	out := make([]string, 0, s.Len())
	s.m.Range(func(key string, _ interface{}) bool {
		out = append(out, key)
		return true
	})
	return out
}
