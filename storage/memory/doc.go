// Package memory provides an in-process implementation of storage.KeyValue.
//
// Strings and sets live in Go maps guarded by a sync.RWMutex. Sets keep their
// members in insertion order, so SMembers is deterministic, which real servers do
// not promise. It is suitable for development, tests and single-instance
// deployments where persistence is not required.
//
// Like a Redis server, the store keeps one type per key: SAdd on a string key or
// Get on a set key fails with ErrWrongType.
//
// For production deployments use storage/valkey or storage/goredis instead.
//
// Example usage:
//
//	store := memory.New()
//	backend, _ := kv.New(store, kv.Config{Logger: logger})
//	stores := backend.Stores()
package memory
