// Package goredis provides a storage.KeyValue backed by github.com/redis/go-redis/v9.
//
// The store wraps a redis.UniversalClient, so the same code serves a standalone
// server, a Sentinel failover group or a cluster. Keys are written exactly as the
// kv package builds them unless Config.KeyPrefix is set.
//
// Example usage:
//
//	store, err := goredis.New(ctx, goredis.Config{
//		Addrs: []string{"localhost:6379"},
//	})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	backend, _ := kv.New(store, kv.Config{Logger: logger})
package goredis
