// Package valkey provides a storage.KeyValue backed by Valkey (or any server
// speaking the Redis protocol) through github.com/valkey-io/valkey-go.
//
// Keys are written exactly as the kv package builds them, e.g.
// "oauth:access:tokens:<id>", unless Config.KeyPrefix is set, in which case the
// prefix is prepended verbatim. Use a prefix to share one database between
// several deployments.
//
// Example usage:
//
//	store, err := valkey.New(valkey.Config{
//		Address: "localhost:6379",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	backend, err := kv.New(store, kv.Config{Logger: logger})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// one bundle per request
//	stores := backend.Stores()
//	client, err := stores.Clients.Get(ctx, clientID, secret, redirectURI, "")
//
// # Testing
//
// Tests connect to VALKEY_TEST_ADDR (default localhost:6379) and are skipped
// when no server answers. Each test writes under its own key prefix and removes
// its keys afterwards.
package valkey
