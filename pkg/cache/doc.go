// Package cache provides a generic TTL cache with in-memory and Redis backends
// and a read-through Loader.
//
// The menu pipeline caches raw vendor payloads per location and date so a
// preview followed by a send hits the vendor once:
//
//	c, err := cache.New[*menu.RawPayload](cfg.Cache, redisClient)
//	loader := cache.NewLoader(c, cfg.Cache.TTL)
//	payload, hit, err := loader.Load(ctx, key, func(ctx context.Context) (*menu.RawPayload, error) {
//		return client.Fetch(ctx, req)
//	})
//
// Concurrent Loads of the same key share a single call to the loader function.
// Errors are not cached.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the cache's configured default TTL
//   - Negative: item never expires
//
// Backends: [NewMemory] keeps entries in process and evicts the entry closest to
// expiry when WithMaxEntries is reached. [NewRedis] stores JSON under a key
// prefix and leaves the client lifecycle to pkg/redis.
package cache
