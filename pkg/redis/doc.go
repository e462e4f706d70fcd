// Package redis opens the go-redis client used by the payload cache.
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	defer client.Close()
//
// Open pings the server and retries with exponential backoff
// (REDIS_CONNECT_RETRIES, REDIS_RETRY_INTERVAL) before giving up with
// ErrConnectionFailed. [Healthcheck] adapts the client to the readiness probe.
package redis
