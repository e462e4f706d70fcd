package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	healthKey = "menumail:readyz"
	healthTTL = 30 * time.Second
)

// Healthcheck pings client and writes a short-lived marker key in one round trip.
// The payload cache writes on every fetch, so a read-only replica reports unready.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.Join(ErrHealthcheckFailed, ErrNoClient)
		}

		pipe := client.Pipeline()
		ping := pipe.Ping(ctx)
		mark := pipe.Set(ctx, healthKey, strconv.FormatInt(time.Now().Unix(), 10), healthTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			if redis.IsReadOnlyError(mark.Err()) {
				return errors.Join(ErrHealthcheckFailed, ErrReadOnly, err)
			}
			if perr := ping.Err(); perr != nil {
				return errors.Join(ErrHealthcheckFailed, perr)
			}
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
