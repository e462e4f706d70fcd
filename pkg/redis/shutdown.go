package redis

import (
	"context"
	"io"
)

// Shutdown returns a hook that closes the client; it matches the server's shutdown hook signature.
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
