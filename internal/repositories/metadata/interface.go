// Package metadata is a small durable key-value store inside the cache
// database. Its main tenant is the encrypted session credential (ciphertext
// and IV stored under separate keys).
package metadata

import "context"

type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
