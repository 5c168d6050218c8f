package repo

import "context"

// KVStore is the persistent key-value capability behind the offline cache,
// the pending queue and credential storage. Get returns code.NotFoundErr for
// a missing key; every other failure is a code.StorageErr.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
