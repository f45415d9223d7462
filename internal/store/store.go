// Package store provides artifact addressing and the durable object-store
// client used by every artifact producer.
package store

import "context"

// ObjectStore is a thin existence-check/get/put abstraction over a remote
// durable object store, keyed by a namespaced path. Implementations are safe
// for concurrent use; an object becomes visible only once fully written.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	PutFile(ctx context.Context, key string, path string) error
	Close() error
}
