package core

import "context"

// KVStore is a minimal persisted key-value mechanism. It isolates whatever
// storage backs it (a local file, Redis, ...) from the logic built on top.
//
// Values are opaque strings; callers decide on the encoding.
type KVStore interface {
	// Get returns the value stored under key, or def when the key is absent.
	Get(ctx context.Context, key, def string) (string, error)
	Set(ctx context.Context, key, value string) error
}
