package interfaces

import "context"

// StateStore persists the last seen tag per entry key. A single key is
// read-then-written by exactly one processor invocation per poll cycle; the
// run driver processes entries sequentially, so no locking is required of
// implementations.
type StateStore interface {
	// GetLastTag returns the persisted tag for key. The second return value
	// is false when the key has never been recorded.
	GetLastTag(ctx context.Context, key string) (string, bool, error)

	// SetLastTag records tag as the last seen release for key.
	SetLastTag(ctx context.Context, key, tag string) error

	Close() error
}

// MaintainableStore supports out-of-band enumeration and deletion, used by
// the state maintenance commands only, never by the polling path.
type MaintainableStore interface {
	StateStore

	// ListKeys returns "key:tag" pairs, optionally filtered by key prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// DeleteKeys removes all entries matching the key prefix (all entries
	// when prefix is empty) and returns the number removed.
	DeleteKeys(ctx context.Context, prefix string) (int, error)
}
