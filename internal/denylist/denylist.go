package denylist

import (
	"context"
)

// Store is a best-effort shared set with per-key expiry.
// The backing cache may be unreachable at any time: implementations must
// degrade to no-ops and "false" answers instead of returning errors, so
// that auth keeps working without the cache
type Store interface {
	// IsReady reports whether the store can be talked to right now
	IsReady(ctx context.Context) bool

	// AddToSet adds member to the set stored under key
	AddToSet(ctx context.Context, key string, member string)

	// SetExpire sets a TTL in seconds on the whole key
	SetExpire(ctx context.Context, key string, seconds int64)

	// IsMember reports set membership, false when the store is down
	IsMember(ctx context.Context, key string, member string) bool

	Close() error
}

// Disabled is a Store for deployments without a cache.
// Never ready, never a member
type Disabled struct{}

func (Disabled) IsReady(ctx context.Context) bool { return false }

func (Disabled) AddToSet(ctx context.Context, key string, member string) {}

func (Disabled) SetExpire(ctx context.Context, key string, seconds int64) {}

func (Disabled) IsMember(ctx context.Context, key string, member string) bool { return false }

func (Disabled) Close() error { return nil }
