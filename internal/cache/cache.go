package cache

import "context"

// Invalidator is the hook the messaging core fires after any mutation that
// changes what a user's mailbox looks like (new message, read transition,
// archive, delete). The core never reads or writes cached values itself; it
// only reports which user's cached counters are now stale.
type Invalidator interface {
	InvalidateUser(ctx context.Context, uid string) error
}

// UserKeys lists the cache keys the forum keeps per user that this subsystem
// can stale: the quota message count and the unread-conversations badge.
func UserKeys(uid string) []string {
	return []string{
		"forum:messages:count:" + uid,
		"forum:messages:unread:" + uid,
	}
}

// Noop satisfies Invalidator for deployments without a cache layer and for
// tests.
type Noop struct{}

func (Noop) InvalidateUser(ctx context.Context, uid string) error { return nil }
