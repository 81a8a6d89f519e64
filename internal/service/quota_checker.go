package service

import (
	"context"

	"github.com/shinyyama/messages-backend/internal/repository"
)

// QuotaScope selects which set of live messages counts against a user's
// quota: messages they authored anywhere, or messages stored in their own
// mailbox regardless of author.
type QuotaScope string

const (
	QuotaScopeAuthored QuotaScope = "authored"
	QuotaScopeMailbox  QuotaScope = "mailbox"
)

// QuotaChecker counts a user's live messages against a configured limit.
// It re-reads the store on every check; any caching happens outside the
// core and is invalidated through the cache hook.
type QuotaChecker struct {
	msgs  repository.MessageRepository
	limit int
	scope QuotaScope
}

// NewQuotaChecker builds a checker. A limit of zero or less disables the
// quota. An unrecognized scope falls back to QuotaScopeAuthored.
func NewQuotaChecker(msgs repository.MessageRepository, limit int, scope QuotaScope) *QuotaChecker {
	if scope != QuotaScopeMailbox {
		scope = QuotaScopeAuthored
	}
	return &QuotaChecker{msgs: msgs, limit: limit, scope: scope}
}

func (q *QuotaChecker) Limit() int {
	return q.limit
}

func (q *QuotaChecker) CountLiveMessages(ctx context.Context, uid string) (int64, error) {
	if q.scope == QuotaScopeMailbox {
		return q.msgs.CountByMailbox(ctx, uid)
	}
	return q.msgs.CountByAuthor(ctx, uid)
}

// Exceeded reports whether the user has reached their limit. It has no side
// effects; callers decide whether to block the send.
func (q *QuotaChecker) Exceeded(ctx context.Context, uid string) (bool, error) {
	if q.limit <= 0 {
		return false, nil
	}
	n, err := q.CountLiveMessages(ctx, uid)
	if err != nil {
		return false, err
	}
	return n >= int64(q.limit), nil
}
