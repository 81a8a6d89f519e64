package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/messages-backend/internal/cache"
	"github.com/shinyyama/messages-backend/internal/model"
	"github.com/shinyyama/messages-backend/internal/repository"
	"gorm.io/gorm"
)

// QuotaStatus is the quota probe result shown before the compose form.
type QuotaStatus struct {
	Used     int64 `json:"used"`
	Limit    int   `json:"limit"`
	Exceeded bool  `json:"exceeded"`
}

type ConversationService interface {
	Inbox(ctx context.Context, ownerUID string, page int) ([]model.Conversation, int64, error)
	Archived(ctx context.Context, ownerUID string, page int) ([]model.Conversation, int64, error)
	ArchivedCount(ctx context.Context, ownerUID string) (int64, error)

	// View returns the owner's copy with its messages and, as a side effect
	// of a successful read, clears the unread flag.
	View(ctx context.Context, ownerUID string, id uint64) (*model.Conversation, error)

	CreateThread(ctx context.Context, senderUID, recipientUsername, body string) (*model.Conversation, error)
	Reply(ctx context.Context, ownerUID string, id uint64, body string) (*model.Message, error)

	Archive(ctx context.Context, ownerUID string, id uint64) error
	Unarchive(ctx context.Context, ownerUID string, id uint64) error
	Delete(ctx context.Context, ownerUID string, id uint64) error

	// RawMessage returns a single message for quoting, visible only to the
	// two participants of its conversation.
	RawMessage(ctx context.Context, callerUID string, messageID uint64) (*model.Message, error)

	Quota(ctx context.Context, uid string) (*QuotaStatus, error)
}

const defaultPageSize = 10

type conversationService struct {
	db       *gorm.DB
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	users    UserDirectory
	quota    *QuotaChecker
	inv      cache.Invalidator
	pageSize int
}

func NewConversationService(
	db *gorm.DB,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	users UserDirectory,
	quota *QuotaChecker,
	inv cache.Invalidator,
	pageSize int,
) ConversationService {
	if inv == nil {
		inv = cache.Noop{}
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &conversationService{db: db, convs: convs, msgs: msgs, users: users, quota: quota, inv: inv, pageSize: pageSize}
}

func (s *conversationService) Inbox(ctx context.Context, ownerUID string, page int) ([]model.Conversation, int64, error) {
	return s.convs.ListInbox(ctx, ownerUID, page, s.pageSize)
}

func (s *conversationService) Archived(ctx context.Context, ownerUID string, page int) ([]model.Conversation, int64, error) {
	return s.convs.ListArchived(ctx, ownerUID, page, s.pageSize)
}

func (s *conversationService) ArchivedCount(ctx context.Context, ownerUID string) (int64, error) {
	return s.convs.CountArchived(ctx, ownerUID)
}

func (s *conversationService) View(ctx context.Context, ownerUID string, id uint64) (*model.Conversation, error) {
	cv, err := s.findOwned(ctx, ownerUID, id)
	if err != nil {
		return nil, err
	}
	if cv.Unread {
		if err := s.convs.SetUnread(ctx, cv, false); err != nil {
			return nil, err
		}
		s.invalidate(ctx, ownerUID)
	}
	return cv, nil
}

// CreateThread starts a new thread from sender to recipient. Both mailbox
// copies and both seed messages are written in one transaction: a thread
// visible to only one party must never be observable.
func (s *conversationService) CreateThread(ctx context.Context, senderUID, recipientUsername, body string) (*model.Conversation, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationErr("body", "must not be empty")
	}
	if recipientUsername == "" {
		return nil, validationErr("to", "recipient is required")
	}
	recipient, err := s.users.FindByUsername(ctx, recipientUsername)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, validationErr("to", "no such user")
		}
		return nil, err
	}
	if recipient.UID == senderUID {
		return nil, validationErr("to", "cannot message yourself")
	}
	if exceeded, err := s.quota.Exceeded(ctx, senderUID); err != nil {
		return nil, err
	} else if exceeded {
		return nil, ErrQuotaExceeded
	}

	// Both copies carry the same shared id; it is the only link between them.
	sharedID := uuid.NewString()
	sender := senderUID
	to := recipient.UID

	var senderCopy *model.Conversation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convs := s.convs.WithTx(tx)
		msgs := s.msgs.WithTx(tx)

		senderCopy = &model.Conversation{
			OwnerUID: sender,
			FromUID:  &sender,
			ToUID:    &to,
			SharedID: sharedID,
		}
		if err := convs.Create(ctx, senderCopy); err != nil {
			return err
		}
		if _, err := msgs.Append(ctx, senderCopy, &sender, body); err != nil {
			return err
		}
		// The sender has trivially read their own copy.
		if err := convs.SetUnread(ctx, senderCopy, false); err != nil {
			return err
		}

		recipientCopy := &model.Conversation{
			OwnerUID: to,
			FromUID:  &sender,
			ToUID:    &to,
			SharedID: sharedID,
		}
		if err := convs.Create(ctx, recipientCopy); err != nil {
			return err
		}
		// A second, distinct message row: full duplication, no shared storage.
		if _, err := msgs.Append(ctx, recipientCopy, &sender, body); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, senderUID)
	s.invalidate(ctx, recipient.UID)
	return senderCopy, nil
}

// Reply appends into the replier's own copy and mirrors the message into the
// counterpart's copy, resurrecting that copy if the counterpart deleted it.
func (s *conversationService) Reply(ctx context.Context, ownerUID string, id uint64, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationErr("body", "must not be empty")
	}
	cv, err := s.findOwned(ctx, ownerUID, id)
	if err != nil {
		return nil, err
	}
	if exceeded, err := s.quota.Exceeded(ctx, ownerUID); err != nil {
		return nil, err
	} else if exceeded {
		return nil, ErrQuotaExceeded
	}

	counterpart := cv.CounterpartUID(ownerUID)
	author := ownerUID

	var msg *model.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convs := s.convs.WithTx(tx)
		msgs := s.msgs.WithTx(tx)

		// Append raises unread; the replier's own read state must come out
		// unchanged, so restore whatever it was before.
		wasUnread := cv.Unread
		m, err := msgs.Append(ctx, cv, &author, body)
		if err != nil {
			return err
		}
		if err := convs.SetUnread(ctx, cv, wasUnread); err != nil {
			return err
		}
		msg = m

		if counterpart == nil {
			// The other account is gone; there is no mailbox to mirror into.
			return nil
		}
		theirs, err := convs.FindByOwnerAndSharedID(ctx, *counterpart, cv.SharedID)
		if err != nil {
			return err
		}
		if theirs == nil {
			// The counterpart deleted their copy. Recreate it under the same
			// shared id so the thread reappears as a fresh mailbox entry.
			theirs = &model.Conversation{
				OwnerUID: *counterpart,
				FromUID:  &author,
				ToUID:    counterpart,
				SharedID: cv.SharedID,
			}
			if err := convs.Create(ctx, theirs); err != nil {
				return err
			}
		}
		if _, err := msgs.Append(ctx, theirs, &author, body); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerUID)
	if counterpart != nil {
		s.invalidate(ctx, *counterpart)
	}
	return msg, nil
}

// Archive moves the conversation to the owner's archive. Re-archiving is a
// no-op, not an error.
func (s *conversationService) Archive(ctx context.Context, ownerUID string, id uint64) error {
	return s.setTrashed(ctx, ownerUID, id, true)
}

func (s *conversationService) Unarchive(ctx context.Context, ownerUID string, id uint64) error {
	return s.setTrashed(ctx, ownerUID, id, false)
}

func (s *conversationService) setTrashed(ctx context.Context, ownerUID string, id uint64, trashed bool) error {
	cv, err := s.findOwned(ctx, ownerUID, id)
	if err != nil {
		return err
	}
	if cv.Trashed == trashed {
		return nil
	}
	if err := s.convs.SetTrashed(ctx, cv, trashed); err != nil {
		return err
	}
	s.invalidate(ctx, ownerUID)
	return nil
}

// Delete permanently removes the owner's copy and its messages. The
// counterpart's copy is untouched; the thread survives one-sided.
func (s *conversationService) Delete(ctx context.Context, ownerUID string, id uint64) error {
	cv, err := s.findOwned(ctx, ownerUID, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.convs.WithTx(tx).Delete(ctx, cv)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, ownerUID)
	return nil
}

func (s *conversationService) RawMessage(ctx context.Context, callerUID string, messageID uint64) (*model.Message, error) {
	msg, err := s.msgs.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cv, err := s.convs.FindByID(ctx, msg.ConversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	isFrom := cv.FromUID != nil && *cv.FromUID == callerUID
	isTo := cv.ToUID != nil && *cv.ToUID == callerUID
	if !isFrom && !isTo {
		// Non-participants get the same answer as for a missing message.
		return nil, ErrNotFound
	}
	return msg, nil
}

func (s *conversationService) Quota(ctx context.Context, uid string) (*QuotaStatus, error) {
	used, err := s.quota.CountLiveMessages(ctx, uid)
	if err != nil {
		return nil, err
	}
	limit := s.quota.Limit()
	return &QuotaStatus{
		Used:     used,
		Limit:    limit,
		Exceeded: limit > 0 && used >= int64(limit),
	}, nil
}

func (s *conversationService) findOwned(ctx context.Context, ownerUID string, id uint64) (*model.Conversation, error) {
	cv, err := s.convs.FindByOwnerAndID(ctx, ownerUID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cv, nil
}

// invalidate reports a stale mailbox to the cache layer. Failures are logged
// and swallowed: a missed invalidation must not fail the mutation itself.
func (s *conversationService) invalidate(ctx context.Context, uid string) {
	if err := s.inv.InvalidateUser(ctx, uid); err != nil {
		log.Printf("cache invalidation for %s failed: %v", uid, err)
	}
}
