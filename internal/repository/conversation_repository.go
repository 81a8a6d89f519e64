package repository

import (
	"context"
	"time"

	"github.com/shinyyama/messages-backend/internal/model"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	Create(ctx context.Context, cv *model.Conversation) error
	ListInbox(ctx context.Context, ownerUID string, page, pageSize int) ([]model.Conversation, int64, error)
	ListArchived(ctx context.Context, ownerUID string, page, pageSize int) ([]model.Conversation, int64, error)
	CountArchived(ctx context.Context, ownerUID string) (int64, error)
	FindByOwnerAndID(ctx context.Context, ownerUID string, id uint64) (*model.Conversation, error)
	FindByOwnerAndSharedID(ctx context.Context, ownerUID, sharedID string) (*model.Conversation, error)
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	SetTrashed(ctx context.Context, cv *model.Conversation, trashed bool) error
	SetUnread(ctx context.Context, cv *model.Conversation, unread bool) error
	Delete(ctx context.Context, cv *model.Conversation) error
	WithTx(tx *gorm.DB) ConversationRepository
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx so callers can group
// several writes into one transaction.
func (r *conversationRepository) WithTx(tx *gorm.DB) ConversationRepository {
	return &conversationRepository{db: tx}
}

func (r *conversationRepository) Create(ctx context.Context, cv *model.Conversation) error {
	now := time.Now().UTC()
	if cv.CreatedAt.IsZero() {
		cv.CreatedAt = now
	}
	if cv.ModifiedAt.IsZero() {
		cv.ModifiedAt = now
	}
	return r.db.WithContext(ctx).Create(cv).Error
}

func (r *conversationRepository) list(ctx context.Context, ownerUID string, trashed bool, page, pageSize int) ([]model.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("owner_uid = ? AND trashed = ?", ownerUID, trashed).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var list []model.Conversation
	err = r.db.WithContext(ctx).
		Where("owner_uid = ? AND trashed = ?", ownerUID, trashed).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("modified_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *conversationRepository) ListInbox(ctx context.Context, ownerUID string, page, pageSize int) ([]model.Conversation, int64, error) {
	return r.list(ctx, ownerUID, false, page, pageSize)
}

func (r *conversationRepository) ListArchived(ctx context.Context, ownerUID string, page, pageSize int) ([]model.Conversation, int64, error) {
	return r.list(ctx, ownerUID, true, page, pageSize)
}

func (r *conversationRepository) CountArchived(ctx context.Context, ownerUID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("owner_uid = ? AND trashed = ?", ownerUID, true).
		Count(&n).Error
	return n, err
}

// FindByOwnerAndID scopes the lookup to the owner's mailbox: a conversation
// owned by someone else yields the same gorm.ErrRecordNotFound as one that
// does not exist at all.
func (r *conversationRepository) FindByOwnerAndID(ctx context.Context, ownerUID string, id uint64) (*model.Conversation, error) {
	var cv model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("owner_uid = ? AND id = ?", ownerUID, id).
		First(&cv).Error
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// FindByOwnerAndSharedID locates the owner's copy of a thread. A missing row
// is a normal outcome (the owner deleted their copy) and is reported as
// (nil, nil), not as an error.
func (r *conversationRepository) FindByOwnerAndSharedID(ctx context.Context, ownerUID, sharedID string) (*model.Conversation, error) {
	var cv model.Conversation
	err := r.db.WithContext(ctx).
		Where("owner_uid = ? AND shared_id = ?", ownerUID, sharedID).
		First(&cv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

// SetTrashed flips the archive flag. It deliberately leaves modified_at
// alone: only message activity counts as activity, not mailbox housekeeping.
func (r *conversationRepository) SetTrashed(ctx context.Context, cv *model.Conversation, trashed bool) error {
	if err := r.db.WithContext(ctx).Model(cv).UpdateColumn("trashed", trashed).Error; err != nil {
		return err
	}
	cv.Trashed = trashed
	return nil
}

// SetUnread flips the read flag without touching modified_at.
func (r *conversationRepository) SetUnread(ctx context.Context, cv *model.Conversation, unread bool) error {
	if err := r.db.WithContext(ctx).Model(cv).UpdateColumn("unread", unread).Error; err != nil {
		return err
	}
	cv.Unread = unread
	return nil
}

// Delete removes the owner's copy and its messages. The counterpart's copy
// of the thread is a separate row and stays untouched.
func (r *conversationRepository) Delete(ctx context.Context, cv *model.Conversation) error {
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", cv.ID).
		Delete(&model.Message{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(cv).Error
}
