package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/messages-backend/internal/model"
	"gorm.io/gorm"
)

// ErrEmptyConversation is returned by First/Last on a conversation without
// messages. The send protocol always seeds a message, so hitting this means
// some writer broke the protocol; callers should treat it as an internal
// failure, not user error.
var ErrEmptyConversation = errors.New("conversation has no messages")

type MessageRepository interface {
	Append(ctx context.Context, cv *model.Conversation, authorUID *string, body string) (*model.Message, error)
	First(ctx context.Context, conversationID uint64) (*model.Message, error)
	Last(ctx context.Context, conversationID uint64) (*model.Message, error)
	List(ctx context.Context, conversationID uint64) ([]model.Message, error)
	FindByID(ctx context.Context, id uint64) (*model.Message, error)
	CountByAuthor(ctx context.Context, authorUID string) (int64, error)
	CountByMailbox(ctx context.Context, ownerUID string) (int64, error)
	WithTx(tx *gorm.DB) MessageRepository
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) WithTx(tx *gorm.DB) MessageRepository {
	return &messageRepository{db: tx}
}

// Append inserts a message and, in the same write, stamps the owning
// conversation: modified_at is set to the message's created_at and unread is
// raised. There is no way to append without these side effects; callers that
// need a different unread outcome (a sender reading their own copy) apply an
// explicit SetUnread afterwards.
func (r *messageRepository) Append(ctx context.Context, cv *model.Conversation, authorUID *string, body string) (*model.Message, error) {
	now := time.Now().UTC()
	msg := &model.Message{
		ConversationID: cv.ID,
		AuthorUID:      authorUID,
		Body:           body,
		CreatedAt:      now,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(cv).UpdateColumns(map[string]interface{}{
		"modified_at": now,
		"unread":      true,
	}).Error
	if err != nil {
		return nil, err
	}
	cv.ModifiedAt = now
	cv.Unread = true
	cv.Messages = append(cv.Messages, *msg)
	return msg, nil
}

func (r *messageRepository) edge(ctx context.Context, conversationID uint64, order string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order(order).
		First(&msg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrEmptyConversation
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) First(ctx context.Context, conversationID uint64) (*model.Message, error) {
	return r.edge(ctx, conversationID, "id ASC")
}

func (r *messageRepository) Last(ctx context.Context, conversationID uint64) (*model.Message, error) {
	return r.edge(ctx, conversationID, "id DESC")
}

func (r *messageRepository) List(ctx context.Context, conversationID uint64) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountByAuthor counts live messages authored by the user across all
// mailboxes. Because every send duplicates the message into both copies,
// this counts both duplicates, matching "stored messages" for quota purposes.
func (r *messageRepository) CountByAuthor(ctx context.Context, authorUID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("author_uid = ?", authorUID).
		Count(&n).Error
	return n, err
}

// CountByMailbox counts live messages stored in conversations the user owns,
// regardless of author.
func (r *messageRepository) CountByMailbox(ctx context.Context, ownerUID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.owner_uid = ?", ownerUID).
		Count(&n).Error
	return n, err
}
