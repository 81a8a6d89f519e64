package model

import "time"

// Message is a single immutable piece of text inside one Conversation copy.
// Messages are never edited; they go away only when their conversation is
// deleted. AuthorUID is nullable for the same reason as the conversation's
// participant columns.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;index;not null" json:"conversationId"`
	AuthorUID      *string   `gorm:"column:author_uid;size:128;index" json:"authorUid"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
