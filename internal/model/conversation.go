package model

import "time"

// Conversation is one mailbox's copy of a thread. A logical thread between
// two users is stored as two rows, one per mailbox, carrying the same
// SharedID. The rows are independent after creation: archiving, reading or
// deleting one never touches the other.
//
// FromUID and ToUID are nullable because the referenced accounts may be
// deleted while the conversation lives on.
type Conversation struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUID   string    `gorm:"column:owner_uid;size:128;index;uniqueIndex:uniq_owner_shared" json:"ownerUid"`
	FromUID    *string   `gorm:"column:from_uid;size:128" json:"fromUid"`
	ToUID      *string   `gorm:"column:to_uid;size:128" json:"toUid"`
	SharedID   string    `gorm:"column:shared_id;size:36;index;uniqueIndex:uniq_owner_shared" json:"sharedId"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"createdAt"`
	ModifiedAt time.Time `gorm:"column:modified_at" json:"modifiedAt"`
	Trashed    bool      `gorm:"column:trashed;not null;default:false" json:"trashed"`
	Unread     bool      `gorm:"column:unread;not null;default:false" json:"unread"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// CounterpartUID returns the participant other than uid, or nil when that
// account has been deleted.
func (c *Conversation) CounterpartUID(uid string) *string {
	if c.ToUID != nil && *c.ToUID == uid {
		return c.FromUID
	}
	return c.ToUID
}
