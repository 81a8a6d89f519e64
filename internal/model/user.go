package model

import "time"

// DeletedUserName is the sentinel shown wherever a message or conversation
// still references a user account that no longer exists.
const DeletedUserName = "[deleted]"

type User struct {
	UID         string    `gorm:"column:uid;primaryKey;size:128" json:"uid"`
	Username    string    `gorm:"column:username;size:64;uniqueIndex" json:"username"`
	DisplayName string    `gorm:"column:display_name;size:128" json:"displayName"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
