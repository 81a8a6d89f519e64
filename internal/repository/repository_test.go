package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/messages-backend/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with the messaging tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

// createConversation inserts a mailbox copy owned by owner, with alice as
// sender and bob as recipient unless overridden by the caller afterwards.
func createConversation(t *testing.T, db *gorm.DB, owner, sharedID string) *model.Conversation {
	t.Helper()
	cv := &model.Conversation{
		OwnerUID: owner,
		FromUID:  strPtr("alice"),
		ToUID:    strPtr("bob"),
		SharedID: sharedID,
	}
	if err := NewConversationRepository(db).Create(context.Background(), cv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return cv
}

// setModified pins a conversation's activity timestamp so ordering tests
// don't depend on wall-clock resolution.
func setModified(t *testing.T, db *gorm.DB, cv *model.Conversation, at time.Time) {
	t.Helper()
	if err := db.Model(cv).UpdateColumn("modified_at", at).Error; err != nil {
		t.Fatalf("set modified_at: %v", err)
	}
	cv.ModifiedAt = at
}
