// Seeds a local database with two users and a short conversation so the
// frontend has something to render during development.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/shinyyama/messages-backend/internal/config"
	"github.com/shinyyama/messages-backend/internal/db"
	"github.com/shinyyama/messages-backend/internal/model"
	"github.com/shinyyama/messages-backend/internal/repository"
	"github.com/shinyyama/messages-backend/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(conn)

	seedUsers := []model.User{
		{UID: "seed-alice", Username: "alice", DisplayName: "Alice"},
		{UID: "seed-bob", Username: "bob", DisplayName: "Bob"},
	}
	for i := range seedUsers {
		if _, err := userRepo.FindByUID(ctx, seedUsers[i].UID); err == nil {
			continue
		}
		if err := userRepo.Create(ctx, &seedUsers[i]); err != nil {
			log.Fatalf("seed user %s: %v", seedUsers[i].Username, err)
		}
	}

	convRepo := repository.NewConversationRepository(conn)
	msgRepo := repository.NewMessageRepository(conn)
	users := service.NewUserDirectory(userRepo)
	quota := service.NewQuotaChecker(msgRepo, cfg.MessageQuota, service.QuotaScope(cfg.QuotaScope))
	svc := service.NewConversationService(conn, convRepo, msgRepo, users, quota, nil, cfg.TopicsPerPage)

	cv, err := svc.CreateThread(ctx, "seed-alice", "bob", "Hey Bob, welcome to the forum!")
	if err != nil {
		log.Fatalf("seed thread: %v", err)
	}
	bobCopy, err := convRepo.FindByOwnerAndSharedID(ctx, "seed-bob", cv.SharedID)
	if err != nil || bobCopy == nil {
		log.Fatalf("seed thread mirror missing: %v", err)
	}
	if _, err := svc.Reply(ctx, "seed-bob", bobCopy.ID, "Thanks Alice, glad to be here."); err != nil {
		log.Fatalf("seed reply: %v", err)
	}

	log.Printf("seeded %d users and one conversation (shared id %s)", len(seedUsers), cv.SharedID)
}
