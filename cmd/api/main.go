package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shinyyama/messages-backend/internal/cache"
	"github.com/shinyyama/messages-backend/internal/config"
	"github.com/shinyyama/messages-backend/internal/db"
	"github.com/shinyyama/messages-backend/internal/server"
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

	var inv cache.Invalidator = cache.Noop{}
	if cfg.RedisURL != "" {
		r, err := cache.NewRedisInvalidator(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connect error: %v", err)
		}
		defer r.Close()
		inv = r
	} else {
		log.Printf("REDIS_URL not set; cache invalidation disabled")
	}

	srv := server.New(conn, cfg, inv)

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
